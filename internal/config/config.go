package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseStorageBucket         string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	// Avatar storage
	AvatarStorageDriver string `mapstructure:"AVATAR_STORAGE_DRIVER"` // "firebase" or "local"
	AvatarLocalPath     string `mapstructure:"AVATAR_LOCAL_PATH"`
	AvatarPublicBaseURL string `mapstructure:"AVATAR_PUBLIC_BASE_URL"`
	AvatarMaxBytes      int64  `mapstructure:"AVATAR_MAX_BYTES"`

	// Sessions and the auth gate
	LoginPath         string        `mapstructure:"LOGIN_PATH"`
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL_MINUTES"`

	// Notifications
	NotificationRetention     time.Duration `mapstructure:"NOTIFICATION_RETENTION_HOURS"`
	NotificationPurgeSchedule string        `mapstructure:"NOTIFICATION_PURGE_SCHEDULE"`
}

// Storage drivers accepted by AVATAR_STORAGE_DRIVER.
const (
	StorageDriverFirebase = "firebase"
	StorageDriverLocal    = "local"
)

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Durations are configured as plain integers in their unit.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute
	cfg.NotificationRetention = time.Duration(v.GetInt("NOTIFICATION_RETENTION_HOURS")) * time.Hour
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "crewdesk_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional, inferred from credentials
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")

	v.SetDefault("AVATAR_STORAGE_DRIVER", StorageDriverFirebase)
	v.SetDefault("AVATAR_LOCAL_PATH", "./uploads")
	v.SetDefault("AVATAR_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("AVATAR_MAX_BYTES", 5*1024*1024)

	v.SetDefault("LOGIN_PATH", "/login")
	v.SetDefault("SESSION_COOKIE_NAME", "crewdesk_session")
	v.SetDefault("SESSION_TTL_MINUTES", 60*24)

	v.SetDefault("NOTIFICATION_RETENTION_HOURS", 24)
	v.SetDefault("NOTIFICATION_PURGE_SCHEDULE", "@hourly")
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
	}

	switch cfg.AvatarStorageDriver {
	case StorageDriverFirebase:
		if strings.TrimSpace(cfg.FirebaseStorageBucket) == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when AVATAR_STORAGE_DRIVER is %q", StorageDriverFirebase)
		}
	case StorageDriverLocal:
		if strings.TrimSpace(cfg.AvatarLocalPath) == "" {
			return fmt.Errorf("AVATAR_LOCAL_PATH is required when AVATAR_STORAGE_DRIVER is %q", StorageDriverLocal)
		}
	default:
		return fmt.Errorf("unsupported AVATAR_STORAGE_DRIVER %q", cfg.AvatarStorageDriver)
	}

	if cfg.AvatarMaxBytes <= 0 {
		return fmt.Errorf("AVATAR_MAX_BYTES must be positive, got %d", cfg.AvatarMaxBytes)
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must be an absolute path, got %q", cfg.LoginPath)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
