package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/jobs"
	"crewdesk_backend/internal/middleware"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/user"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	userHandler    *user.Handler
	sessionHandler *session.Handler

	sessions *session.Registry

	// Jobs
	notificationPurgeJob *jobs.NotificationPurgeJob

	authMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	sessionHandler *session.Handler,
	sessions *session.Registry,
	notificationPurgeJob *jobs.NotificationPurgeJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// The session cookie is credentialed, so origins must be listed explicitly.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", "Location", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.RequireAuth(sessions, cfg, logger.Named("AuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "UP",
			"message":  "CrewDesk API is healthy!",
			"sessions": sessions.Len(),
		})
	})

	if cfg.AvatarStorageDriver == config.StorageDriverLocal {
		router.Static("/avatars", filepath.Join(cfg.AvatarLocalPath, "avatars"))
	}

	v1 := router.Group("/api/v1")
	sessionHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:           httpServer,
		router:               router,
		cfg:                  cfg,
		logger:               logger,
		userHandler:          userHandler,
		sessionHandler:       sessionHandler,
		sessions:             sessions,
		notificationPurgeJob: notificationPurgeJob,
		authMW:               authMW,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.notificationPurgeJob != nil {
		if err := s.notificationPurgeJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start notification purge job", zap.Error(err))
		}
	} else {
		s.logger.Info("Notification purge job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, then stops the purge job and unmounts
// every session's gate.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)
	if s.notificationPurgeJob != nil {
		s.notificationPurgeJob.Stop()
	}
	s.sessions.Close()
	return err
}
