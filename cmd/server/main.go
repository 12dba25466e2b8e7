package main

import (
	"context"
	"errors"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/platform/database"
	"crewdesk_backend/internal/platform/logger"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	purgeCmd := flag.NewFlagSet("purge-notifications", flag.ExitOnError)
	olderThan := purgeCmd.Duration("older-than", 0, "Delete notifications older than this (defaults to NOTIFICATION_RETENTION_HOURS)")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			_ = migrateCmd.Parse(os.Args[2:])
			runMigrate()
			return
		case "purge-notifications":
			_ = purgeCmd.Parse(os.Args[2:])
			runPurge(*olderThan)
			return
		}
	}

	// Default: Start server
	startServer()
}

func runMigrate() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for migrate: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for migrate: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for migrate", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	if err := database.Migrate(db, models()...); err != nil {
		appLogger.Fatal("FATAL: Migration failed", zap.Error(err))
	}
	appLogger.Info("Database migration completed successfully.")
}

func runPurge(olderThan time.Duration) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for purge: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for purge: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for purge", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	if olderThan <= 0 {
		olderThan = cfg.NotificationRetention
	}
	svc := notification.NewService(notification.NewGORMRepository(db), appLogger)
	purged, err := svc.PurgeOlderThan(context.Background(), time.Now().Add(-olderThan))
	if err != nil {
		appLogger.Fatal("FATAL: Notification purge failed", zap.Error(err))
	}
	appLogger.Info("Notification purge completed.", zap.Int64("purged", purged), zap.Duration("olderThan", olderThan))
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
