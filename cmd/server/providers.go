package main

import (
	"log"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk_backend/internal/avatar"
	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/filestorage"
	"crewdesk_backend/internal/firebase"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/platform/database"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/user"
)

// models lists every GORM model owned by the service.
func models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Invitation{},
		&notification.Notification{},
	}
}

// provideDatabase opens the database and runs auto-migration when DB_AUTO_MIGRATE is set.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(db, models()...); err != nil {
			database.CloseGORMDB(db)
			return nil, nil, err
		}
		logger.Info("Database auto-migration completed.")
	}
	cleanup := func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}
	return db, cleanup, nil
}

func provideAvatarStore(store filestorage.ObjectStore) avatar.ObjectStore {
	return store
}

func provideSessionDependencies(
	cfg *config.Config,
	users *user.ServiceImplementation,
	fb *firebase.FirebaseService,
	notifications notification.Service,
	store avatar.ObjectStore,
) session.Dependencies {
	return session.Dependencies{
		Profiles:       users,
		Initializer:    fb.EnsureInitialized,
		Notifications:  notifications,
		Store:          store,
		Photos:         fb,
		ProfileUpdates: users,
		AvatarMaxBytes: cfg.AvatarMaxBytes,
	}
}
