//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"crewdesk_backend/internal/app"
	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/filestorage"
	"crewdesk_backend/internal/firebase"
	"crewdesk_backend/internal/jobs"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/platform/logger"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/user"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDatabase,

		firebase.NewFirebaseService,
		wire.Bind(new(session.TokenVerifier), new(*firebase.FirebaseService)),
		filestorage.NewObjectStore,
		provideAvatarStore,

		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		notification.NewGORMRepository,
		notification.NewService,
		jobs.NewNotificationPurgeJob,

		session.RegistryConfigFrom,
		provideSessionDependencies,
		session.NewRegistry,
		session.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
