package firebase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/identity"
)

// FirebaseService wraps the Firebase Admin SDK: ID token verification, user
// photo updates and the storage bucket used for avatars.
type FirebaseService struct {
	app    *firebase.App
	cfg    *config.Config
	logger *zap.Logger

	mu            sync.Mutex
	initialized   bool
	authClient    *auth.Client
	storageClient *fbstorage.Client
}

// NewFirebaseService creates the Firebase app from the service account key.
// Clients are created lazily by EnsureInitialized.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	conf := &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.FirebaseStorageBucket,
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	return &FirebaseService{
		app:    app,
		cfg:    cfg,
		logger: logger.Named("Firebase"),
	}, nil
}

// EnsureInitialized creates the auth and storage clients. Safe to call
// repeatedly and concurrently; a failed attempt is retried on the next call.
func (s *FirebaseService) EnsureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	authClient, err := s.app.Auth(ctx)
	if err != nil {
		s.logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	var storageClient *fbstorage.Client
	if s.cfg.FirebaseStorageBucket != "" {
		storageClient, err = s.app.Storage(ctx)
		if err != nil {
			s.logger.Error("Failed to get Firebase Storage client", zap.Error(err))
			return fmt.Errorf("error getting Firebase Storage client: %w", err)
		}
	}

	s.authClient = authClient
	s.storageClient = storageClient
	s.initialized = true
	s.logger.Info("Firebase Admin SDK initialized successfully.")
	return nil
}

func (s *FirebaseService) client(ctx context.Context) (*auth.Client, error) {
	if err := s.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return s.authClient, nil
}

// VerifyIdentity verifies a Firebase ID token and maps its claims to an Identity.
func (s *FirebaseService) VerifyIdentity(ctx context.Context, idToken string) (*identity.Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	token, err := client.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return identityFromClaims(token.UID, token.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *identity.Identity {
	id := &identity.Identity{UID: uid}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		id.DisplayName = v
	}
	if v, ok := claims["picture"].(string); ok {
		id.PhotoURL = v
	}
	if v, ok := claims["email_verified"].(bool); ok {
		id.EmailVerified = v
	}
	return id
}

// UpdatePhotoURL sets the photo URL on the Firebase user record.
func (s *FirebaseService) UpdatePhotoURL(ctx context.Context, uid, photoURL string) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}
	params := (&auth.UserToUpdate{}).PhotoURL(photoURL)
	if _, err := client.UpdateUser(ctx, uid, params); err != nil {
		s.logger.Error("Failed to update Firebase user photo", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to update photo URL for %s: %w", uid, err)
	}
	return nil
}

// Bucket returns the configured default storage bucket.
func (s *FirebaseService) Bucket(ctx context.Context) (*gcs.BucketHandle, error) {
	if err := s.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	if s.storageClient == nil {
		return nil, fmt.Errorf("firebase storage bucket is not configured")
	}
	bucket, err := s.storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("error opening storage bucket %q: %w", s.cfg.FirebaseStorageBucket, err)
	}
	return bucket, nil
}
