package filestorage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/firebase"
)

// ObjectStore writes objects by key and resolves their public download URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// NewObjectStore returns the store selected by AVATAR_STORAGE_DRIVER.
func NewObjectStore(cfg *config.Config, fb *firebase.FirebaseService, logger *zap.Logger) (ObjectStore, error) {
	switch cfg.AvatarStorageDriver {
	case config.StorageDriverLocal:
		return NewLocalStore(cfg.AvatarLocalPath, cfg.AvatarPublicBaseURL, logger)
	case config.StorageDriverFirebase:
		return NewFirebaseBucket(fb.Bucket, cfg.FirebaseStorageBucket, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.AvatarStorageDriver)
	}
}
