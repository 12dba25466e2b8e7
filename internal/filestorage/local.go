package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps objects on the local filesystem. Used in development,
// where the files are served by the router's static handler.
type LocalStore struct {
	basePath      string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalStore creates a LocalStore rooted at basePath.
func NewLocalStore(basePath, publicBaseURL string, logger *zap.Logger) (*LocalStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", basePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", basePath, err)
	}
	logger.Info("LocalStore initialized", zap.String("storagePath", basePath))
	return &LocalStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		s.logger.Warn("Rejected object key with path traversal", zap.String("key", key))
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Upload writes r to key, replacing any existing object atomically.
func (s *LocalStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create directory for object", zap.String("path", dir), zap.Error(err))
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error("Failed to write object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to save object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move object into place %s: %w", dest, err)
	}

	s.logger.Info("Object saved", zap.String("key", key), zap.String("contentType", contentType))
	return nil
}

// DownloadURL returns the public URL of key. The modification time is added
// as a query parameter so browsers refetch a replaced avatar.
func (s *LocalStore) DownloadURL(ctx context.Context, key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("object %s not found: %w", key, err)
	}
	return fmt.Sprintf("%s/%s?v=%d", s.publicBaseURL, filepath.ToSlash(filepath.Clean(key)), info.ModTime().UnixNano()), nil
}
