package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const downloadTokensKey = "firebaseStorageDownloadTokens"

// BucketOpener returns the bucket handle objects are written to.
type BucketOpener func(ctx context.Context) (*gcs.BucketHandle, error)

// FirebaseBucket stores objects in a Firebase Storage (GCS) bucket and hands
// out token-based download URLs the way the Firebase client SDKs do.
type FirebaseBucket struct {
	open       BucketOpener
	bucketName string
	logger     *zap.Logger
}

// NewFirebaseBucket creates a store that opens its bucket lazily through open.
func NewFirebaseBucket(open BucketOpener, bucketName string, logger *zap.Logger) *FirebaseBucket {
	return &FirebaseBucket{open: open, bucketName: bucketName, logger: logger.Named("FirebaseBucket")}
}

func (b *FirebaseBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	bucket, err := b.open(ctx)
	if err != nil {
		return err
	}

	w := bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokensKey: uuid.NewString()}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		b.logger.Error("Failed to write object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		b.logger.Error("Failed to finalize object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	b.logger.Info("Object uploaded", zap.String("key", key), zap.String("contentType", contentType))
	return nil
}

func (b *FirebaseBucket) DownloadURL(ctx context.Context, key string) (string, error) {
	bucket, err := b.open(ctx)
	if err != nil {
		return "", err
	}
	obj := bucket.Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", fmt.Errorf("object %s not found: %w", key, err)
		}
		return "", fmt.Errorf("failed to read attributes of %s: %w", key, err)
	}

	token := firstToken(attrs.Metadata[downloadTokensKey])
	if token == "" {
		token = uuid.NewString()
		metadata := make(map[string]string, len(attrs.Metadata)+1)
		for k, v := range attrs.Metadata {
			metadata[k] = v
		}
		metadata[downloadTokensKey] = token
		if _, err := obj.Update(ctx, gcs.ObjectAttrsToUpdate{Metadata: metadata}); err != nil {
			return "", fmt.Errorf("failed to attach download token to %s: %w", key, err)
		}
	}
	return downloadURL(b.bucketName, key, token), nil
}

// firstToken picks the first of a comma separated token list.
func firstToken(raw string) string {
	tok, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(tok)
}

func downloadURL(bucket, key, token string) string {
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("token", token)
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?%s",
		bucket, url.PathEscape(key), q.Encode())
}
