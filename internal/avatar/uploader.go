// Package avatar validates avatar images and publishes them to object
// storage, the identity provider and the backend profile.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/shared"
)

// DefaultMaxBytes is the largest accepted avatar (5 MiB).
const DefaultMaxBytes int64 = 5 * 1024 * 1024

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ObjectStore writes avatar objects and resolves their download URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// PhotoUpdater updates the photo URL held by the identity provider.
type PhotoUpdater interface {
	UpdatePhotoURL(ctx context.Context, uid, photoURL string) error
}

// ProfileUpdater persists a partial update of the backend profile.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, firebaseUID string, update shared.ProfileUpdate) (*shared.UserProfile, error)
}

// File is a selected image.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Uploader holds the avatar state of one session: the current avatar URL and
// whether an upload is in flight.
type Uploader struct {
	store    ObjectStore
	photos   PhotoUpdater
	profiles ProfileUpdater
	notifier notification.Notifier
	maxBytes int64
	logger   *zap.Logger

	mu        sync.RWMutex
	avatarURL string
	inFlight  int
}

// NewUploader creates an idle uploader. A non-positive maxBytes selects DefaultMaxBytes.
func NewUploader(store ObjectStore, photos PhotoUpdater, profiles ProfileUpdater, notifier notification.Notifier, maxBytes int64, logger *zap.Logger) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{
		store:    store,
		photos:   photos,
		profiles: profiles,
		notifier: notifier,
		maxBytes: maxBytes,
		logger:   logger.Named("AvatarUploader"),
	}
}

// AvatarKey is the object key of a user's avatar. Each user has exactly one.
func AvatarKey(uid string) string {
	return "avatars/" + uid
}

// Upload validates f and publishes it as id's avatar, returning the new URL.
// Without an identity or a file it does nothing and returns "", nil.
func (u *Uploader) Upload(ctx context.Context, id *identity.Identity, f *File) (string, error) {
	if id == nil || id.UID == "" || f == nil || f.Content == nil {
		return "", nil
	}

	if !allowedType(f.ContentType) {
		u.notifier.Notify(ctx, notification.Message{
			Variant:     notification.VariantDestructive,
			Title:       "Invalid file type",
			Description: "Please select an image file (JPEG, PNG, or GIF).",
		})
		return "", common.ErrInvalidFileType.WithDetails(fmt.Sprintf("Unsupported content type %q.", f.ContentType))
	}
	if f.Size > u.maxBytes {
		u.notifier.Notify(ctx, notification.Message{
			Variant:     notification.VariantDestructive,
			Title:       "File too large",
			Description: fmt.Sprintf("Avatar image must be smaller than %s.", formatSize(u.maxBytes)),
		})
		return "", common.ErrFileTooLarge.WithDetails(fmt.Sprintf("Avatar is %d bytes, limit is %d.", f.Size, u.maxBytes))
	}

	u.setUploading(true)
	defer u.setUploading(false)

	url, err := u.publish(ctx, id.UID, f)
	if err != nil {
		u.logger.Error("Avatar upload failed", zap.String("uid", id.UID), zap.Error(err))
		u.notifier.Notify(ctx, notification.Message{
			Variant:     notification.VariantDestructive,
			Title:       "Avatar upload failed",
			Description: failureDescription(err),
		})
		return "", err
	}

	u.mu.Lock()
	u.avatarURL = url
	u.mu.Unlock()

	u.logger.Info("Avatar updated", zap.String("uid", id.UID))
	u.notifier.Notify(ctx, notification.Message{
		Variant:     notification.VariantDefault,
		Title:       "Avatar updated",
		Description: "Your profile picture has been updated successfully.",
	})
	return url, nil
}

func (u *Uploader) publish(ctx context.Context, uid string, f *File) (string, error) {
	key := AvatarKey(uid)
	if err := u.store.Upload(ctx, key, mediaType(f.ContentType), f.Content); err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}
	url, err := u.store.DownloadURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolving avatar URL: %w", err)
	}
	if err := u.photos.UpdatePhotoURL(ctx, uid, url); err != nil {
		return "", fmt.Errorf("updating identity provider photo: %w", err)
	}
	if _, err := u.profiles.UpdateProfile(ctx, uid, shared.ProfileUpdate{PhotoURL: &url}); err != nil {
		return "", fmt.Errorf("updating profile photo: %w", err)
	}
	return url, nil
}

func (u *Uploader) setUploading(on bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if on {
		u.inFlight++
	} else {
		u.inFlight--
	}
}

// Uploading reports whether any upload is in flight.
func (u *Uploader) Uploading() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.inFlight > 0
}

// AvatarURL returns the URL of the last published avatar, or the seeded one.
func (u *Uploader) AvatarURL() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.avatarURL
}

// SetAvatarURL seeds the current URL, typically from the stored profile photo.
func (u *Uploader) SetAvatarURL(url string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.avatarURL = url
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func allowedType(contentType string) bool {
	return allowedTypes[mediaType(contentType)]
}

// failureDescription shows the message of the error that caused the failure,
// without the step prefixes added while it propagated.
func failureDescription(err error) string {
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr.UserMessage()
	}
	root := err
	for next := errors.Unwrap(root); next != nil; next = errors.Unwrap(root) {
		root = next
	}
	if msg := root.Error(); msg != "" {
		return msg
	}
	return "Error uploading avatar."
}

func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	if n%1024 == 0 {
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
