// Package session keeps one identity stream, auth gate and avatar uploader
// per browser session.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"crewdesk_backend/internal/authgate"
	"crewdesk_backend/internal/avatar"
	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/notification"
)

// Session is the server-side state of one browser session.
type Session struct {
	ID         string
	Identities *identity.Stream
	Gate       *authgate.Gate
	Avatar     *avatar.Uploader
	CreatedAt  time.Time
}

// Identity returns the signed-in identity, or nil.
func (s *Session) Identity() *identity.Identity {
	return s.Identities.Current()
}

// Refresh re-publishes the current identity so the gate resolves the backend
// profile again.
func (s *Session) Refresh() {
	s.Identities.Set(s.Identities.Current())
}

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Profiles       authgate.ProfileSource
	Initializer    authgate.Initializer
	Notifications  notification.Service
	Store          avatar.ObjectStore
	Photos         avatar.PhotoUpdater
	ProfileUpdates avatar.ProfileUpdater
	AvatarMaxBytes int64
}

// RegistryConfig holds the configuration for the Registry.
type RegistryConfig struct {
	CookieName      string
	TTL             time.Duration
	CleanupInterval time.Duration
	SecureCookie    bool
}

// RegistryConfigFrom derives the registry settings from the application config.
func RegistryConfigFrom(cfg *config.Config) RegistryConfig {
	cleanup := cfg.SessionTTL / 4
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return RegistryConfig{
		CookieName:      cfg.SessionCookieName,
		TTL:             cfg.SessionTTL,
		CleanupInterval: cleanup,
		SecureCookie:    cfg.GinMode == gin.ReleaseMode,
	}
}

// Registry maps session IDs to sessions. Idle sessions expire after the TTL;
// expiring or removing a session unmounts its gate.
type Registry struct {
	cache  *cache.Cache
	cfg    RegistryConfig
	deps   Dependencies
	logger *zap.Logger
}

// NewRegistry creates an empty registry. Sessions share deps.
func NewRegistry(cfg RegistryConfig, deps Dependencies, logger *zap.Logger) *Registry {
	r := &Registry{
		cache:  cache.New(cfg.TTL, cfg.CleanupInterval),
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("SessionRegistry"),
	}
	r.cache.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Gate.Unmount()
			r.logger.Debug("Session closed", zap.String("sessionID", id))
		}
	})
	return r
}

// Create starts a new session with a mounted gate in the signed-out state.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	notifier := r.deps.Notifications.ForSession(id)
	sessionLogger := r.logger.With(zap.String("sessionID", id))

	stream := identity.NewStream()
	gate := authgate.New(stream, r.deps.Profiles, r.deps.Initializer, notifier, sessionLogger)
	gate.Mount(context.Background())

	s := &Session{
		ID:         id,
		Identities: stream,
		Gate:       gate,
		Avatar: avatar.NewUploader(r.deps.Store, r.deps.Photos, r.deps.ProfileUpdates,
			notifier, r.deps.AvatarMaxBytes, sessionLogger),
		CreatedAt: time.Now(),
	}
	r.cache.Set(id, s, cache.DefaultExpiration)
	r.logger.Debug("Session created", zap.String("sessionID", id))
	return s
}

// Get returns a live session and extends its TTL.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	s := v.(*Session)
	// The janitor may evict and unmount a session between Get and Set, and
	// the Set would store it again. A dead gate means the session is gone.
	if !s.Gate.Active() {
		r.cache.Delete(id)
		return nil, false
	}
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// FromRequest resolves the session named by the request's session cookie.
func (r *Registry) FromRequest(c *gin.Context) (*Session, bool) {
	id, err := c.Cookie(r.cfg.CookieName)
	if err != nil {
		return nil, false
	}
	return r.Get(id)
}

// Ensure returns the request's session, creating one and setting the
// session cookie when there is none.
func (r *Registry) Ensure(c *gin.Context) *Session {
	if s, ok := r.FromRequest(c); ok {
		return s
	}
	s := r.Create()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(r.cfg.CookieName, s.ID, int(r.cfg.TTL.Seconds()), "/", "", r.cfg.SecureCookie, true)
	return s
}

// Remove closes a session.
func (r *Registry) Remove(id string) {
	r.cache.Delete(id)
}

// Len reports the number of stored sessions, including expired ones not yet evicted.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close unmounts every session.
func (r *Registry) Close() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
