// Package authgate resolves the backend profile of whoever is signed in with
// the identity provider and publishes it as the auth context value.
package authgate

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/shared"
)

// ErrGateUnmounted is returned by Await once the gate has been unmounted.
var ErrGateUnmounted = errors.New("auth gate unmounted")

// IdentitySource delivers identity-provider sign-in state changes.
type IdentitySource interface {
	Subscribe(fn func(*identity.Identity)) (unsubscribe func())
}

// ProfileSource fetches backend profiles. A missing profile is reported as
// common.ErrNotFound or as a nil profile with a nil error.
type ProfileSource interface {
	GetCurrentUser(ctx context.Context, firebaseUID string) (*shared.UserProfile, error)
}

// Initializer initializes the identity-provider client. It must be idempotent.
type Initializer func(ctx context.Context) error

var (
	msgProfileNotFound = notification.Message{
		Variant:     notification.VariantDestructive,
		Title:       "User profile not found",
		Description: "There was an issue loading your profile",
	}
	msgProfileError = notification.Message{
		Variant:     notification.VariantDestructive,
		Title:       "Error loading profile",
		Description: "Please try again later",
	}
)

type identityEvent struct {
	generation uint64
	identity   *identity.Identity
}

// Gate owns one auth context value. Identity notifications are numbered as
// they arrive and resolved newest-wins: a resolution commits only if it is
// still the latest and the gate is still mounted.
type Gate struct {
	source   IdentitySource
	profiles ProfileSource
	init     Initializer
	notifier notification.Notifier
	logger   *zap.Logger

	mu          sync.RWMutex
	state       State
	mounted     bool
	active      bool
	generation  uint64
	settled     uint64
	pending     *identityEvent
	changed     chan struct{}
	unsubscribe func()
	cancel      context.CancelFunc

	wake     chan struct{}
	initDone chan struct{}
}

// New creates an unmounted gate in the initial loading state.
func New(source IdentitySource, profiles ProfileSource, init Initializer, notifier notification.Notifier, logger *zap.Logger) *Gate {
	return &Gate{
		source:   source,
		profiles: profiles,
		init:     init,
		notifier: notifier,
		logger:   logger.Named("AuthGate"),
		state:    InitialState(),
		changed:  make(chan struct{}),
		wake:     make(chan struct{}, 1),
		initDone: make(chan struct{}),
	}
}

// Mount starts provider initialization and subscribes to the identity
// source. Calling Mount again, or after Unmount, does nothing.
func (g *Gate) Mount(ctx context.Context) {
	g.mu.Lock()
	if g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = true
	g.active = true
	lifetime, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()

	go g.initialize(lifetime)
	go g.consume(lifetime)

	unsubscribe := g.source.Subscribe(g.onIdentity)

	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		unsubscribe()
		return
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
}

// Unmount stops listening, discards in-flight resolutions and clears the
// user. It does not wait for in-flight profile fetches. Safe to call twice.
func (g *Gate) Unmount() {
	g.mu.Lock()
	if !g.active && g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = true
	g.active = false
	g.state.User = nil
	g.state.Authenticated = false
	g.state.deriveRoles()
	unsubscribe, cancel := g.unsubscribe, g.cancel
	g.unsubscribe = nil
	g.broadcastLocked()
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	g.logger.Debug("Auth gate unmounted")
}

// Active reports whether the gate is mounted and not yet unmounted.
func (g *Gate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// State returns a snapshot of the auth context value.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Await blocks until the most recent identity notification has been resolved.
func (g *Gate) Await(ctx context.Context) (State, error) {
	for {
		g.mu.RLock()
		if g.mounted && !g.active {
			s := g.state
			g.mu.RUnlock()
			return s, ErrGateUnmounted
		}
		if g.settled == g.generation && !g.state.Loading {
			s := g.state
			g.mu.RUnlock()
			return s, nil
		}
		changed := g.changed
		g.mu.RUnlock()

		select {
		case <-ctx.Done():
			return g.State(), ctx.Err()
		case <-changed:
		}
	}
}

func (g *Gate) initialize(ctx context.Context) {
	defer close(g.initDone)
	if g.init != nil {
		if err := g.init(ctx); err != nil {
			g.logger.Error("Identity provider initialization failed", zap.Error(err))
			return
		}
	}
	g.mu.Lock()
	if g.active {
		g.state.ProviderInitialized = true
		g.broadcastLocked()
	}
	g.mu.Unlock()
}

func (g *Gate) onIdentity(id *identity.Identity) {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return
	}
	g.generation++
	g.pending = &identityEvent{generation: g.generation, identity: id}
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// consume is the single reader of identity notifications. Starting a new
// resolution cancels the previous one.
func (g *Gate) consume(ctx context.Context) {
	var cancelPrev context.CancelFunc
	defer func() {
		if cancelPrev != nil {
			cancelPrev()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.wake:
		}

		g.mu.Lock()
		ev := g.pending
		g.pending = nil
		g.mu.Unlock()
		if ev == nil {
			continue
		}

		if cancelPrev != nil {
			cancelPrev()
		}
		rctx, cancel := context.WithCancel(ctx)
		cancelPrev = cancel
		go g.resolve(rctx, ev)
	}
}

func (g *Gate) resolve(ctx context.Context, ev *identityEvent) {
	select {
	case <-g.initDone:
	case <-ctx.Done():
		return
	}

	if ev.identity == nil {
		g.commit(ctx, ev.generation, nil, func(s *State) {
			s.Authenticated = false
			s.User = nil
		})
		return
	}

	uid := ev.identity.UID
	g.markAuthenticated(ev.generation)

	profile, err := g.profiles.GetCurrentUser(ctx, uid)
	switch {
	case err == nil && profile != nil:
		g.commit(ctx, ev.generation, nil, func(s *State) {
			s.Authenticated = true
			s.User = profile
		})
	case err == nil || errors.Is(err, common.ErrNotFound):
		g.logger.Warn("No backend profile for signed-in user", zap.String("uid", uid))
		g.commit(ctx, ev.generation, &msgProfileNotFound, func(s *State) {
			s.Authenticated = true
			s.User = nil
		})
	case ctx.Err() != nil:
		g.logger.Debug("Profile fetch cancelled", zap.String("uid", uid), zap.Error(err))
	default:
		g.logger.Error("Failed to load backend profile", zap.String("uid", uid), zap.Error(err))
		g.commit(ctx, ev.generation, &msgProfileError, func(s *State) {
			s.Authenticated = true
			// A stale profile may only stand in for the same identity.
			if s.User != nil && s.User.FirebaseUID != uid {
				s.User = nil
			}
		})
	}
}

func (g *Gate) markAuthenticated(generation uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active && generation == g.generation {
		g.state.Authenticated = true
	}
}

// commit applies mutate unless the gate was unmounted or a newer notification
// arrived in the meantime. The toast is queued under the same lock, so a newer
// notification cannot slip in between the check and the toast, and Await
// never returns ahead of it. Notifiers must not call back into the gate.
func (g *Gate) commit(ctx context.Context, generation uint64, toast *notification.Message, mutate func(*State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active || generation != g.generation {
		g.logger.Debug("Discarding stale auth resolution", zap.Uint64("generation", generation))
		return
	}
	mutate(&g.state)
	g.state.deriveRoles()
	g.state.Loading = false
	if toast != nil {
		g.notifier.Notify(ctx, *toast)
	}
	g.settled = generation
	g.broadcastLocked()
}

func (g *Gate) broadcastLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}
