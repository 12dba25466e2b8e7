// Package identity models the identity provider's sign-in state as an
// observable stream of signed-in identities.
package identity

import "sync"

// Identity is a verified identity-provider user. A nil *Identity means "signed out".
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Stream holds the current identity and notifies subscribers of every change.
// Subscribers receive the current value as soon as they subscribe. Deliveries
// are serialized, so every subscriber observes changes in Set order.
type Stream struct {
	deliverMu sync.Mutex

	mu      sync.Mutex
	current *Identity
	nextID  int
	subs    map[int]func(*Identity)
}

// NewStream returns a stream in the signed-out state.
func NewStream() *Stream {
	return &Stream{subs: make(map[int]func(*Identity))}
}

// Subscribe registers fn and calls it with the current identity before returning.
// The returned function unsubscribes; calling it more than once is harmless.
func (s *Stream) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(copyIdentity(current))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Set replaces the current identity and notifies all subscribers.
func (s *Stream) Set(id *Identity) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.current = copyIdentity(id)
	handlers := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(copyIdentity(id))
	}
}

// Current returns a copy of the current identity, or nil when signed out.
func (s *Stream) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIdentity(s.current)
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
