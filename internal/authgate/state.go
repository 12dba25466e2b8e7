package authgate

import "crewdesk_backend/internal/shared"

// State is the auth context value shared with everything behind the gate.
// User is treated as immutable once published.
type State struct {
	User                *shared.UserProfile `json:"user"`
	IsAdmin             bool                `json:"isAdmin"`
	IsOwner             bool                `json:"isOwner"`
	Loading             bool                `json:"loading"`
	ProviderInitialized bool                `json:"providerInitialized"`

	// Authenticated reports whether the identity provider has a signed-in user.
	// It can be true while User is nil when the profile could not be loaded.
	Authenticated bool `json:"-"`
}

// InitialState is the value before the first identity notification resolves.
func InitialState() State {
	return State{Loading: true}
}

// Decision is what a guarded route should do with a given State.
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionRedirect
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decide applies the rendering policy: wait while loading, send signed-out
// visitors to the login route, otherwise render.
func (s State) Decide() Decision {
	switch {
	case s.Loading:
		return DecisionLoading
	case !s.Authenticated:
		return DecisionRedirect
	default:
		return DecisionRender
	}
}

func (s *State) deriveRoles() {
	s.IsAdmin = s.User.IsAdmin()
	s.IsOwner = s.User.IsOwner()
}
