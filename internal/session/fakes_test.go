package session

import (
	"context"
	"sync"
	"time"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/notification"
	"crewdesk_backend/internal/shared"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*shared.UserProfile
	calls    int
}

func (f *fakeProfiles) GetCurrentUser(_ context.Context, uid string) (*shared.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if p, ok := f.profiles[uid]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeProfiles) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifications struct {
	mu     sync.Mutex
	queued map[string][]notification.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{queued: map[string][]notification.Notification{}}
}

func (f *fakeNotifications) ForSession(id string) notification.Notifier {
	return notification.NotifierFunc(func(_ context.Context, msg notification.Message) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queued[id] = append(f.queued[id], notification.Notification{
			SessionID: id, Variant: msg.Variant, Title: msg.Title, Description: msg.Description,
		})
	})
}

func (f *fakeNotifications) Drain(_ context.Context, id string) ([]notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queued[id]
	delete(f.queued, id)
	if out == nil {
		out = []notification.Notification{}
	}
	return out, nil
}

func (f *fakeNotifications) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeVerifier struct {
	identities map[string]*identity.Identity
}

func (f *fakeVerifier) VerifyIdentity(_ context.Context, token string) (*identity.Identity, error) {
	if id, ok := f.identities[token]; ok {
		return id, nil
	}
	return nil, common.ErrUnauthorized
}

func testProfile(uid string, role shared.Role) *shared.UserProfile {
	p, err := shared.NewUserProfile(1, uid, uid+"@example.com", nil, role, nil, time.Unix(0, 0), nil)
	if err != nil {
		panic(err)
	}
	return p
}
