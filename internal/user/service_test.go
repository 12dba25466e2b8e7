package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/shared"
)

// MockUserRepository is a mock implementation of the user.Repository interface.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 42
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error) {
	args := m.Called(ctx, firebaseUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, user *User, fields map[string]interface{}) error {
	args := m.Called(ctx, user, fields)
	return args.Error(0)
}

func (m *MockUserRepository) AddInvitation(ctx context.Context, invitation *Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func setupUserService(t *testing.T) (*ServiceImplementation, *MockUserRepository) {
	repo := new(MockUserRepository)
	t.Cleanup(func() { repo.AssertExpectations(t) })
	return NewService(repo, zap.NewNop()), repo
}

func dbUser(uid string, role shared.Role) *User {
	return &User{
		BaseModel:   common.BaseModel{ID: 7, CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		FirebaseUID: uid,
		Email:       uid + "@example.com",
		Role:        role,
	}
}

func TestUserService_GetCurrentUser(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	u := dbUser("u1", shared.RoleOwner)
	u.Invitations = []Invitation{{Email: "crew@example.com"}}
	repo.On("FindByFirebaseUID", ctx, "u1").Return(u, nil).Once()

	profile, err := svc.GetCurrentUser(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, uint(7), profile.ID)
	assert.True(t, profile.IsOwner())
	assert.Equal(t, []string{"crew@example.com"}, profile.InvitedUsers)
}

func TestUserService_GetCurrentUser_NoInvitationsIsEmpty(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "u1").Return(dbUser("u1", shared.RoleWorker), nil).Once()

	profile, err := svc.GetCurrentUser(ctx, "u1")

	require.NoError(t, err)
	assert.NotNil(t, profile.InvitedUsers)
	assert.Empty(t, profile.InvitedUsers)
}

func TestUserService_GetCurrentUser_NotFound(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "ghost").Return(nil, common.ErrNotFound).Once()

	_, err := svc.GetCurrentUser(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserService_GetCurrentUser_RepoError(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "u1").Return(nil, errors.New("connection reset")).Once()

	_, err := svc.GetCurrentUser(ctx, "u1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	u := dbUser("u1", shared.RoleWorker)
	url := "https://cdn/u1.png"
	updated := dbUser("u1", shared.RoleWorker)
	updated.PhotoURL = &url

	repo.On("FindByFirebaseUID", ctx, "u1").Return(u, nil).Once()
	repo.On("UpdateFields", ctx, u, map[string]interface{}{"photo_url": url}).Return(nil).Once()
	repo.On("FindByFirebaseUID", ctx, "u1").Return(updated, nil).Once()

	profile, err := svc.UpdateProfile(ctx, "u1", shared.ProfileUpdate{PhotoURL: &url})

	require.NoError(t, err)
	require.NotNil(t, profile.PhotoURL)
	assert.Equal(t, url, *profile.PhotoURL)
}

func TestUserService_UpdateProfile_BlankName(t *testing.T) {
	svc, _ := setupUserService(t)
	blank := "   "

	_, err := svc.UpdateProfile(context.Background(), "u1", shared.ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUserService_Register_New(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	id := &identity.Identity{UID: "u1", Email: "u1@example.com", DisplayName: "Ana", PhotoURL: "https://img/ana"}

	repo.On("FindByFirebaseUID", ctx, "u1").Return(nil, common.ErrNotFound).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
		return u.FirebaseUID == "u1" && u.Role == shared.RoleWorker &&
			u.Name != nil && *u.Name == "Ana" && u.PhotoURL != nil
	})).Return(nil).Once()

	profile, created, err := svc.Register(ctx, id, "")

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(42), profile.ID)
	assert.Equal(t, shared.RoleWorker, profile.Role)
}

func TestUserService_Register_Existing(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "u1").Return(dbUser("u1", shared.RoleAdmin), nil).Once()

	profile, created, err := svc.Register(ctx, &identity.Identity{UID: "u1", Email: "u1@example.com"}, "Other")

	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, profile.IsAdmin())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Register_NoEmail(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "u1").Return(nil, common.ErrNotFound).Once()

	_, _, err := svc.Register(ctx, &identity.Identity{UID: "u1"}, "")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUserService_InviteUser(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	owner := dbUser("owner", shared.RoleOwner)
	after := dbUser("owner", shared.RoleOwner)
	after.Invitations = []Invitation{{Email: "crew@example.com"}}

	repo.On("FindByFirebaseUID", ctx, "owner").Return(owner, nil).Once()
	repo.On("AddInvitation", ctx, mock.MatchedBy(func(inv *Invitation) bool {
		return inv.InviterID == 7 && inv.Email == "crew@example.com"
	})).Return(nil).Once()
	repo.On("FindByFirebaseUID", ctx, "owner").Return(after, nil).Once()

	profile, err := svc.InviteUser(ctx, "owner", " Crew@Example.com ")

	require.NoError(t, err)
	assert.Equal(t, []string{"crew@example.com"}, profile.InvitedUsers)
}

func TestUserService_InviteUser_Self(t *testing.T) {
	svc, repo := setupUserService(t)
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "owner").Return(dbUser("owner", shared.RoleOwner), nil).Once()

	_, err := svc.InviteUser(ctx, "owner", "OWNER@example.com")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
