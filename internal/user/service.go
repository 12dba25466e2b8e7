package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/shared"
)

// Service is the backend profile API.
type Service interface {
	GetCurrentUser(ctx context.Context, firebaseUID string) (*shared.UserProfile, error)
	UpdateProfile(ctx context.Context, firebaseUID string, update shared.ProfileUpdate) (*shared.UserProfile, error)
	// Register returns the existing profile for id, creating a worker profile
	// first if there is none. created reports whether a record was inserted.
	Register(ctx context.Context, id *identity.Identity, name string) (profile *shared.UserProfile, created bool, err error)
	InviteUser(ctx context.Context, firebaseUID, email string) (*shared.UserProfile, error)
}

// ServiceImplementation implements Service on top of a Repository.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		logger: logger.Named("UserService"),
	}
}

func (s *ServiceImplementation) find(ctx context.Context, firebaseUID string) (*User, error) {
	dbUser, err := s.repo.FindByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Error finding user by Firebase UID", zap.String("firebaseUID", firebaseUID), zap.Error(err))
		return nil, fmt.Errorf("failed to load user %s: %w", firebaseUID, err)
	}
	return dbUser, nil
}

func (s *ServiceImplementation) GetCurrentUser(ctx context.Context, firebaseUID string) (*shared.UserProfile, error) {
	dbUser, err := s.find(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}
	return ToProfile(dbUser)
}

func (s *ServiceImplementation) UpdateProfile(ctx context.Context, firebaseUID string, update shared.ProfileUpdate) (*shared.UserProfile, error) {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, common.ErrBadRequest.WithDetails("Name cannot be blank.")
		}
		update.Name = &trimmed
	}

	dbUser, err := s.find(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return ToProfile(dbUser)
	}

	if err := s.repo.UpdateFields(ctx, dbUser, updateColumns(update)); err != nil {
		s.logger.Error("Failed to update user profile", zap.String("firebaseUID", firebaseUID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("User profile updated", zap.String("firebaseUID", firebaseUID))
	return s.GetCurrentUser(ctx, firebaseUID)
}

func (s *ServiceImplementation) Register(ctx context.Context, id *identity.Identity, name string) (*shared.UserProfile, bool, error) {
	if id == nil || id.UID == "" {
		return nil, false, common.ErrUnauthorized.WithDetails("A signed-in identity is required.")
	}

	existing, err := s.find(ctx, id.UID)
	if err == nil {
		profile, err := ToProfile(existing)
		return profile, false, err
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	if strings.TrimSpace(id.Email) == "" {
		return nil, false, common.ErrBadRequest.WithDetails("The signed-in identity has no e-mail address.")
	}

	dbUser := &User{
		FirebaseUID: id.UID,
		Email:       id.Email,
		Role:        shared.RoleWorker,
	}
	if n := strings.TrimSpace(name); n != "" {
		dbUser.Name = &n
	} else if id.DisplayName != "" {
		dn := id.DisplayName
		dbUser.Name = &dn
	}
	if id.PhotoURL != "" {
		photo := id.PhotoURL
		dbUser.PhotoURL = &photo
	}

	if err := s.repo.Create(ctx, dbUser); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost a race with a concurrent registration of the same identity.
			if existing, findErr := s.find(ctx, id.UID); findErr == nil {
				profile, err := ToProfile(existing)
				return profile, false, err
			}
		}
		s.logger.Error("Failed to create user in repository", zap.String("firebaseUID", id.UID), zap.Error(err))
		return nil, false, err
	}

	s.logger.Info("User registered successfully", zap.String("firebaseUID", id.UID), zap.Uint("userID", dbUser.ID))
	profile, err := ToProfile(dbUser)
	return profile, true, err
}

func (s *ServiceImplementation) InviteUser(ctx context.Context, firebaseUID, email string) (*shared.UserProfile, error) {
	inviter, err := s.find(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, common.ErrBadRequest.WithDetails("An e-mail address is required.")
	}
	if normalized == normalizeEmail(inviter.Email) {
		return nil, common.ErrBadRequest.WithDetails("You cannot invite yourself.")
	}

	if err := s.repo.AddInvitation(ctx, &Invitation{InviterID: inviter.ID, Email: normalized}); err != nil {
		if _, ok := common.IsAPIError(err); !ok {
			s.logger.Error("Failed to add invitation", zap.String("firebaseUID", firebaseUID), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("User invited", zap.String("firebaseUID", firebaseUID), zap.String("email", normalized))
	return s.GetCurrentUser(ctx, firebaseUID)
}
