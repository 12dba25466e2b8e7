package shared

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the backend role of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleWorker Role = "worker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleWorker:
		return true
	}
	return false
}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", raw)
	}
	return r, nil
}

// UserProfile is the authenticated user as known to the backend. It has a
// single canonical representation; the legacy displayName/photoURL/uid
// aliases exist only in its JSON encoding.
type UserProfile struct {
	ID           uint
	FirebaseUID  string
	Email        string
	Name         *string
	Role         Role
	PhotoURL     *string
	CreatedAt    time.Time
	InvitedUsers []string
}

// NewUserProfile builds a profile, rejecting unknown roles and normalizing a
// missing invited-users list to an empty one.
func NewUserProfile(id uint, firebaseUID, email string, name *string, role Role, photoURL *string, createdAt time.Time, invitedUsers []string) (*UserProfile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("user %d: invalid role %q", id, role)
	}
	if invitedUsers == nil {
		invitedUsers = []string{}
	}
	return &UserProfile{
		ID:           id,
		FirebaseUID:  firebaseUID,
		Email:        email,
		Name:         name,
		Role:         role,
		PhotoURL:     photoURL,
		CreatedAt:    createdAt,
		InvitedUsers: invitedUsers,
	}, nil
}

// IsAdmin reports whether the profile carries the admin role. Nil-safe.
func (p *UserProfile) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// IsOwner reports whether the profile carries the owner role. Nil-safe.
func (p *UserProfile) IsOwner() bool { return p != nil && p.Role == RoleOwner }

type userProfileJSON struct {
	ID           uint     `json:"id"`
	FirebaseUID  string   `json:"firebase_uid"`
	Email        string   `json:"email"`
	Name         *string  `json:"name,omitempty"`
	Role         Role     `json:"role"`
	PhotoURL     *string  `json:"photo_url,omitempty"`
	CreatedAt    string   `json:"created_at"`
	DisplayName  *string  `json:"displayName,omitempty"`
	PhotoURLAlt  *string  `json:"photoURL,omitempty"`
	UID          string   `json:"uid"`
	InvitedUsers []string `json:"invitedUsers"`
}

// MarshalJSON emits the canonical fields plus the compatibility aliases.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	invited := p.InvitedUsers
	if invited == nil {
		invited = []string{}
	}
	return json.Marshal(userProfileJSON{
		ID:           p.ID,
		FirebaseUID:  p.FirebaseUID,
		Email:        p.Email,
		Name:         p.Name,
		Role:         p.Role,
		PhotoURL:     p.PhotoURL,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		DisplayName:  p.Name,
		PhotoURLAlt:  p.PhotoURL,
		UID:          p.FirebaseUID,
		InvitedUsers: invited,
	})
}

// ProfileUpdate is a partial update of the backend profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string
	PhotoURL *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.PhotoURL == nil
}
