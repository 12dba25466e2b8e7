package user

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/shared"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	FirebaseUID string       `gorm:"type:varchar(128);not null;uniqueIndex"`
	Email       string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name        *string      `gorm:"type:varchar(255)"`
	Role        shared.Role  `gorm:"type:varchar(20);not null;default:'worker'"`
	PhotoURL    *string      `gorm:"type:text"`
	Invitations []Invitation `gorm:"foreignKey:InviterID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeSave keeps the role column within the known roles.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = shared.RoleWorker
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user %s: invalid role %q", u.FirebaseUID, u.Role)
	}
	return nil
}

// Invitation records that a user invited someone by e-mail.
type Invitation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	InviterID uint      `gorm:"not null;uniqueIndex:idx_invitation_inviter_email"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_invitation_inviter_email"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// --- DTOs for API requests ---

// RegisterRequest completes the backend profile of a signed-in identity.
type RegisterRequest struct {
	Name string `json:"name,omitempty" binding:"omitempty,max=255"`
}

// UpdateProfileRequest is a partial profile update. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	PhotoURL *string `json:"photo_url,omitempty" binding:"omitempty,url"`
}

// InviteRequest invites a new crew member by e-mail.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}
