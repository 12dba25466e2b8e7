package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Variant selects how the front-end renders a toast.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Message is a toast as produced by the gate and the avatar uploader.
type Message struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Notification is a queued toast for one browser session.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SessionID   string    `gorm:"type:varchar(64);not null;index:idx_notification_session" json:"-"`
	Variant     Variant   `gorm:"type:varchar(20);not null;default:'default'" json:"variant"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;index:idx_notification_session" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	return nil
}
