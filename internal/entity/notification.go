package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationApplicationApproved = "application_approved"
	NotificationApplicationRejected = "application_rejected"
	NotificationAccessGranted       = "access_granted"
	NotificationAccessRevoked       = "access_revoked"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`     // course
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`
	Type       string    `gorm:"size:50;not null" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
