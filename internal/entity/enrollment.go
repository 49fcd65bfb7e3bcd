package entity

import (
	"time"

	"anoa.com/learnhub/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentCash  = "cash"
	PaymentOther = "other"
)

// Purchase is the entitlement row; one per (user, course).
type Purchase struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_user_course" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_user_course;index" json:"course_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

type Application struct {
	ID            uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                `gorm:"type:uuid;not null;index:idx_application_user_course" json:"user_id"`
	CourseID      uuid.UUID                `gorm:"type:uuid;not null;index:idx_application_user_course" json:"course_id"`
	User          *User                    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course        *Course                  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	PaymentMethod string                   `gorm:"size:20;not null" json:"payment_method"`
	Status        policy.ApplicationStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt     time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

type UserProgress struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_chapter" json:"user_id"`
	ChapterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_chapter;index" json:"chapter_id"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *UserProgress) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
