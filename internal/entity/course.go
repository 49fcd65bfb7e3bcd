package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeliveryOnline   = "online"
	DeliveryInPerson = "in-person"
	DeliveryHybrid   = "hybrid"
)

type Course struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	ImageURL     string       `gorm:"type:text" json:"image_url"`
	Price        *float64     `gorm:"type:numeric(10,2)" json:"price"`
	CategoryID   *uuid.UUID   `gorm:"type:uuid;index" json:"category_id"`
	Category     *Category    `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	IsPublished  bool         `gorm:"not null;default:false" json:"is_published"`
	DeliveryMode *string      `gorm:"size:20" json:"delivery_mode"`
	Chapters     []Chapter    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Chapter struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	VideoURL    string       `gorm:"type:text" json:"video_url"`
	Position    int          `gorm:"not null;index" json:"position"`
	IsPublished bool         `gorm:"not null;default:false" json:"is_published"`
	IsFree      bool         `gorm:"not null;default:false" json:"is_free"`
	Materials   []Material   `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Material struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

type Assignment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	FileType  string    `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
