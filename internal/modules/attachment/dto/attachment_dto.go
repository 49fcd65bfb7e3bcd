package dto

import (
	"time"

	"github.com/google/uuid"
)

type AttachmentResponse struct {
	ID        uint      `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Name      string    `json:"name"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}
