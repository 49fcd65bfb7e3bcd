package dto

import (
	"time"

	"anoa.com/learnhub/internal/entity"
	attachmentDto "anoa.com/learnhub/internal/modules/attachment/dto"
	courseDto "anoa.com/learnhub/internal/modules/course/dto"
	"anoa.com/learnhub/internal/policy"
	"github.com/google/uuid"
)

type CreateChapterRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

type UpdateChapterRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url"`
	IsFree      *bool   `json:"is_free"`
}

type ReorderRequest struct {
	ChapterIDs []string `json:"chapter_ids" binding:"required,min=1,dive,uuid"`
}

type CreateMaterialRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	FileURL string `json:"file_url" binding:"required,url"`
}

type CreateAssignmentRequest struct {
	Title        string     `json:"title" binding:"required,max=255"`
	Instructions string     `json:"instructions"`
	DueAt        *time.Time `json:"due_at"`
}

type ChapterResponse struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url,omitempty"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	IsFree      bool      `json:"is_free"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChapterDetailResponse is the gated chapter read. Content fields are only set for full access.
type ChapterDetailResponse struct {
	ChapterResponse
	Access           policy.Access                      `json:"access"`
	PendingRepublish bool                               `json:"pending_republish"`
	Course           *courseDto.CourseResponse          `json:"course,omitempty"`
	Entitlement      policy.Entitlement                 `json:"entitlement"`
	Materials        []entity.Material                  `json:"materials,omitempty"`
	Assignments      []entity.Assignment                `json:"assignments,omitempty"`
	Attachments      []attachmentDto.AttachmentResponse `json:"attachments,omitempty"`
	NextChapterID    *uuid.UUID                         `json:"next_chapter_id"`
	IsCompleted      bool                               `json:"is_completed"`
	CourseProgress   *float64                           `json:"course_progress,omitempty"`
}
