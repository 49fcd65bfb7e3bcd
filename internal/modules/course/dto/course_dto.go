package dto

import (
	"time"

	attachmentDto "anoa.com/learnhub/internal/modules/attachment/dto"
	"anoa.com/learnhub/internal/policy"
	commonDto "anoa.com/learnhub/pkg/dto"
	"github.com/google/uuid"
)

type CreateCourseRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// UpdateCourseRequest only touches the fields that are present.
type UpdateCourseRequest struct {
	Title        *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description  *string  `json:"description"`
	ImageURL     *string  `json:"image_url" binding:"omitempty,url"`
	Price        *float64 `json:"price" binding:"omitempty,gte=0"`
	CategoryID   *string  `json:"category_id" binding:"omitempty,uuid"`
	DeliveryMode *string  `json:"delivery_mode" binding:"omitempty,oneof=online in-person hybrid"`
}

type CatalogFilter struct {
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Search     string `form:"search"`
	commonDto.PageQuery
}

type SearchQuery struct {
	Query      string `form:"q" binding:"required"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CourseResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	ImageURL          string                    `json:"image_url"`
	Price             *float64                  `json:"price"`
	DeliveryMode      *string                   `json:"delivery_mode"`
	IsPublished       bool                      `json:"is_published"`
	Category          *CategoryResponse         `json:"category"`
	Author            *commonDto.AuthorResponse `json:"author"`
	PublishedChapters int64                     `json:"published_chapters"`
	Progress          *float64                  `json:"progress,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

type ChapterSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	IsFree      bool      `json:"is_free"`
	IsCompleted bool      `json:"is_completed"`
}

// CourseDetailResponse is the gated course read. Chapters and attachments are
// omitted for placeholders; attachments are only present for entitled callers.
type CourseDetailResponse struct {
	CourseResponse
	Access           policy.Access                      `json:"access"`
	PendingRepublish bool                               `json:"pending_republish"`
	Capabilities     policy.Capabilities                `json:"capabilities"`
	Entitlement      policy.Entitlement                 `json:"entitlement"`
	Chapters         []ChapterSummary                   `json:"chapters,omitempty"`
	Attachments      []attachmentDto.AttachmentResponse `json:"attachments,omitempty"`
}
