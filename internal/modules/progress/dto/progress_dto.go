package dto

import "github.com/google/uuid"

type UpdateProgressRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

type ProgressResponse struct {
	ChapterID      uuid.UUID `json:"chapter_id"`
	CourseID       uuid.UUID `json:"course_id"`
	IsCompleted    bool      `json:"is_completed"`
	CourseProgress float64   `json:"course_progress"`
}
