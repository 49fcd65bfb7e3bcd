package dto

import "github.com/google/uuid"

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type CategoryFilter struct {
	Search string `form:"search"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	CourseCount int64     `json:"course_count"`
}
