package dto

import (
	"time"

	"anoa.com/learnhub/internal/policy"
	commonDto "anoa.com/learnhub/pkg/dto"
	"github.com/google/uuid"
)

type ApplyRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cash other"`
}

type TransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=enroll unenroll"`
}

type GrantPurchaseRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type ApplicationFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	commonDto.PageQuery
}

type ApplicationResponse struct {
	ID            uuid.UUID                `json:"id"`
	CourseID      uuid.UUID                `json:"course_id"`
	CourseTitle   string                   `json:"course_title"`
	UserID        uuid.UUID                `json:"user_id"`
	UserName      string                   `json:"user_name"`
	UserEmail     string                   `json:"user_email"`
	PaymentMethod string                   `json:"payment_method"`
	Status        policy.ApplicationStatus `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
