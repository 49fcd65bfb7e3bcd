package dto

import "github.com/google/uuid"

type CourseProgress struct {
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url"`
	IsPublished bool      `json:"is_published"`
	Progress    float64   `json:"progress"`
}

type StudentDashboard struct {
	Completed  []CourseProgress `json:"completed_courses"`
	InProgress []CourseProgress `json:"courses_in_progress"`
}

type CourseSales struct {
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	IsPublished bool      `json:"is_published"`
	Price       float64   `json:"price"`
	Purchases   int64     `json:"purchases"`
	Revenue     float64   `json:"revenue"`
}

type TeacherAnalytics struct {
	Courses        []CourseSales `json:"courses"`
	TotalPurchases int64         `json:"total_purchases"`
	TotalRevenue   float64       `json:"total_revenue"`
}

type AdminOverview struct {
	TotalUsers          int64 `json:"total_users"`
	TotalCourses        int64 `json:"total_courses"`
	PublishedCourses    int64 `json:"published_courses"`
	PendingApplications int64 `json:"pending_applications"`
}
