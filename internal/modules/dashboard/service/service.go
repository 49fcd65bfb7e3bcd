package service

import (
	"context"
	"math"
	"net/http"
	"sort"

	courseRepo "anoa.com/learnhub/internal/modules/course/repository"
	"anoa.com/learnhub/internal/modules/dashboard/dto"
	enrollmentRepo "anoa.com/learnhub/internal/modules/enrollment/repository"
	progressRepo "anoa.com/learnhub/internal/modules/progress/repository"
	userRepo "anoa.com/learnhub/internal/modules/user/repository"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	StudentDashboard(ctx context.Context, identity *policy.Identity) (*dto.StudentDashboard, error)
	TeacherAnalytics(ctx context.Context, identity *policy.Identity) (*dto.TeacherAnalytics, error)
	AdminOverview(ctx context.Context) (*dto.AdminOverview, error)
}

type dashboardService struct {
	courses     courseRepo.CourseRepository
	enrollments enrollmentRepo.EnrollmentRepository
	progress    progressRepo.ProgressRepository
	users       userRepo.UserRepository
	classifier  *policy.Classifier
}

func NewDashboardService(
	courses courseRepo.CourseRepository,
	enrollments enrollmentRepo.EnrollmentRepository,
	progress progressRepo.ProgressRepository,
	users userRepo.UserRepository,
	classifier *policy.Classifier,
) DashboardService {
	return &dashboardService{
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		users:       users,
		classifier:  classifier,
	}
}

// StudentDashboard splits purchased courses on whether every published chapter is completed.
func (s *dashboardService) StudentDashboard(ctx context.Context, identity *policy.Identity) (*dto.StudentDashboard, error) {
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}

	ids, err := s.enrollments.PurchasedCourseIDs(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.FindByIDs(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.CoursesProgress(ctx, identity.UserID, ids)
	if err != nil {
		return nil, err
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })

	out := &dto.StudentDashboard{Completed: []dto.CourseProgress{}, InProgress: []dto.CourseProgress{}}
	for _, c := range courses {
		item := dto.CourseProgress{
			CourseID:    c.ID,
			Title:       c.Title,
			ImageURL:    c.ImageURL,
			IsPublished: c.IsPublished,
			Progress:    progress[c.ID],
		}
		if item.Progress >= 100 {
			out.Completed = append(out.Completed, item)
		} else {
			out.InProgress = append(out.InProgress, item)
		}
	}
	return out, nil
}

// TeacherAnalytics reports sales for the caller's courses; admins see every course.
func (s *dashboardService) TeacherAnalytics(ctx context.Context, identity *policy.Identity) (*dto.TeacherAnalytics, error) {
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}
	caps := s.classifier.Classify(identity, nil)
	if !caps.CanAuthor() {
		return nil, apperror.New(http.StatusForbidden, "only teachers can view course analytics", apperror.ErrForbidden)
	}

	var owner *uuid.UUID
	if !caps.IsAdmin {
		owner = &identity.UserID
	}
	courses, err := s.courses.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	counts, err := s.enrollments.CountPurchasesByCourse(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &dto.TeacherAnalytics{Courses: make([]dto.CourseSales, 0, len(courses))}
	for _, c := range courses {
		var price float64
		if c.Price != nil {
			price = *c.Price
		}
		sales := dto.CourseSales{
			CourseID:    c.ID,
			Title:       c.Title,
			IsPublished: c.IsPublished,
			Price:       price,
			Purchases:   counts[c.ID],
			Revenue:     roundCents(price * float64(counts[c.ID])),
		}
		out.Courses = append(out.Courses, sales)
		out.TotalPurchases += sales.Purchases
		out.TotalRevenue += sales.Revenue
	}
	out.TotalRevenue = roundCents(out.TotalRevenue)
	return out, nil
}

func (s *dashboardService) AdminOverview(ctx context.Context) (*dto.AdminOverview, error) {
	var out dto.AdminOverview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalCourses, err = s.courses.Count(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		out.PublishedCourses, err = s.courses.Count(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		out.PendingApplications, err = s.enrollments.CountApplicationsByStatus(gctx, policy.StatusPending)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
