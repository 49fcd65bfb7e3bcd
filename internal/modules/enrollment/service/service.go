package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/enrollment/dto"
	"anoa.com/learnhub/internal/modules/enrollment/repository"
	notifService "anoa.com/learnhub/internal/modules/notification/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	commonDto "anoa.com/learnhub/pkg/dto"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CourseLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type EntitlementResolver interface {
	ResolveEntitlement(ctx context.Context, userID, courseID uuid.UUID) (policy.Entitlement, error)
}

type EnrollmentService interface {
	EntitlementResolver
	Apply(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.ApplyRequest) (*dto.ApplicationResponse, error)
	MyApplications(ctx context.Context, identity *policy.Identity) ([]dto.ApplicationResponse, error)
	ListApplications(ctx context.Context, filter dto.ApplicationFilter) (*commonDto.Paginated[dto.ApplicationResponse], error)
	TransitionApplication(ctx context.Context, applicationID uuid.UUID, action policy.Action) (policy.ApplicationStatus, error)
	DeleteApplication(ctx context.Context, applicationID uuid.UUID) error
	GrantPurchase(ctx context.Context, courseID, userID uuid.UUID) error
	RevokePurchase(ctx context.Context, courseID, userID uuid.UUID) error
}

type Options struct {
	RedisClient    *redis.Client
	ApplyRateLimit time.Duration
}

type enrollmentService struct {
	repo          repository.EnrollmentRepository
	courses       CourseLookup
	users         UserLookup
	classifier    *policy.Classifier
	notifications notifService.NotificationService
	redisClient   *redis.Client
	applyLimit    time.Duration
	log           *logger.Logger
}

func NewEnrollmentService(
	repo repository.EnrollmentRepository,
	courses CourseLookup,
	users UserLookup,
	classifier *policy.Classifier,
	notifications notifService.NotificationService,
	opts Options,
	log *logger.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:          repo,
		courses:       courses,
		users:         users,
		classifier:    classifier,
		notifications: notifications,
		redisClient:   opts.RedisClient,
		applyLimit:    opts.ApplyRateLimit,
		log:           log,
	}
}

// ResolveEntitlement reads the purchase and the most recent application independently.
func (s *enrollmentService) ResolveEntitlement(ctx context.Context, userID, courseID uuid.UUID) (policy.Entitlement, error) {
	var ent policy.Entitlement

	has, err := s.repo.HasPurchase(ctx, userID, courseID)
	if err != nil {
		return ent, err
	}
	ent.HasPurchase = has

	app, err := s.repo.LatestApplication(ctx, userID, courseID)
	switch {
	case err == nil:
		status := app.Status
		ent.ApplicationStatus = &status
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ent, err
	}

	return ent, nil
}

func (s *enrollmentService) Apply(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, apperror.FromDB(err, "course")
	}

	caps := s.classifier.Classify(identity, &course.UserID)
	if !course.IsPublished && !caps.CanBypass() {
		return nil, fmt.Errorf("course not found: %w", apperror.ErrNotFound)
	}
	if caps.IsOwner {
		return nil, apperror.New(http.StatusBadRequest, "you cannot apply to your own course", apperror.ErrBadRequest)
	}

	has, err := s.repo.HasPurchase(ctx, identity.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("already enrolled in this course: %w", apperror.ErrConflict)
	}

	pending, err := s.repo.HasPendingApplication(ctx, identity.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("an application for this course is already pending: %w", apperror.ErrConflict)
	}

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, identity.UserID, ratelimiter.ScopeApplication, s.applyLimit)
	if err != nil {
		s.log.Warn("rate limiter unavailable", "error", err)
	} else if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, identity.UserID, ratelimiter.ScopeApplication)
		return nil, apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("please wait %d seconds before applying again", int(ttl.Seconds())),
			apperror.ErrRateLimitExceeded)
	}

	app := &entity.Application{
		UserID:        identity.UserID,
		CourseID:      courseID,
		PaymentMethod: req.PaymentMethod,
		Status:        policy.StatusPending,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	app.Course = course

	resp := toApplicationResponse(*app)
	resp.UserEmail = identity.Email
	resp.UserName = identity.DisplayName()
	return &resp, nil
}

func (s *enrollmentService) MyApplications(ctx context.Context, identity *policy.Identity) ([]dto.ApplicationResponse, error) {
	apps, _, err := s.repo.ListApplications(ctx, repository.ApplicationFilter{
		UserID: &identity.UserID,
		Page:   commonDto.PageQuery{Page: 1, Limit: commonDto.MaxLimit},
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	return out, nil
}

func (s *enrollmentService) ListApplications(ctx context.Context, filter dto.ApplicationFilter) (*commonDto.Paginated[dto.ApplicationResponse], error) {
	filter.PageQuery.Normalize()
	q := repository.ApplicationFilter{
		Status: policy.ApplicationStatus(filter.Status),
		Page:   filter.PageQuery,
	}
	if filter.CourseID != "" {
		id, err := uuid.Parse(filter.CourseID)
		if err != nil {
			return nil, fmt.Errorf("invalid course_id: %w", apperror.ErrBadRequest)
		}
		q.CourseID = &id
	}

	apps, total, err := s.repo.ListApplications(ctx, q)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		data = append(data, toApplicationResponse(app))
	}
	return &commonDto.Paginated[dto.ApplicationResponse]{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter.PageQuery, total),
	}, nil
}

// TransitionApplication is idempotent: the purchase row always ends up matching the action.
func (s *enrollmentService) TransitionApplication(ctx context.Context, applicationID uuid.UUID, action policy.Action) (policy.ApplicationStatus, error) {
	app, err := s.repo.TransitionApplication(ctx, applicationID, action.TargetStatus(), action.GrantsPurchase())
	if err != nil {
		return "", apperror.FromDB(err, "application")
	}

	s.log.Info("application transitioned", "application_id", app.ID, "action", string(action), "status", string(app.Status))

	notifType := entity.NotificationApplicationRejected
	verb := "rejected"
	if action.GrantsPurchase() {
		notifType = entity.NotificationApplicationApproved
		verb = "approved"
	}
	s.notify(ctx, app.UserID, app.CourseID, notifType, fmt.Sprintf("Your application for %s was %s.", s.courseTitle(ctx, app.CourseID), verb))

	return app.Status, nil
}

func (s *enrollmentService) DeleteApplication(ctx context.Context, applicationID uuid.UUID) error {
	app, err := s.repo.DeleteApplication(ctx, applicationID)
	if err != nil {
		return apperror.FromDB(err, "application")
	}
	s.log.Info("application deleted", "application_id", app.ID, "user_id", app.UserID, "course_id", app.CourseID)
	return nil
}

func (s *enrollmentService) GrantPurchase(ctx context.Context, courseID, userID uuid.UUID) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return apperror.FromDB(err, "course")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return apperror.FromDB(err, "user")
	}

	if err := s.repo.GrantPurchase(ctx, userID, courseID); err != nil {
		return err
	}
	s.notify(ctx, userID, courseID, entity.NotificationAccessGranted, fmt.Sprintf("You now have access to %s.", course.Title))
	return nil
}

func (s *enrollmentService) RevokePurchase(ctx context.Context, courseID, userID uuid.UUID) error {
	removed, err := s.repo.RevokePurchase(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("purchase not found: %w", apperror.ErrNotFound)
	}
	s.notify(ctx, userID, courseID, entity.NotificationAccessRevoked, fmt.Sprintf("Your access to %s was removed.", s.courseTitle(ctx, courseID)))
	return nil
}

func (s *enrollmentService) courseTitle(ctx context.Context, courseID uuid.UUID) string {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return "a course"
	}
	return course.Title
}

func (s *enrollmentService) notify(ctx context.Context, userID, courseID uuid.UUID, kind, message string) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:     userID,
		EntityID:   courseID,
		EntityType: "course",
		Type:       kind,
		Message:    message,
	})
	if err != nil {
		s.log.Warn("failed to create notification", "user_id", userID, "type", kind, "error", err)
	}
}

func toApplicationResponse(app entity.Application) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:            app.ID,
		CourseID:      app.CourseID,
		UserID:        app.UserID,
		PaymentMethod: app.PaymentMethod,
		Status:        app.Status,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.UpdatedAt,
	}
	if app.Course != nil {
		resp.CourseTitle = app.Course.Title
	}
	if app.User != nil {
		resp.UserName = app.User.FullName()
		resp.UserEmail = app.User.EmailOrEmpty()
	}
	return resp
}
