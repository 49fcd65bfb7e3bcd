package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/enrollment/dto"
	"anoa.com/learnhub/internal/modules/enrollment/repository"
	notifRepo "anoa.com/learnhub/internal/modules/notification/repository"
	notifService "anoa.com/learnhub/internal/modules/notification/service"
	userRepo "anoa.com/learnhub/internal/modules/user/repository"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/internal/testutil"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type courseLookup struct{ db *gorm.DB }

func (l courseLookup) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var c entity.Course
	if err := l.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

type fixture struct {
	db      *gorm.DB
	svc     EnrollmentService
	repo    repository.EnrollmentRepository
	owner   *entity.User
	student *entity.User
	course  *entity.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentRepository(db)
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil, logger.Nop())
	svc := NewEnrollmentService(repo, courseLookup{db}, userRepo.NewUserRepository(db), policy.NewClassifier(nil), notifications, Options{}, logger.Nop())

	owner := testutil.CreateUser(t, db, "teacher@example.com", policy.RoleTeacher)
	student := testutil.CreateUser(t, db, "student@example.com", policy.RoleStudent)
	course, _ := testutil.CreateCourse(t, db, owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})

	return &fixture{db: db, svc: svc, repo: repo, owner: owner, student: student, course: course}
}

func (f *fixture) purchaseCount(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&entity.Purchase{}).
		Where("user_id = ? AND course_id = ?", f.student.ID, f.course.ID).
		Count(&n).Error)
	return n
}

func (f *fixture) apply(t *testing.T) uuid.UUID {
	app, err := f.svc.Apply(context.Background(), testutil.IdentityOf(f.student), f.course.ID, dto.ApplyRequest{PaymentMethod: entity.PaymentCash})
	require.NoError(t, err)
	return app.ID
}

func TestEnrollTwiceYieldsOnePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := f.apply(t)

	status, err := f.svc.TransitionApplication(ctx, appID, policy.ActionEnroll)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusApproved, status)

	status, err = f.svc.TransitionApplication(ctx, appID, policy.ActionEnroll)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusApproved, status)

	assert.Equal(t, int64(1), f.purchaseCount(t))
}

func TestEnrollThenUnenrollRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := f.apply(t)

	_, err := f.svc.TransitionApplication(ctx, appID, policy.ActionEnroll)
	require.NoError(t, err)
	status, err := f.svc.TransitionApplication(ctx, appID, policy.ActionUnenroll)
	require.NoError(t, err)

	assert.Equal(t, policy.StatusRejected, status)
	assert.Zero(t, f.purchaseCount(t))

	stored, err := f.repo.FindApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, policy.StatusRejected, stored.Status)

	// rejected -> approved is allowed as well
	_, err = f.svc.TransitionApplication(ctx, appID, policy.ActionEnroll)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.purchaseCount(t))
}

func TestTransitionUnknownApplication(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.TransitionApplication(context.Background(), uuid.New(), policy.ActionEnroll)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTransitionNotifiesApplicant(t *testing.T) {
	f := newFixture(t)
	appID := f.apply(t)

	_, err := f.svc.TransitionApplication(context.Background(), appID, policy.ActionEnroll)
	require.NoError(t, err)

	var notes []entity.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.student.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationApplicationApproved, notes[0].Type)
	assert.Contains(t, notes[0].Message, f.course.Title)
}

func TestResolveEntitlementUsesLatestApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ent, err := f.svc.ResolveEntitlement(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Entitlement{}, ent)

	old := &entity.Application{UserID: f.student.ID, CourseID: f.course.ID, PaymentMethod: entity.PaymentCash, Status: policy.StatusRejected}
	require.NoError(t, f.repo.CreateApplication(ctx, old))
	require.NoError(t, f.db.Model(old).Update("created_at", time.Now().Add(-time.Hour)).Error)

	latest := &entity.Application{UserID: f.student.ID, CourseID: f.course.ID, PaymentMethod: entity.PaymentOther, Status: policy.StatusPending}
	require.NoError(t, f.repo.CreateApplication(ctx, latest))

	ent, err = f.svc.ResolveEntitlement(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, ent.HasPurchase)
	require.NotNil(t, ent.ApplicationStatus)
	assert.Equal(t, policy.StatusPending, *ent.ApplicationStatus)
}

func TestPurchaseWithoutApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.GrantPurchase(ctx, f.course.ID, f.student.ID))
	require.NoError(t, f.svc.GrantPurchase(ctx, f.course.ID, f.student.ID))

	ent, err := f.svc.ResolveEntitlement(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.True(t, ent.HasPurchase)
	assert.Nil(t, ent.ApplicationStatus)
	assert.Equal(t, int64(1), f.purchaseCount(t))

	require.NoError(t, f.svc.RevokePurchase(ctx, f.course.ID, f.student.ID))
	assert.ErrorIs(t, f.svc.RevokePurchase(ctx, f.course.ID, f.student.ID), apperror.ErrNotFound)

	assert.ErrorIs(t, f.svc.GrantPurchase(ctx, f.course.ID, uuid.New()), apperror.ErrNotFound)
}

func TestApplyConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := testutil.IdentityOf(f.student)

	f.apply(t)
	_, err := f.svc.Apply(ctx, student, f.course.ID, dto.ApplyRequest{PaymentMethod: entity.PaymentCash})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, f.svc.GrantPurchase(ctx, f.course.ID, f.student.ID))
	_, err = f.svc.Apply(ctx, student, f.course.ID, dto.ApplyRequest{PaymentMethod: entity.PaymentCash})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.svc.Apply(ctx, testutil.IdentityOf(f.owner), f.course.ID, dto.ApplyRequest{PaymentMethod: entity.PaymentCash})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestApplyToDraftCourseIsNotFound(t *testing.T) {
	f := newFixture(t)
	draft, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})

	_, err := f.svc.Apply(context.Background(), testutil.IdentityOf(f.student), draft.ID, dto.ApplyRequest{PaymentMethod: entity.PaymentCash})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteApplicationCascadesPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := f.apply(t)

	_, err := f.svc.TransitionApplication(ctx, appID, policy.ActionEnroll)
	require.NoError(t, err)
	require.Equal(t, int64(1), f.purchaseCount(t))

	require.NoError(t, f.svc.DeleteApplication(ctx, appID))
	assert.Zero(t, f.purchaseCount(t))
	assert.ErrorIs(t, f.svc.DeleteApplication(ctx, appID), apperror.ErrNotFound)
}

func TestListApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := f.apply(t)

	list, err := f.svc.ListApplications(ctx, dto.ApplicationFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, appID, list.Data[0].ID)
	assert.Equal(t, "student@example.com", list.Data[0].UserEmail)
	assert.Equal(t, f.course.Title, list.Data[0].CourseTitle)

	list, err = f.svc.ListApplications(ctx, dto.ApplicationFilter{Status: "approved"})
	require.NoError(t, err)
	assert.Empty(t, list.Data)

	mine, err := f.svc.MyApplications(ctx, testutil.IdentityOf(f.student))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
