package repository

import (
	"context"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationFilter struct {
	Status   policy.ApplicationStatus
	CourseID *uuid.UUID
	UserID   *uuid.UUID
	Page     dto.PageQuery
}

type EnrollmentRepository interface {
	HasPurchase(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	PurchasedCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountPurchasesByCourse(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	GrantPurchase(ctx context.Context, userID, courseID uuid.UUID) error
	RevokePurchase(ctx context.Context, userID, courseID uuid.UUID) (bool, error)

	CreateApplication(ctx context.Context, app *entity.Application) error
	FindApplication(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	LatestApplication(ctx context.Context, userID, courseID uuid.UUID) (*entity.Application, error)
	HasPendingApplication(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]entity.Application, int64, error)
	CountApplicationsByStatus(ctx context.Context, status policy.ApplicationStatus) (int64, error)

	// TransitionApplication sets the status and re-derives the purchase row in one transaction.
	TransitionApplication(ctx context.Context, id uuid.UUID, status policy.ApplicationStatus, grant bool) (*entity.Application, error)
	// DeleteApplication removes the application and the matching purchase in one transaction.
	DeleteApplication(ctx context.Context, id uuid.UUID) (*entity.Application, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) HasPurchase(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) PurchasedCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.Purchase{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Pluck("course_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) CountPurchasesByCourse(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CourseID uuid.UUID
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Purchase{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}

func upsertPurchase(tx *gorm.DB, userID, courseID uuid.UUID) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&entity.Purchase{UserID: userID, CourseID: courseID}).Error
}

func deletePurchase(tx *gorm.DB, userID, courseID uuid.UUID) (int64, error) {
	result := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&entity.Purchase{})
	return result.RowsAffected, result.Error
}

func (r *enrollmentRepository) GrantPurchase(ctx context.Context, userID, courseID uuid.UUID) error {
	return upsertPurchase(r.db.WithContext(ctx), userID, courseID)
}

func (r *enrollmentRepository) RevokePurchase(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	n, err := deletePurchase(r.db.WithContext(ctx), userID, courseID)
	return n > 0, err
}

func (r *enrollmentRepository) CreateApplication(ctx context.Context, app *entity.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *enrollmentRepository) FindApplication(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).Preload("Course").First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// LatestApplication orders by creation time, with the time-ordered id breaking ties.
func (r *enrollmentRepository) LatestApplication(ctx context.Context, userID, courseID uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at desc").
		Order("id desc").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *enrollmentRepository) HasPendingApplication(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Application{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, policy.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) ListApplications(ctx context.Context, filter ApplicationFilter) ([]entity.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Application{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	offset := page.Normalize()

	var apps []entity.Application
	err := query.
		Preload("User").
		Preload("Course").
		Order("created_at desc").
		Limit(page.Limit).
		Offset(offset).
		Find(&apps).Error
	return apps, total, err
}

func (r *enrollmentRepository) CountApplicationsByStatus(ctx context.Context, status policy.ApplicationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Application{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *enrollmentRepository) TransitionApplication(ctx context.Context, id uuid.UUID, status policy.ApplicationStatus, grant bool) (*entity.Application, error) {
	var app entity.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&app).Update("status", status).Error; err != nil {
			return err
		}
		app.Status = status

		if grant {
			return upsertPurchase(tx, app.UserID, app.CourseID)
		}
		_, err := deletePurchase(tx, app.UserID, app.CourseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *enrollmentRepository) DeleteApplication(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return err
		}
		if _, err := deletePurchase(tx, app.UserID, app.CourseID); err != nil {
			return err
		}
		return tx.Delete(&entity.Application{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}
