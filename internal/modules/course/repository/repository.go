package repository

import (
	"context"
	"strings"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogFilter struct {
	CategoryID *uuid.UUID
	Search     string
	Page       dto.PageQuery
}

type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	Update(ctx context.Context, course *entity.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, publishedOnly bool) ([]entity.Course, error)
	FindCatalog(ctx context.Context, filter CatalogFilter) ([]entity.Course, int64, error)
	FindByOwner(ctx context.Context, ownerID *uuid.UUID) ([]entity.Course, error)
	FindChapters(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]entity.Chapter, error)
	CountPublishedChapters(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context, publishedOnly bool) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *entity.Course) error {
	return r.db.WithContext(ctx).Omit("User", "Category", "Chapters", "Attachments").Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *entity.Course) error {
	return r.db.WithContext(ctx).Omit("User", "Category", "Chapters", "Attachments").Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chapterIDs := tx.Model(&entity.Chapter{}).Select("id").Where("course_id = ?", id)
		for _, model := range []any{&entity.Material{}, &entity.Assignment{}, &entity.UserProgress{}} {
			if err := tx.Where("chapter_id IN (?)", chapterIDs).Delete(model).Error; err != nil {
				return err
			}
		}
		for _, model := range []any{&entity.Chapter{}, &entity.Attachment{}, &entity.Purchase{}, &entity.Application{}} {
			if err := tx.Where("course_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&entity.Course{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		First(&course, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, publishedOnly bool) ([]entity.Course, error) {
	var courses []entity.Course
	if len(ids) == 0 {
		return courses, nil
	}
	query := r.db.WithContext(ctx).Preload("User").Preload("Category").Where("id IN ?", ids)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Find(&courses).Error
	return courses, err
}

func (r *courseRepository) FindCatalog(ctx context.Context, filter CatalogFilter) ([]entity.Course, int64, error) {
	var (
		courses []entity.Course
		total   int64
	)

	query := r.db.WithContext(ctx).Model(&entity.Course{}).Where("is_published = ?", true)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := filter.Page.Normalize()
	err := query.
		Preload("User").
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Page.Limit).
		Find(&courses).Error
	return courses, total, err
}

// FindByOwner lists every course when ownerID is nil.
func (r *courseRepository) FindByOwner(ctx context.Context, ownerID *uuid.UUID) ([]entity.Course, error) {
	var courses []entity.Course
	query := r.db.WithContext(ctx).Preload("Category").Order("created_at DESC")
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}
	err := query.Find(&courses).Error
	return courses, err
}

func (r *courseRepository) FindChapters(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]entity.Chapter, error) {
	var chapters []entity.Chapter
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("position ASC").Find(&chapters).Error
	return chapters, err
}

func (r *courseRepository) CountPublishedChapters(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CourseID uuid.UUID
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Chapter{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ? AND is_published = ?", courseIDs, true).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CourseID] = row.Total
	}
	return out, nil
}

func (r *courseRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	res := r.db.WithContext(ctx).Model(&entity.Course{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *courseRepository) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Count(&count).Error
	return count, err
}
