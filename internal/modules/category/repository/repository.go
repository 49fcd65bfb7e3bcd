package repository

import (
	"context"
	"strings"

	"anoa.com/learnhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	FindAll(ctx context.Context, filter string) ([]CategoryWithCount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryWithCount carries the number of published courses in the category.
type CategoryWithCount struct {
	entity.Category
	CourseCount int64
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, filter string) ([]CategoryWithCount, error) {
	var categories []CategoryWithCount
	query := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*, COUNT(courses.id) AS course_count").
		Joins("LEFT JOIN courses ON courses.category_id = categories.id AND courses.is_published = ?", true).
		Group("categories.id").
		Order("categories.name asc")

	if filter != "" {
		query = query.Where("LOWER(categories.name) LIKE ?", "%"+strings.ToLower(filter)+"%")
	}

	if err := query.Scan(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Category{}, "id = ?", id).Error
}
