package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/category/dto"
	"anoa.com/learnhub/internal/modules/category/repository"
	"anoa.com/learnhub/pkg/apperror"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("category name is empty: %w", apperror.ErrInvalidInput)
	}

	_, err := s.repo.FindBySlug(ctx, slug)
	if err == nil {
		return nil, fmt.Errorf("category with name %s already exists: %w", name, apperror.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &entity.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, apperror.FromDB(err, "category")
	}

	return &dto.CategoryResponse{ID: category.ID, Name: category.Name, Slug: category.Slug}, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.FindAll(ctx, filter.Search)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		responses = append(responses, dto.CategoryResponse{
			ID:          cat.ID,
			Name:        cat.Name,
			Slug:        cat.Slug,
			CourseCount: cat.CourseCount,
		})
	}
	return responses, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, "category")
	}

	return s.repo.Delete(ctx, id)
}
