package repository

import (
	"context"

	"anoa.com/learnhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChapterRepository interface {
	Create(ctx context.Context, chapter *entity.Chapter) error
	Update(ctx context.Context, chapter *entity.Chapter) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Chapter, error)
	FindInCourse(ctx context.Context, courseID, chapterID uuid.UUID) (*entity.Chapter, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]entity.Chapter, error)
	FindNext(ctx context.Context, chapter *entity.Chapter, publishedOnly bool) (*entity.Chapter, error)
	CountContent(ctx context.Context, chapterID uuid.UUID) (materials, assignments int64, err error)
	Reorder(ctx context.Context, courseID uuid.UUID, orderedIDs []uuid.UUID) error
	Publish(ctx context.Context, id uuid.UUID) error
	Unpublish(ctx context.Context, chapter *entity.Chapter) (courseUnpublished bool, err error)
	Delete(ctx context.Context, chapter *entity.Chapter) (courseUnpublished bool, err error)

	FindMaterials(ctx context.Context, chapterID uuid.UUID) ([]entity.Material, error)
	CreateMaterial(ctx context.Context, material *entity.Material) error
	DeleteMaterial(ctx context.Context, chapterID, id uuid.UUID) (bool, error)
	FindAssignments(ctx context.Context, chapterID uuid.UUID) ([]entity.Assignment, error)
	CreateAssignment(ctx context.Context, assignment *entity.Assignment) error
	DeleteAssignment(ctx context.Context, chapterID, id uuid.UUID) (bool, error)
}

type chapterRepository struct {
	db *gorm.DB
}

func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

// Create appends the chapter after the current last position.
func (r *chapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&entity.Chapter{}).
			Where("course_id = ?", chapter.CourseID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		chapter.Position = last + 1
		return tx.Omit("Materials", "Assignments").Create(chapter).Error
	})
}

func (r *chapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	return r.db.WithContext(ctx).Omit("Materials", "Assignments").Save(chapter).Error
}

func (r *chapterRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Chapter, error) {
	var chapter entity.Chapter
	if err := r.db.WithContext(ctx).First(&chapter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *chapterRepository) FindInCourse(ctx context.Context, courseID, chapterID uuid.UUID) (*entity.Chapter, error) {
	var chapter entity.Chapter
	err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", chapterID, courseID).
		First(&chapter).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *chapterRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]entity.Chapter, error) {
	var chapters []entity.Chapter
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&chapters).Error
	return chapters, err
}

// FindNext returns nil without error when chapter is the last one.
func (r *chapterRepository) FindNext(ctx context.Context, chapter *entity.Chapter, publishedOnly bool) (*entity.Chapter, error) {
	var next []entity.Chapter
	query := r.db.WithContext(ctx).
		Where("course_id = ? AND position > ?", chapter.CourseID, chapter.Position)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Order("position ASC").Limit(1).Find(&next).Error; err != nil {
		return nil, err
	}
	if len(next) == 0 {
		return nil, nil
	}
	return &next[0], nil
}

func (r *chapterRepository) CountContent(ctx context.Context, chapterID uuid.UUID) (int64, int64, error) {
	var materials, assignments int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Material{}).Where("chapter_id = ?", chapterID).Count(&materials).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&entity.Assignment{}).Where("chapter_id = ?", chapterID).Count(&assignments).Error; err != nil {
		return 0, 0, err
	}
	return materials, assignments, nil
}

// Reorder assigns positions 1..n following orderedIDs. The caller validates
// that orderedIDs is a permutation of the course's chapters.
func (r *chapterRepository) Reorder(ctx context.Context, courseID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			res := tx.Model(&entity.Chapter{}).
				Where("id = ? AND course_id = ?", id, courseID).
				Update("position", i+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

func (r *chapterRepository) Publish(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&entity.Chapter{}).Where("id = ?", id).Update("is_published", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *chapterRepository) Unpublish(ctx context.Context, chapter *entity.Chapter) (bool, error) {
	var courseUnpublished bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Chapter{}).Where("id = ?", chapter.ID).Update("is_published", false).Error; err != nil {
			return err
		}
		var err error
		courseUnpublished, err = unpublishEmptyCourse(tx, chapter.CourseID)
		return err
	})
	return courseUnpublished, err
}

// Delete removes the chapter with its content and closes the gap in positions.
func (r *chapterRepository) Delete(ctx context.Context, chapter *entity.Chapter) (bool, error) {
	var courseUnpublished bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entity.Material{}, &entity.Assignment{}, &entity.UserProgress{}} {
			if err := tx.Where("chapter_id = ?", chapter.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&entity.Chapter{}, "id = ?", chapter.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Model(&entity.Chapter{}).
			Where("course_id = ? AND position > ?", chapter.CourseID, chapter.Position).
			Update("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}

		var err error
		courseUnpublished, err = unpublishEmptyCourse(tx, chapter.CourseID)
		return err
	})
	return courseUnpublished, err
}

// unpublishEmptyCourse takes the course off the catalog once it has no published chapters left.
func unpublishEmptyCourse(tx *gorm.DB, courseID uuid.UUID) (bool, error) {
	var published int64
	if err := tx.Model(&entity.Chapter{}).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Count(&published).Error; err != nil {
		return false, err
	}
	if published > 0 {
		return false, nil
	}

	res := tx.Model(&entity.Course{}).
		Where("id = ? AND is_published = ?", courseID, true).
		Update("is_published", false)
	return res.RowsAffected > 0, res.Error
}

func (r *chapterRepository) FindMaterials(ctx context.Context, chapterID uuid.UUID) ([]entity.Material, error) {
	var materials []entity.Material
	err := r.db.WithContext(ctx).Where("chapter_id = ?", chapterID).Order("created_at ASC").Find(&materials).Error
	return materials, err
}

func (r *chapterRepository) CreateMaterial(ctx context.Context, material *entity.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *chapterRepository) DeleteMaterial(ctx context.Context, chapterID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND chapter_id = ?", id, chapterID).Delete(&entity.Material{})
	return res.RowsAffected > 0, res.Error
}

func (r *chapterRepository) FindAssignments(ctx context.Context, chapterID uuid.UUID) ([]entity.Assignment, error) {
	var assignments []entity.Assignment
	err := r.db.WithContext(ctx).Where("chapter_id = ?", chapterID).Order("created_at ASC").Find(&assignments).Error
	return assignments, err
}

func (r *chapterRepository) CreateAssignment(ctx context.Context, assignment *entity.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *chapterRepository) DeleteAssignment(ctx context.Context, chapterID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND chapter_id = ?", id, chapterID).Delete(&entity.Assignment{})
	return res.RowsAffected > 0, res.Error
}
