package repository

import (
	"context"
	"math"

	"anoa.com/learnhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	Upsert(ctx context.Context, userID, chapterID uuid.UUID, completed bool) (*entity.UserProgress, error)
	IsCompleted(ctx context.Context, userID, chapterID uuid.UUID) (bool, error)
	CompletedChapters(ctx context.Context, userID uuid.UUID, chapterIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (float64, error)
	CoursesProgress(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Upsert(ctx context.Context, userID, chapterID uuid.UUID, completed bool) (*entity.UserProgress, error) {
	progress := &entity.UserProgress{UserID: userID, ChapterID: chapterID, IsCompleted: completed}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "chapter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		return nil, err
	}

	var stored entity.UserProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND chapter_id = ?", userID, chapterID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *progressRepository) IsCompleted(ctx context.Context, userID, chapterID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.UserProgress{}).
		Where("user_id = ? AND chapter_id = ? AND is_completed = ?", userID, chapterID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *progressRepository) CompletedChapters(ctx context.Context, userID uuid.UUID, chapterIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(chapterIDs))
	if len(chapterIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.UserProgress{}).
		Where("user_id = ? AND chapter_id IN ? AND is_completed = ?", userID, chapterIDs, true).
		Pluck("chapter_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *progressRepository) CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (float64, error) {
	m, err := r.CoursesProgress(ctx, userID, []uuid.UUID{courseID})
	if err != nil {
		return 0, err
	}
	return m[courseID], nil
}

// CoursesProgress returns completed published chapters over published chapters, as a percentage.
// Courses without published chapters report 0.
func (r *progressRepository) CoursesProgress(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CourseID  uuid.UUID
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).
		Table("chapters").
		Select("chapters.course_id AS course_id, COUNT(chapters.id) AS total, "+
			"COUNT(user_progresses.id) AS completed").
		Joins("LEFT JOIN user_progresses ON user_progresses.chapter_id = chapters.id "+
			"AND user_progresses.user_id = ? AND user_progresses.is_completed = ?", userID, true).
		Where("chapters.course_id IN ? AND chapters.is_published = ?", courseIDs, true).
		Group("chapters.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range courseIDs {
		out[id] = 0
	}
	for _, row := range rows {
		if row.Total > 0 {
			out[row.CourseID] = Percent(row.Completed, row.Total)
		}
	}
	return out, nil
}

func Percent(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
