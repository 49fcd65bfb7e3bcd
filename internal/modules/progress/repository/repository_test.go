package repository

import (
	"context"
	"testing"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertIsKeyedOnUserAndChapter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "t@example.com", "teacher")
	student := testutil.CreateUser(t, db, "s@example.com", "student")
	_, chapters := testutil.CreateCourse(t, db, owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})

	p, err := repo.Upsert(ctx, student.ID, chapters[0].ID, true)
	require.NoError(t, err)
	assert.True(t, p.IsCompleted)

	p, err = repo.Upsert(ctx, student.ID, chapters[0].ID, false)
	require.NoError(t, err)
	assert.False(t, p.IsCompleted)

	var count int64
	require.NoError(t, db.Model(&entity.UserProgress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	done, err := repo.IsCompleted(ctx, student.ID, chapters[0].ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCourseProgressCountsPublishedChaptersOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "t@example.com", "teacher")
	student := testutil.CreateUser(t, db, "s@example.com", "student")
	course, chapters := testutil.CreateCourse(t, db, owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 3, DraftChapters: 1})
	empty, _ := testutil.CreateCourse(t, db, owner.ID, testutil.CourseOpts{})

	_, err := repo.Upsert(ctx, student.ID, chapters[0].ID, true)
	require.NoError(t, err)
	// progress on a draft chapter does not count
	_, err = repo.Upsert(ctx, student.ID, chapters[3].ID, true)
	require.NoError(t, err)

	pct, err := repo.CourseProgress(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.33, pct)

	m, err := repo.CoursesProgress(ctx, student.ID, []uuid.UUID{course.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, 33.33, m[course.ID])
	assert.Equal(t, 0.0, m[empty.ID])
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 100.0, Percent(2, 2))
	assert.Equal(t, 66.67, Percent(2, 3))
}

func TestCompletedChapters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "t@example.com", "teacher")
	student := testutil.CreateUser(t, db, "s@example.com", "student")
	_, chapters := testutil.CreateCourse(t, db, owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 2})

	_, err := repo.Upsert(ctx, student.ID, chapters[1].ID, true)
	require.NoError(t, err)

	done, err := repo.CompletedChapters(ctx, student.ID, []uuid.UUID{chapters[0].ID, chapters[1].ID})
	require.NoError(t, err)
	assert.False(t, done[chapters[0].ID])
	assert.True(t, done[chapters[1].ID])
}
