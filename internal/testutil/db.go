package testutil

import (
	"fmt"
	"testing"

	"anoa.com/learnhub/internal/bootstrap"
	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQLite(dsn, false)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email, role string) *entity.User {
	t.Helper()

	ext := "ext_" + uuid.NewString()
	user := &entity.User{ExternalID: &ext, Role: role, FirstName: "Test", LastName: role}
	if email != "" {
		user.Email = &email
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// IdentityOf builds the identity the middleware would attach for user.
func IdentityOf(user *entity.User) *policy.Identity {
	id := &policy.Identity{
		UserID:    user.ID,
		Email:     user.EmailOrEmpty(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
	if user.ExternalID != nil {
		id.ExternalID = *user.ExternalID
	}
	return id
}

// CourseOpts describes a course fixture. Published chapters are created first.
type CourseOpts struct {
	Published         bool
	PublishedChapters int
	DraftChapters     int
	FreeFirstChapter  bool
	Price             *float64
}

func CreateCourse(t *testing.T, db *gorm.DB, owner uuid.UUID, opts CourseOpts) (*entity.Course, []entity.Chapter) {
	t.Helper()

	course := &entity.Course{
		UserID:      owner,
		Title:       "Course " + uuid.NewString()[:8],
		Description: "A course",
		ImageURL:    "https://cdn.example.com/cover.webp",
		Price:       opts.Price,
		IsPublished: opts.Published,
	}
	require.NoError(t, db.Create(course).Error)

	var chapters []entity.Chapter
	total := opts.PublishedChapters + opts.DraftChapters
	for i := 0; i < total; i++ {
		ch := entity.Chapter{
			CourseID:    course.ID,
			Title:       fmt.Sprintf("Chapter %d", i+1),
			Description: "Chapter body",
			VideoURL:    fmt.Sprintf("https://video.example.com/%d", i+1),
			Position:    i + 1,
			IsPublished: i < opts.PublishedChapters,
			IsFree:      i == 0 && opts.FreeFirstChapter,
		}
		require.NoError(t, db.Create(&ch).Error)
		chapters = append(chapters, ch)
	}
	return course, chapters
}
