package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"anoa.com/learnhub/internal/entity"
	attachmentRepo "anoa.com/learnhub/internal/modules/attachment/repository"
	"anoa.com/learnhub/internal/modules/course/dto"
	"anoa.com/learnhub/internal/modules/course/repository"
	enrollmentRepo "anoa.com/learnhub/internal/modules/enrollment/repository"
	enrollmentService "anoa.com/learnhub/internal/modules/enrollment/service"
	progressRepo "anoa.com/learnhub/internal/modules/progress/repository"
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

type recordingIndex struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]bool
	enabled bool
	hits    []uuid.UUID
	err     error
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{indexed: map[uuid.UUID]bool{}}
}

func (r *recordingIndex) IndexCourse(_ context.Context, course *entity.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed[course.ID] = course.IsPublished
	return nil
}

func (r *recordingIndex) RemoveCourse(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexed, id)
	return nil
}

func (r *recordingIndex) SearchCourses(context.Context, string, *uuid.UUID, int) ([]uuid.UUID, error) {
	return r.hits, r.err
}

func (r *recordingIndex) Enabled() bool { return r.enabled }

type memoryStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memoryStorage) Upload(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://res.cloudinary.com/demo/image/upload/v1/learnhub/" + folder + "/" + fileName, nil
}

func (m *memoryStorage) Delete(_ context.Context, fileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fileURL)
	return nil
}

type fixture struct {
	db         *gorm.DB
	svc        CourseService
	purchases  enrollmentRepo.EnrollmentRepository
	index      *recordingIndex
	storage    *memoryStorage
	owner      *entity.User
	teacher    *entity.User
	student    *entity.User
	admin      *entity.User
	categoryID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	courses := repository.NewCourseRepository(db)
	purchases := enrollmentRepo.NewEnrollmentRepository(db)
	classifier := policy.NewClassifier([]string{"root@example.com"})
	entitlements := enrollmentService.NewEnrollmentService(purchases, courses, userRepo.NewUserRepository(db), classifier, nil, enrollmentService.Options{}, logger.Nop())

	index := newRecordingIndex()
	files := &memoryStorage{}
	svc := NewCourseService(
		courses,
		attachmentRepo.NewAttachmentRepository(db),
		progressRepo.NewProgressRepository(db),
		purchases,
		NewGuard(classifier, entitlements),
		index,
		files,
		logger.Nop(),
	)

	category := &entity.Category{Name: "Programming", Slug: "programming"}
	require.NoError(t, db.Create(category).Error)

	return &fixture{
		db:         db,
		svc:        svc,
		purchases:  purchases,
		index:      index,
		storage:    files,
		owner:      testutil.CreateUser(t, db, "owner@example.com", policy.RoleTeacher),
		teacher:    testutil.CreateUser(t, db, "other@example.com", policy.RoleTeacher),
		student:    testutil.CreateUser(t, db, "student@example.com", policy.RoleStudent),
		admin:      testutil.CreateUser(t, db, "root@example.com", policy.RoleUser),
		categoryID: category.ID,
	}
}

func price(v float64) *float64 { return &v }

func TestGetCourseUnpublishedWithoutPurchaseIsNotFound(t *testing.T) {
	f := newFixture(t)
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{PublishedChapters: 1})

	for _, caller := range []*policy.Identity{nil, testutil.IdentityOf(f.student), testutil.IdentityOf(f.teacher)} {
		_, err := f.svc.GetCourse(context.Background(), caller, course.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	}
}

func TestGetCourseUnpublishedWithPurchaseIsPlaceholder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{PublishedChapters: 2})
	require.NoError(t, f.purchases.GrantPurchase(ctx, f.student.ID, course.ID))

	got, err := f.svc.GetCourse(ctx, testutil.IdentityOf(f.student), course.ID)
	require.NoError(t, err)

	assert.Equal(t, policy.AccessPlaceholder, got.Access)
	assert.True(t, got.PendingRepublish)
	assert.Empty(t, got.Chapters)
	assert.Empty(t, got.Attachments)
	require.NotNil(t, got.Author)
	assert.Equal(t, f.owner.ID.String(), got.Author.ID)
}

func TestGetCourseBypassSeesDraftChapters(t *testing.T) {
	f := newFixture(t)
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{PublishedChapters: 1, DraftChapters: 2})

	for _, caller := range []*entity.User{f.owner, f.admin} {
		got, err := f.svc.GetCourse(context.Background(), testutil.IdentityOf(caller), course.ID)
		require.NoError(t, err)
		assert.Equal(t, policy.AccessFull, got.Access)
		assert.Len(t, got.Chapters, 3)
		assert.Equal(t, int64(1), got.PublishedChapters)
		assert.NotNil(t, got.Attachments)
	}
}

func TestGetCoursePublishedFiltersDraftChapters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, chapters := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 2, DraftChapters: 1})
	require.NoError(t, f.db.Create(&entity.Attachment{CourseID: course.ID, UserID: f.owner.ID, Name: "slides.pdf", FileURL: "https://files.example.com/slides.pdf"}).Error)

	got, err := f.svc.GetCourse(ctx, testutil.IdentityOf(f.teacher), course.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.AccessFull, got.Access)
	assert.Len(t, got.Chapters, 2)
	assert.Nil(t, got.Attachments)
	assert.Nil(t, got.Progress)

	require.NoError(t, f.purchases.GrantPurchase(ctx, f.student.ID, course.ID))
	require.NoError(t, f.db.Create(&entity.UserProgress{UserID: f.student.ID, ChapterID: chapters[0].ID, IsCompleted: true}).Error)

	got, err = f.svc.GetCourse(ctx, testutil.IdentityOf(f.student), course.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attachments, 1)
	assert.True(t, got.Entitlement.HasPurchase)
	assert.True(t, got.Chapters[0].IsCompleted)
	require.NotNil(t, got.Progress)
	assert.Equal(t, 50.0, *got.Progress)
}

func TestPublishCourseRequiresCompleteness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.IdentityOf(f.owner)
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{DraftChapters: 1})

	_, err := f.svc.PublishCourse(ctx, owner, course.ID)
	var vErr *apperror.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{policy.FieldPrice, policy.FieldCategoryID, policy.FieldPublishedChapter}, vErr.Missing)
	assert.Equal(t, 422, apperror.MapErrorToStatus(err))

	categoryID := f.categoryID.String()
	_, err = f.svc.UpdateCourse(ctx, owner, course.ID, dto.UpdateCourseRequest{Price: price(0), CategoryID: &categoryID})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&entity.Chapter{}).Where("course_id = ?", course.ID).Update("is_published", true).Error)

	completeness, err := f.svc.Completeness(ctx, owner, course.ID)
	require.NoError(t, err)
	assert.True(t, completeness.Eligible)

	got, err := f.svc.PublishCourse(ctx, owner, course.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	assert.True(t, f.index.indexed[course.ID])

	got, err = f.svc.UnpublishCourse(ctx, owner, course.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.NotContains(t, f.index.indexed, course.ID)
}

func TestManageCourseAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})
	live, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})
	title := "Renamed"
	req := dto.UpdateCourseRequest{Title: &title}

	_, err := f.svc.UpdateCourse(ctx, testutil.IdentityOf(f.teacher), draft.ID, req)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.UpdateCourse(ctx, testutil.IdentityOf(f.teacher), live.ID, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.UpdateCourse(ctx, nil, live.ID, req)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	got, err := f.svc.UpdateCourse(ctx, testutil.IdentityOf(f.admin), draft.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestCreateCourseRequiresAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCourse(ctx, testutil.IdentityOf(f.student), dto.CreateCourseRequest{Title: "Go"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := f.svc.CreateCourse(ctx, testutil.IdentityOf(f.teacher), dto.CreateCourseRequest{Title: "  Go  "})
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)
	assert.False(t, got.IsPublished)
	require.NotNil(t, got.Author)
	assert.Equal(t, f.teacher.ID.String(), got.Author.ID)
}

func TestUpdateCourseUnknownCategory(t *testing.T) {
	f := newFixture(t)
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})
	missing := uuid.NewString()

	_, err := f.svc.UpdateCourse(context.Background(), testutil.IdentityOf(f.owner), course.ID, dto.UpdateCourseRequest{CategoryID: &missing})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListCatalogOnlyPublishedWithProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	live, chapters := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 4})
	other, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})
	testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{PublishedChapters: 1})

	require.NoError(t, f.purchases.GrantPurchase(ctx, f.student.ID, live.ID))
	require.NoError(t, f.db.Create(&entity.UserProgress{UserID: f.student.ID, ChapterID: chapters[0].ID, IsCompleted: true}).Error)

	page, err := f.svc.ListCatalog(ctx, testutil.IdentityOf(f.student), dto.CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Equal(t, 1, page.Meta.CurrentPage)
	require.Len(t, page.Data, 2)

	byID := map[uuid.UUID]dto.CourseResponse{}
	for _, c := range page.Data {
		byID[c.ID] = c
	}
	require.NotNil(t, byID[live.ID].Progress)
	assert.Equal(t, 25.0, *byID[live.ID].Progress)
	assert.Nil(t, byID[other.ID].Progress)
	assert.Equal(t, int64(4), byID[live.ID].PublishedChapters)

	anon, err := f.svc.ListCatalog(ctx, nil, dto.CatalogFilter{Search: strings.ToUpper(live.Title[len(live.Title)-4:])})
	require.NoError(t, err)
	require.Len(t, anon.Data, 1)
	assert.Equal(t, live.ID, anon.Data[0].ID)
}

func TestSearchCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	live, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})
	draft, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})

	t.Run("database fallback", func(t *testing.T) {
		got, err := f.svc.SearchCourses(ctx, dto.SearchQuery{Query: live.Title})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, live.ID, got[0].ID)
	})

	t.Run("index hits are re-checked against publish state", func(t *testing.T) {
		f.index.enabled = true
		f.index.hits = []uuid.UUID{draft.ID, live.ID}
		defer func() { f.index.enabled = false }()

		got, err := f.svc.SearchCourses(ctx, dto.SearchQuery{Query: "course"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, live.ID, got[0].ID)
	})

	t.Run("index error falls back", func(t *testing.T) {
		f.index.enabled = true
		f.index.err = errors.New("meilisearch down")
		defer func() { f.index.enabled, f.index.err = false, nil }()

		got, err := f.svc.SearchCourses(ctx, dto.SearchQuery{Query: live.Title})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestTeacherCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})
	testutil.CreateCourse(t, f.db, f.teacher.ID, testutil.CourseOpts{})

	mine, err := f.svc.TeacherCourses(ctx, testutil.IdentityOf(f.owner))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.TeacherCourses(ctx, testutil.IdentityOf(f.admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.TeacherCourses(ctx, testutil.IdentityOf(f.student))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDeleteCourseCleansUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 2})
	hosted := "https://res.cloudinary.com/demo/raw/upload/v1/learnhub/attachments/notes.pdf"
	require.NoError(t, f.db.Create(&entity.Attachment{CourseID: course.ID, UserID: f.owner.ID, Name: "notes.pdf", FileURL: hosted}).Error)
	require.NoError(t, f.purchases.GrantPurchase(ctx, f.student.ID, course.ID))
	f.index.indexed[course.ID] = true

	_, err := f.svc.UploadImage(ctx, testutil.IdentityOf(f.owner), course.ID, strings.NewReader("png"), "cover.png")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCourse(ctx, testutil.IdentityOf(f.owner), course.ID))

	assert.Contains(t, f.storage.deleted, hosted)
	assert.Contains(t, f.storage.deleted, "https://res.cloudinary.com/demo/image/upload/v1/learnhub/courses/cover.png")
	assert.NotContains(t, f.index.indexed, course.ID)

	for _, model := range []any{&entity.Course{}, &entity.Chapter{}, &entity.Attachment{}, &entity.Purchase{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	_, err = f.svc.GetCourse(ctx, testutil.IdentityOf(f.owner), course.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSyncSearchIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	live, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{Published: true, PublishedChapters: 1})
	draft, _ := testutil.CreateCourse(t, f.db, f.owner.ID, testutil.CourseOpts{})

	n, err := f.svc.SyncSearchIndex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.index.indexed)

	f.index.enabled = true
	f.index.indexed[draft.ID] = true

	n, err = f.svc.SyncSearchIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.index.indexed[live.ID])
	assert.NotContains(t, f.index.indexed, draft.ID)
}
