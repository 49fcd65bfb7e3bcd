package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"anoa.com/learnhub/internal/entity"
	attachmentDto "anoa.com/learnhub/internal/modules/attachment/dto"
	attachmentRepo "anoa.com/learnhub/internal/modules/attachment/repository"
	"anoa.com/learnhub/internal/modules/course/dto"
	"anoa.com/learnhub/internal/modules/course/repository"
	progressRepo "anoa.com/learnhub/internal/modules/progress/repository"
	searchService "anoa.com/learnhub/internal/modules/search/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	commonDto "anoa.com/learnhub/pkg/dto"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/storage"
	"github.com/google/uuid"
)

const imageFolder = "courses"

type PurchaseLookup interface {
	PurchasedCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type CourseService interface {
	CreateCourse(ctx context.Context, identity *policy.Identity, req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) error
	GetCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseDetailResponse, error)
	Completeness(ctx context.Context, identity *policy.Identity, id uuid.UUID) (policy.Completeness, error)
	PublishCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseResponse, error)
	UnpublishCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseResponse, error)
	ListCatalog(ctx context.Context, identity *policy.Identity, filter dto.CatalogFilter) (*commonDto.Paginated[dto.CourseResponse], error)
	SearchCourses(ctx context.Context, query dto.SearchQuery) ([]dto.CourseResponse, error)
	TeacherCourses(ctx context.Context, identity *policy.Identity) ([]dto.CourseResponse, error)
	UploadImage(ctx context.Context, identity *policy.Identity, id uuid.UUID, file io.Reader, fileName string) (*dto.CourseResponse, error)
	SyncSearchIndex(ctx context.Context) (int, error)
}

type courseService struct {
	repo        repository.CourseRepository
	attachments attachmentRepo.AttachmentRepository
	progress    progressRepo.ProgressRepository
	purchases   PurchaseLookup
	guard       *Guard
	index       searchService.CourseIndex
	storage     storage.FileStorage
	log         *logger.Logger
}

func NewCourseService(
	repo repository.CourseRepository,
	attachments attachmentRepo.AttachmentRepository,
	progress progressRepo.ProgressRepository,
	purchases PurchaseLookup,
	guard *Guard,
	index searchService.CourseIndex,
	fileStorage storage.FileStorage,
	log *logger.Logger,
) CourseService {
	return &courseService{
		repo:        repo,
		attachments: attachments,
		progress:    progress,
		purchases:   purchases,
		guard:       guard,
		index:       index,
		storage:     fileStorage,
		log:         log,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, identity *policy.Identity, req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}
	if !s.guard.Classifier().Classify(identity, nil).CanAuthor() {
		return nil, apperror.New(http.StatusForbidden, "only teachers can create courses", apperror.ErrForbidden)
	}

	course := &entity.Course{
		UserID: identity.UserID,
		Title:  strings.TrimSpace(req.Title),
	}
	if course.Title == "" {
		return nil, apperror.New(http.StatusBadRequest, "title is required", apperror.ErrInvalidInput)
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.log.Info("course created", "course_id", course.ID, "user_id", identity.UserID)
	return s.reload(ctx, course.ID)
}

func (s *courseService) UpdateCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.New(http.StatusBadRequest, "title cannot be empty", apperror.ErrInvalidInput)
		}
		course.Title = title
	}
	if req.Description != nil {
		course.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageURL != nil {
		course.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Price != nil {
		price := *req.Price
		course.Price = &price
	}
	if req.DeliveryMode != nil {
		mode := *req.DeliveryMode
		course.DeliveryMode = &mode
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, apperror.New(http.StatusBadRequest, "invalid category_id", apperror.ErrBadRequest)
		}
		exists, err := s.repo.CategoryExists(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("category not found: %w", apperror.ErrNotFound)
		}
		course.CategoryID = &categoryID
		course.Category = nil
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, err
	}

	resp, err := s.reload(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if course.IsPublished {
		s.reindex(ctx, course.ID)
	}
	return resp, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) error {
	course, err := s.load(ctx, identity, id)
	if err != nil {
		return err
	}

	attachments, err := s.attachments.FindByCourse(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err, "course")
	}

	for _, a := range attachments {
		s.deleteFile(ctx, a.FileURL)
	}
	s.deleteFile(ctx, course.ImageURL)

	if err := s.index.RemoveCourse(ctx, id); err != nil {
		s.log.Warn("failed to remove course from index", "course_id", id, "error", err)
	}

	s.log.Info("course deleted", "course_id", id, "user_id", identity.UserID)
	return nil
}

// GetCourse fetches the course without publish filtering, gates it, and only
// then loads chapters with the filter the caller's capabilities call for.
func (s *courseService) GetCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseDetailResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "course")
	}

	caps, ent, err := s.guard.Inspect(ctx, identity, course)
	if err != nil {
		return nil, err
	}

	access := policy.Gate(policy.CourseResource(course.IsPublished), caps, ent)
	if access == policy.AccessDenied {
		return nil, fmt.Errorf("course not found: %w", apperror.ErrNotFound)
	}

	resp := &dto.CourseDetailResponse{
		Access:       access,
		Capabilities: caps,
		Entitlement:  ent,
	}

	if access == policy.AccessPlaceholder {
		resp.CourseResponse = ToCourseResponse(course, 0)
		resp.PendingRepublish = true
		return resp, nil
	}

	chapters, err := s.repo.FindChapters(ctx, id, policy.PublishedOnly(caps))
	if err != nil {
		return nil, err
	}

	var published int64
	chapterIDs := make([]uuid.UUID, 0, len(chapters))
	for _, ch := range chapters {
		if ch.IsPublished {
			published++
		}
		chapterIDs = append(chapterIDs, ch.ID)
	}
	resp.CourseResponse = ToCourseResponse(course, published)

	completed := map[uuid.UUID]bool{}
	if identity != nil {
		if completed, err = s.progress.CompletedChapters(ctx, identity.UserID, chapterIDs); err != nil {
			return nil, err
		}
	}

	resp.Chapters = make([]dto.ChapterSummary, 0, len(chapters))
	for _, ch := range chapters {
		resp.Chapters = append(resp.Chapters, dto.ChapterSummary{
			ID:          ch.ID,
			Title:       ch.Title,
			Position:    ch.Position,
			IsPublished: ch.IsPublished,
			IsFree:      ch.IsFree,
			IsCompleted: completed[ch.ID],
		})
	}

	if caps.CanBypass() || ent.HasPurchase {
		attachments, err := s.attachments.FindByCourse(ctx, id)
		if err != nil {
			return nil, err
		}
		resp.Attachments = make([]attachmentDto.AttachmentResponse, 0, len(attachments))
		for _, a := range attachments {
			resp.Attachments = append(resp.Attachments, ToAttachmentResponse(a))
		}
	}

	if identity != nil && ent.HasPurchase {
		pct, err := s.progress.CourseProgress(ctx, identity.UserID, id)
		if err != nil {
			return nil, err
		}
		resp.Progress = &pct
	}

	return resp, nil
}

func (s *courseService) Completeness(ctx context.Context, identity *policy.Identity, id uuid.UUID) (policy.Completeness, error) {
	course, err := s.load(ctx, identity, id)
	if err != nil {
		return policy.Completeness{}, err
	}
	return s.evaluate(ctx, course)
}

func (s *courseService) PublishCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, course)
	if err != nil {
		return nil, err
	}
	if !result.Eligible {
		return nil, apperror.NewValidation("course is not ready to be published", result.Missing)
	}

	if err := s.repo.SetPublished(ctx, id, true); err != nil {
		return nil, apperror.FromDB(err, "course")
	}
	s.log.Info("course published", "course_id", id, "user_id", identity.UserID)

	resp, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, id)
	return resp, nil
}

func (s *courseService) UnpublishCourse(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*dto.CourseResponse, error) {
	if _, err := s.load(ctx, identity, id); err != nil {
		return nil, err
	}

	if err := s.repo.SetPublished(ctx, id, false); err != nil {
		return nil, apperror.FromDB(err, "course")
	}
	s.log.Info("course unpublished", "course_id", id, "user_id", identity.UserID)

	if err := s.index.RemoveCourse(ctx, id); err != nil {
		s.log.Warn("failed to remove course from index", "course_id", id, "error", err)
	}
	return s.reload(ctx, id)
}

func (s *courseService) ListCatalog(ctx context.Context, identity *policy.Identity, filter dto.CatalogFilter) (*commonDto.Paginated[dto.CourseResponse], error) {
	filter.PageQuery.Normalize()
	q := repository.CatalogFilter{Search: filter.Search, Page: filter.PageQuery}
	if filter.CategoryID != "" {
		id, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, apperror.New(http.StatusBadRequest, "invalid category_id", apperror.ErrBadRequest)
		}
		q.CategoryID = &id
	}

	courses, total, err := s.repo.FindCatalog(ctx, q)
	if err != nil {
		return nil, err
	}

	data, err := s.toResponses(ctx, identity, courses)
	if err != nil {
		return nil, err
	}
	return &commonDto.Paginated[dto.CourseResponse]{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter.PageQuery, total),
	}, nil
}

// SearchCourses queries the index and falls back to a title match when the index is unavailable.
func (s *courseService) SearchCourses(ctx context.Context, query dto.SearchQuery) ([]dto.CourseResponse, error) {
	limit := query.Limit
	if limit <= 0 || limit > commonDto.MaxLimit {
		limit = commonDto.DefaultLimit
	}

	var categoryID *uuid.UUID
	if query.CategoryID != "" {
		id, err := uuid.Parse(query.CategoryID)
		if err != nil {
			return nil, apperror.New(http.StatusBadRequest, "invalid category_id", apperror.ErrBadRequest)
		}
		categoryID = &id
	}

	if s.index.Enabled() {
		ids, err := s.index.SearchCourses(ctx, query.Query, categoryID, limit)
		if err == nil {
			courses, err := s.repo.FindByIDs(ctx, ids, true)
			if err != nil {
				return nil, err
			}
			return s.toResponses(ctx, nil, orderByIDs(courses, ids))
		}
		s.log.Warn("course search index unavailable, falling back to database", "error", err)
	}

	courses, _, err := s.repo.FindCatalog(ctx, repository.CatalogFilter{
		CategoryID: categoryID,
		Search:     query.Query,
		Page:       commonDto.PageQuery{Page: 1, Limit: limit},
	})
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, nil, courses)
}

func (s *courseService) TeacherCourses(ctx context.Context, identity *policy.Identity) ([]dto.CourseResponse, error) {
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}
	caps := s.guard.Classifier().Classify(identity, nil)
	if !caps.CanAuthor() {
		return nil, apperror.New(http.StatusForbidden, "only teachers can list authored courses", apperror.ErrForbidden)
	}

	owner := &identity.UserID
	if caps.IsAdmin {
		owner = nil
	}
	courses, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, nil, courses)
}

func (s *courseService) UploadImage(ctx context.Context, identity *policy.Identity, id uuid.UUID, file io.Reader, fileName string) (*dto.CourseResponse, error) {
	if s.storage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "file storage is not configured", apperror.ErrInternal)
	}

	course, err := s.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.Upload(ctx, file, imageFolder, fileName)
	if err != nil {
		return nil, fmt.Errorf("upload course image: %w", err)
	}

	previous := course.ImageURL
	course.ImageURL = url
	if err := s.repo.Update(ctx, course); err != nil {
		s.deleteFile(ctx, url)
		return nil, err
	}
	s.deleteFile(ctx, previous)

	if course.IsPublished {
		s.reindex(ctx, id)
	}
	return s.reload(ctx, id)
}

// load fetches the course and requires the caller to manage it.
func (s *courseService) load(ctx context.Context, identity *policy.Identity, id uuid.UUID) (*entity.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "course")
	}
	if _, err := s.guard.Authorize(ctx, identity, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) evaluate(ctx context.Context, course *entity.Course) (policy.Completeness, error) {
	counts, err := s.repo.CountPublishedChapters(ctx, []uuid.UUID{course.ID})
	if err != nil {
		return policy.Completeness{}, err
	}
	return policy.EvaluateCourse(policy.CourseFields{
		Title:             course.Title,
		Description:       course.Description,
		ImageURL:          course.ImageURL,
		Price:             course.Price,
		CategoryID:        course.CategoryID,
		PublishedChapters: int(counts[course.ID]),
	}), nil
}

func (s *courseService) reload(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "course")
	}
	counts, err := s.repo.CountPublishedChapters(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	resp := ToCourseResponse(course, counts[id])
	return &resp, nil
}

func (s *courseService) reindex(ctx context.Context, id uuid.UUID) {
	if err := s.indexCourse(ctx, id); err != nil {
		s.log.Warn("failed to index course", "course_id", id, "error", err)
	}
}

func (s *courseService) indexCourse(ctx context.Context, id uuid.UUID) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if course.Chapters, err = s.repo.FindChapters(ctx, id, true); err != nil {
		return err
	}
	return s.index.IndexCourse(ctx, course)
}

// SyncSearchIndex mirrors every course into the index again, dropping unpublished ones.
// Publish-time indexing failures are only logged, so this repairs drift.
func (s *courseService) SyncSearchIndex(ctx context.Context) (int, error) {
	if !s.index.Enabled() {
		return 0, nil
	}

	courses, err := s.repo.FindByOwner(ctx, nil)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, c := range courses {
		if !c.IsPublished {
			if err := s.index.RemoveCourse(ctx, c.ID); err != nil {
				s.log.Warn("failed to remove course from index", "course_id", c.ID, "error", err)
			}
			continue
		}
		if err := s.indexCourse(ctx, c.ID); err != nil {
			s.log.Warn("failed to index course", "course_id", c.ID, "error", err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *courseService) deleteFile(ctx context.Context, url string) {
	if s.storage == nil || url == "" {
		return
	}
	if id, _ := storage.ExtractPublicID(url); id == "" {
		return
	}
	if err := s.storage.Delete(ctx, url); err != nil {
		s.log.Warn("failed to delete file from storage", "url", url, "error", err)
	}
}

// toResponses adds published chapter counts and, for purchased courses, the caller's progress.
func (s *courseService) toResponses(ctx context.Context, identity *policy.Identity, courses []entity.Course) ([]dto.CourseResponse, error) {
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	counts, err := s.repo.CountPublishedChapters(ctx, ids)
	if err != nil {
		return nil, err
	}

	var progress map[uuid.UUID]float64
	owned := map[uuid.UUID]bool{}
	if identity != nil && len(ids) > 0 {
		purchased, err := s.purchases.PurchasedCourseIDs(ctx, identity.UserID)
		if err != nil {
			return nil, err
		}
		var inPage []uuid.UUID
		wanted := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		for _, id := range purchased {
			if wanted[id] {
				owned[id] = true
				inPage = append(inPage, id)
			}
		}
		if progress, err = s.progress.CoursesProgress(ctx, identity.UserID, inPage); err != nil {
			return nil, err
		}
	}

	out := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		resp := ToCourseResponse(&courses[i], counts[courses[i].ID])
		if owned[courses[i].ID] {
			pct := progress[courses[i].ID]
			resp.Progress = &pct
		}
		out = append(out, resp)
	}
	return out, nil
}

func orderByIDs(courses []entity.Course, ids []uuid.UUID) []entity.Course {
	byID := make(map[uuid.UUID]entity.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	out := make([]entity.Course, 0, len(courses))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ToCourseResponse is the course summary shared by course and chapter reads.
func ToCourseResponse(course *entity.Course, publishedChapters int64) dto.CourseResponse {
	resp := dto.CourseResponse{
		ID:                course.ID,
		Title:             course.Title,
		Description:       course.Description,
		ImageURL:          course.ImageURL,
		Price:             course.Price,
		DeliveryMode:      course.DeliveryMode,
		IsPublished:       course.IsPublished,
		PublishedChapters: publishedChapters,
		CreatedAt:         course.CreatedAt,
		UpdatedAt:         course.UpdatedAt,
	}
	if course.Category != nil {
		resp.Category = &dto.CategoryResponse{ID: course.Category.ID, Name: course.Category.Name}
	}
	if course.User != nil {
		resp.Author = &commonDto.AuthorResponse{
			ID:       course.User.ID.String(),
			Name:     course.User.FullName(),
			ImageURL: course.User.ImageURL,
		}
	}
	return resp
}

func ToAttachmentResponse(a entity.Attachment) attachmentDto.AttachmentResponse {
	return attachmentDto.AttachmentResponse{
		ID:        a.ID,
		CourseID:  a.CourseID,
		Name:      a.Name,
		FileURL:   a.FileURL,
		FileType:  a.FileType,
		CreatedAt: a.CreatedAt,
	}
}
