package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"anoa.com/learnhub/internal/entity"
	attachmentDto "anoa.com/learnhub/internal/modules/attachment/dto"
	attachmentRepo "anoa.com/learnhub/internal/modules/attachment/repository"
	"anoa.com/learnhub/internal/modules/chapter/dto"
	"anoa.com/learnhub/internal/modules/chapter/repository"
	courseRepo "anoa.com/learnhub/internal/modules/course/repository"
	courseService "anoa.com/learnhub/internal/modules/course/service"
	progressRepo "anoa.com/learnhub/internal/modules/progress/repository"
	searchService "anoa.com/learnhub/internal/modules/search/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
)

type ChapterService interface {
	CreateChapter(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.CreateChapterRequest) (*dto.ChapterResponse, error)
	UpdateChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.UpdateChapterRequest) (*dto.ChapterResponse, error)
	DeleteChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) error
	ReorderChapters(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.ReorderRequest) ([]dto.ChapterResponse, error)
	PublishChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterResponse, error)
	UnpublishChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterResponse, error)
	Completeness(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (policy.Completeness, error)
	GetChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterDetailResponse, error)
	CheckAccess(ctx context.Context, identity *policy.Identity, chapterID uuid.UUID) (*entity.Chapter, policy.Access, error)

	AddMaterial(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.CreateMaterialRequest) (*entity.Material, error)
	DeleteMaterial(ctx context.Context, identity *policy.Identity, courseID, chapterID, materialID uuid.UUID) error
	AddAssignment(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.CreateAssignmentRequest) (*entity.Assignment, error)
	DeleteAssignment(ctx context.Context, identity *policy.Identity, courseID, chapterID, assignmentID uuid.UUID) error
}

type chapterService struct {
	repo        repository.ChapterRepository
	courses     courseRepo.CourseRepository
	attachments attachmentRepo.AttachmentRepository
	progress    progressRepo.ProgressRepository
	guard       *courseService.Guard
	index       searchService.CourseIndex
	log         *logger.Logger
}

func NewChapterService(
	repo repository.ChapterRepository,
	courses courseRepo.CourseRepository,
	attachments attachmentRepo.AttachmentRepository,
	progress progressRepo.ProgressRepository,
	guard *courseService.Guard,
	index searchService.CourseIndex,
	log *logger.Logger,
) ChapterService {
	return &chapterService{
		repo:        repo,
		courses:     courses,
		attachments: attachments,
		progress:    progress,
		guard:       guard,
		index:       index,
		log:         log,
	}
}

func (s *chapterService) CreateChapter(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.CreateChapterRequest) (*dto.ChapterResponse, error) {
	if _, err := s.manageCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.New(http.StatusBadRequest, "title is required", apperror.ErrInvalidInput)
	}

	chapter := &entity.Chapter{CourseID: courseID, Title: title}
	if err := s.repo.Create(ctx, chapter); err != nil {
		return nil, err
	}

	resp := toChapterResponse(chapter)
	return &resp, nil
}

func (s *chapterService) UpdateChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.UpdateChapterRequest) (*dto.ChapterResponse, error) {
	_, chapter, err := s.manageChapter(ctx, identity, courseID, chapterID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.New(http.StatusBadRequest, "title cannot be empty", apperror.ErrInvalidInput)
		}
		chapter.Title = title
	}
	if req.Description != nil {
		chapter.Description = strings.TrimSpace(*req.Description)
	}
	if req.VideoURL != nil {
		chapter.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.IsFree != nil {
		chapter.IsFree = *req.IsFree
	}

	if err := s.repo.Update(ctx, chapter); err != nil {
		return nil, err
	}

	resp := toChapterResponse(chapter)
	return &resp, nil
}

func (s *chapterService) DeleteChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) error {
	_, chapter, err := s.manageChapter(ctx, identity, courseID, chapterID)
	if err != nil {
		return err
	}

	courseUnpublished, err := s.repo.Delete(ctx, chapter)
	if err != nil {
		return apperror.FromDB(err, "chapter")
	}

	s.log.Info("chapter deleted", "chapter_id", chapterID, "course_id", courseID, "user_id", identity.UserID)
	s.afterUnpublish(ctx, courseID, courseUnpublished)
	return nil
}

// ReorderChapters requires the full set of the course's chapters, each exactly once.
func (s *chapterService) ReorderChapters(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, req dto.ReorderRequest) ([]dto.ChapterResponse, error) {
	if _, err := s.manageCourse(ctx, identity, courseID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ordered, err := validatePermutation(existing, req.ChapterIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Reorder(ctx, courseID, ordered); err != nil {
		return nil, apperror.FromDB(err, "chapter")
	}

	chapters, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ChapterResponse, 0, len(chapters))
	for i := range chapters {
		out = append(out, toChapterResponse(&chapters[i]))
	}
	return out, nil
}

func validatePermutation(existing []entity.Chapter, raw []string) ([]uuid.UUID, error) {
	invalid := func(msg string) error {
		return apperror.New(http.StatusBadRequest, msg, apperror.ErrInvalidInput)
	}

	if len(raw) != len(existing) {
		return nil, invalid("chapter_ids must list every chapter of the course exactly once")
	}

	known := make(map[uuid.UUID]bool, len(existing))
	for _, ch := range existing {
		known[ch.ID] = true
	}

	seen := make(map[uuid.UUID]bool, len(raw))
	ordered := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, invalid("invalid chapter id: " + s)
		}
		if !known[id] {
			return nil, invalid("chapter " + s + " does not belong to this course")
		}
		if seen[id] {
			return nil, invalid("chapter " + s + " is listed more than once")
		}
		seen[id] = true
		ordered = append(ordered, id)
	}
	return ordered, nil
}

func (s *chapterService) PublishChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterResponse, error) {
	_, chapter, err := s.manageChapter(ctx, identity, courseID, chapterID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, chapter)
	if err != nil {
		return nil, err
	}
	if !result.Eligible {
		return nil, apperror.NewValidation("chapter is not ready to be published", result.Missing)
	}

	if err := s.repo.Publish(ctx, chapterID); err != nil {
		return nil, apperror.FromDB(err, "chapter")
	}
	chapter.IsPublished = true

	s.log.Info("chapter published", "chapter_id", chapterID, "course_id", courseID)
	resp := toChapterResponse(chapter)
	return &resp, nil
}

func (s *chapterService) UnpublishChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterResponse, error) {
	_, chapter, err := s.manageChapter(ctx, identity, courseID, chapterID)
	if err != nil {
		return nil, err
	}

	courseUnpublished, err := s.repo.Unpublish(ctx, chapter)
	if err != nil {
		return nil, err
	}
	chapter.IsPublished = false

	s.log.Info("chapter unpublished", "chapter_id", chapterID, "course_id", courseID)
	s.afterUnpublish(ctx, courseID, courseUnpublished)

	resp := toChapterResponse(chapter)
	return &resp, nil
}

func (s *chapterService) Completeness(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (policy.Completeness, error) {
	_, chapter, err := s.manageChapter(ctx, identity, courseID, chapterID)
	if err != nil {
		return policy.Completeness{}, err
	}
	return s.evaluate(ctx, chapter)
}

// GetChapter gates the chapter before any content is loaded.
func (s *chapterService) GetChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*dto.ChapterDetailResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, apperror.FromDB(err, "chapter")
	}
	chapter, err := s.repo.FindInCourse(ctx, courseID, chapterID)
	if err != nil {
		return nil, apperror.FromDB(err, "chapter")
	}

	caps, ent, access, err := s.gate(ctx, identity, course, chapter)
	if err != nil {
		return nil, err
	}
	if access == policy.AccessDenied {
		return nil, fmt.Errorf("chapter not found: %w", apperror.ErrNotFound)
	}

	resp := &dto.ChapterDetailResponse{
		ChapterResponse: toChapterResponse(chapter),
		Access:          access,
		Entitlement:     ent,
	}

	switch access {
	case policy.AccessPlaceholder:
		summary := courseService.ToCourseResponse(course, 0)
		resp.Course = &summary
		resp.VideoURL = ""
		resp.PendingRepublish = true
		return resp, nil
	case policy.AccessLocked:
		resp.VideoURL = ""
		return resp, nil
	}

	if resp.Materials, err = s.repo.FindMaterials(ctx, chapterID); err != nil {
		return nil, err
	}
	if resp.Assignments, err = s.repo.FindAssignments(ctx, chapterID); err != nil {
		return nil, err
	}

	if caps.CanBypass() || ent.HasPurchase {
		attachments, err := s.attachments.FindByCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		resp.Attachments = make([]attachmentDto.AttachmentResponse, 0, len(attachments))
		for _, a := range attachments {
			resp.Attachments = append(resp.Attachments, courseService.ToAttachmentResponse(a))
		}
	}

	next, err := s.repo.FindNext(ctx, chapter, policy.PublishedOnly(caps))
	if err != nil {
		return nil, err
	}
	if next != nil {
		resp.NextChapterID = &next.ID
	}

	if identity != nil {
		if resp.IsCompleted, err = s.progress.IsCompleted(ctx, identity.UserID, chapterID); err != nil {
			return nil, err
		}
		if ent.HasPurchase {
			pct, err := s.progress.CourseProgress(ctx, identity.UserID, courseID)
			if err != nil {
				return nil, err
			}
			resp.CourseProgress = &pct
		}
	}

	return resp, nil
}

// CheckAccess resolves the caller's access to a chapter addressed by id alone.
func (s *chapterService) CheckAccess(ctx context.Context, identity *policy.Identity, chapterID uuid.UUID) (*entity.Chapter, policy.Access, error) {
	chapter, err := s.repo.FindByID(ctx, chapterID)
	if err != nil {
		return nil, policy.AccessDenied, apperror.FromDB(err, "chapter")
	}
	course, err := s.courses.FindByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, policy.AccessDenied, apperror.FromDB(err, "chapter")
	}
	_, _, access, err := s.gate(ctx, identity, course, chapter)
	if err != nil {
		return nil, policy.AccessDenied, err
	}
	return chapter, access, nil
}

func (s *chapterService) AddMaterial(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.CreateMaterialRequest) (*entity.Material, error) {
	if _, _, err := s.manageChapter(ctx, identity, courseID, chapterID); err != nil {
		return nil, err
	}

	material := &entity.Material{
		ChapterID: chapterID,
		Title:     strings.TrimSpace(req.Title),
		FileURL:   strings.TrimSpace(req.FileURL),
	}
	if err := s.repo.CreateMaterial(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *chapterService) DeleteMaterial(ctx context.Context, identity *policy.Identity, courseID, chapterID, materialID uuid.UUID) error {
	if _, _, err := s.manageChapter(ctx, identity, courseID, chapterID); err != nil {
		return err
	}

	removed, err := s.repo.DeleteMaterial(ctx, chapterID, materialID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("material not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *chapterService) AddAssignment(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID, req dto.CreateAssignmentRequest) (*entity.Assignment, error) {
	if _, _, err := s.manageChapter(ctx, identity, courseID, chapterID); err != nil {
		return nil, err
	}

	assignment := &entity.Assignment{
		ChapterID:    chapterID,
		Title:        strings.TrimSpace(req.Title),
		Instructions: strings.TrimSpace(req.Instructions),
		DueAt:        req.DueAt,
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *chapterService) DeleteAssignment(ctx context.Context, identity *policy.Identity, courseID, chapterID, assignmentID uuid.UUID) error {
	if _, _, err := s.manageChapter(ctx, identity, courseID, chapterID); err != nil {
		return err
	}

	removed, err := s.repo.DeleteAssignment(ctx, chapterID, assignmentID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("assignment not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *chapterService) gate(ctx context.Context, identity *policy.Identity, course *entity.Course, chapter *entity.Chapter) (policy.Capabilities, policy.Entitlement, policy.Access, error) {
	caps, ent, err := s.guard.Inspect(ctx, identity, course)
	if err != nil {
		return caps, ent, policy.AccessDenied, err
	}
	resource := policy.ChapterResource(chapter.IsPublished, course.IsPublished, chapter.IsFree)
	return caps, ent, policy.Gate(resource, caps, ent), nil
}

func (s *chapterService) manageCourse(ctx context.Context, identity *policy.Identity, courseID uuid.UUID) (*entity.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, apperror.FromDB(err, "course")
	}
	if _, err := s.guard.Authorize(ctx, identity, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *chapterService) manageChapter(ctx context.Context, identity *policy.Identity, courseID, chapterID uuid.UUID) (*entity.Course, *entity.Chapter, error) {
	course, err := s.manageCourse(ctx, identity, courseID)
	if err != nil {
		return nil, nil, err
	}
	chapter, err := s.repo.FindInCourse(ctx, courseID, chapterID)
	if err != nil {
		return nil, nil, apperror.FromDB(err, "chapter")
	}
	return course, chapter, nil
}

func (s *chapterService) evaluate(ctx context.Context, chapter *entity.Chapter) (policy.Completeness, error) {
	materials, assignments, err := s.repo.CountContent(ctx, chapter.ID)
	if err != nil {
		return policy.Completeness{}, err
	}
	return policy.EvaluateChapter(policy.ChapterFields{
		Title:       chapter.Title,
		Description: chapter.Description,
		VideoURL:    chapter.VideoURL,
		Materials:   int(materials),
		Assignments: int(assignments),
	}), nil
}

func (s *chapterService) afterUnpublish(ctx context.Context, courseID uuid.UUID, courseUnpublished bool) {
	if !courseUnpublished {
		return
	}
	s.log.Info("course unpublished after losing its last published chapter", "course_id", courseID)
	if err := s.index.RemoveCourse(ctx, courseID); err != nil {
		s.log.Warn("failed to remove course from index", "course_id", courseID, "error", err)
	}
}

func toChapterResponse(ch *entity.Chapter) dto.ChapterResponse {
	return dto.ChapterResponse{
		ID:          ch.ID,
		CourseID:    ch.CourseID,
		Title:       ch.Title,
		Description: ch.Description,
		VideoURL:    ch.VideoURL,
		Position:    ch.Position,
		IsPublished: ch.IsPublished,
		IsFree:      ch.IsFree,
		CreatedAt:   ch.CreatedAt,
		UpdatedAt:   ch.UpdatedAt,
	}
}
