package service

import (
	"context"
	"fmt"
	"net/http"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/progress/dto"
	"anoa.com/learnhub/internal/modules/progress/repository"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"github.com/google/uuid"
)

// ChapterAccess is satisfied by the chapter service.
type ChapterAccess interface {
	CheckAccess(ctx context.Context, identity *policy.Identity, chapterID uuid.UUID) (*entity.Chapter, policy.Access, error)
}

type ProgressService interface {
	SetProgress(ctx context.Context, identity *policy.Identity, chapterID uuid.UUID, req dto.UpdateProgressRequest) (*dto.ProgressResponse, error)
}

type progressService struct {
	repo     repository.ProgressRepository
	chapters ChapterAccess
}

func NewProgressService(repo repository.ProgressRepository, chapters ChapterAccess) ProgressService {
	return &progressService{repo: repo, chapters: chapters}
}

// SetProgress records completion for chapters the caller can fully read.
func (s *progressService) SetProgress(ctx context.Context, identity *policy.Identity, chapterID uuid.UUID, req dto.UpdateProgressRequest) (*dto.ProgressResponse, error) {
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}

	chapter, access, err := s.chapters.CheckAccess(ctx, identity, chapterID)
	if err != nil {
		return nil, err
	}
	switch access {
	case policy.AccessFull:
	case policy.AccessDenied:
		return nil, fmt.Errorf("chapter not found: %w", apperror.ErrNotFound)
	default:
		return nil, apperror.New(http.StatusForbidden, "purchase the course to track progress on this chapter", apperror.ErrForbidden)
	}

	completed := req.IsCompleted != nil && *req.IsCompleted
	stored, err := s.repo.Upsert(ctx, identity.UserID, chapterID, completed)
	if err != nil {
		return nil, err
	}

	pct, err := s.repo.CourseProgress(ctx, identity.UserID, chapter.CourseID)
	if err != nil {
		return nil, err
	}

	return &dto.ProgressResponse{
		ChapterID:      chapterID,
		CourseID:       chapter.CourseID,
		IsCompleted:    stored.IsCompleted,
		CourseProgress: pct,
	}, nil
}
