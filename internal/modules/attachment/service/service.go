package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/attachment/dto"
	"anoa.com/learnhub/internal/modules/attachment/repository"
	courseRepo "anoa.com/learnhub/internal/modules/course/repository"
	courseService "anoa.com/learnhub/internal/modules/course/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/storage"
	"github.com/google/uuid"
)

const attachmentFolder = "attachments"

type AttachmentService interface {
	UploadAttachment(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, file io.Reader, fileName, contentType string) (*dto.AttachmentResponse, error)
	DeleteAttachment(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, attachmentID uint) error
}

type attachmentService struct {
	repo    repository.AttachmentRepository
	courses courseRepo.CourseRepository
	guard   *courseService.Guard
	storage storage.FileStorage
	log     *logger.Logger
}

func NewAttachmentService(
	repo repository.AttachmentRepository,
	courses courseRepo.CourseRepository,
	guard *courseService.Guard,
	fileStorage storage.FileStorage,
	log *logger.Logger,
) AttachmentService {
	return &attachmentService{repo: repo, courses: courses, guard: guard, storage: fileStorage, log: log}
}

func (s *attachmentService) UploadAttachment(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, file io.Reader, fileName, contentType string) (*dto.AttachmentResponse, error) {
	if s.storage == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "file storage is not configured", apperror.ErrInternal)
	}
	if err := s.authorize(ctx, identity, courseID); err != nil {
		return nil, err
	}

	fileURL, err := s.storage.Upload(ctx, file, attachmentFolder, fileName)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	attachment := &entity.Attachment{
		CourseID: courseID,
		UserID:   identity.UserID,
		Name:     filepath.Base(fileName),
		FileURL:  fileURL,
		FileType: fileType(fileName, contentType),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if delErr := s.storage.Delete(ctx, fileURL); delErr != nil {
			s.log.Warn("failed to roll back uploaded attachment", "url", fileURL, "error", delErr)
		}
		return nil, err
	}

	resp := courseService.ToAttachmentResponse(*attachment)
	return &resp, nil
}

func (s *attachmentService) DeleteAttachment(ctx context.Context, identity *policy.Identity, courseID uuid.UUID, attachmentID uint) error {
	if err := s.authorize(ctx, identity, courseID); err != nil {
		return err
	}

	attachment, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		return apperror.FromDB(err, "attachment")
	}
	if attachment.CourseID != courseID {
		return fmt.Errorf("attachment not found: %w", apperror.ErrNotFound)
	}

	if err := s.repo.Delete(ctx, attachmentID); err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.Delete(ctx, attachment.FileURL); err != nil {
			s.log.Warn("failed to delete attachment file", "attachment_id", attachmentID, "error", err)
		}
	}
	return nil
}

func (s *attachmentService) authorize(ctx context.Context, identity *policy.Identity, courseID uuid.UUID) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return apperror.FromDB(err, "course")
	}
	_, err = s.guard.Authorize(ctx, identity, course)
	return err
}

func fileType(fileName, contentType string) string {
	if ct := strings.TrimSpace(contentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."); ext != "" {
		return ext
	}
	return "application/octet-stream"
}
