package service

import (
	"context"
	"fmt"
	"net/http"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/user/dto"
	"anoa.com/learnhub/internal/modules/user/repository"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	commonDto "anoa.com/learnhub/pkg/dto"
	"anoa.com/learnhub/pkg/logger"
	"github.com/google/uuid"
)

type UserService interface {
	Me(ctx context.Context, identity *policy.Identity) (*dto.MeResponse, error)
	ListUsers(ctx context.Context, filter dto.UserFilter) (*commonDto.Paginated[entity.User], error)
	SetRole(ctx context.Context, actor *policy.Identity, userID uuid.UUID, role string) (*entity.User, error)
}

type userService struct {
	repo       repository.UserRepository
	classifier *policy.Classifier
	log        *logger.Logger
}

func NewUserService(repo repository.UserRepository, classifier *policy.Classifier, log *logger.Logger) UserService {
	return &userService{repo: repo, classifier: classifier, log: log}
}

func (s *userService) Me(ctx context.Context, identity *policy.Identity) (*dto.MeResponse, error) {
	user, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &dto.MeResponse{
		User:         user,
		Capabilities: s.classifier.Classify(identity, nil),
	}, nil
}

func (s *userService) ListUsers(ctx context.Context, filter dto.UserFilter) (*commonDto.Paginated[entity.User], error) {
	filter.PageQuery.Normalize()
	users, total, err := s.repo.FindAll(ctx, filter.Search, filter.Role, filter.PageQuery)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []entity.User{}
	}
	return &commonDto.Paginated[entity.User]{
		Data: users,
		Meta: commonDto.NewPaginationMeta(filter.PageQuery, total),
	}, nil
}

// SetRole updates the locally stored role. Admins cannot demote themselves.
func (s *userService) SetRole(ctx context.Context, actor *policy.Identity, userID uuid.UUID, role string) (*entity.User, error) {
	role = policy.NormalizeRole(role)
	if !policy.IsKnownRole(role) {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("unknown role %q", role), apperror.ErrInvalidInput)
	}
	if actor != nil && actor.UserID == userID && role != policy.RoleAdmin && role != policy.RoleSuperAdmin {
		return nil, apperror.New(http.StatusBadRequest, "admins cannot remove their own admin role", apperror.ErrBadRequest)
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, apperror.FromDB(err, "user")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	s.log.Info("user role updated", "user_id", userID, "role", role)
	return user, nil
}
