package dto

import (
	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/policy"
	commonDto "anoa.com/learnhub/pkg/dto"
)

type AuthResponse struct {
	AccessToken  string              `json:"access_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int64               `json:"expires_in"`
	User         *entity.User        `json:"user"`
	Capabilities policy.Capabilities `json:"capabilities"`
}

type MeResponse struct {
	User         *entity.User        `json:"user"`
	Capabilities policy.Capabilities `json:"capabilities"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user student teacher instructor admin superadmin"`
}

type UserFilter struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	commonDto.PageQuery
}
