package user_management

import (
	"time"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/domain/entity"
)

func toUserResponse(user *entity.User) *inbound.UserResponse {
	return &inbound.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toGrantResponse(grant *entity.RoleGrant) *inbound.RoleGrantResponse {
	return &inbound.RoleGrantResponse{
		ID:        grant.ID,
		UserID:    grant.UserID,
		ServiceID: grant.ServiceID,
		Role:      grant.Role,
		CreatedAt: grant.CreatedAt.UTC().Format(time.RFC3339),
	}
}
