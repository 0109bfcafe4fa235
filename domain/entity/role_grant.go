package entity

import (
	"time"
)

// RoleAdmin on any service makes the holder an administrator of this
// service as a whole.
const RoleAdmin = "admin"

// RoleGrant assigns one role to a user on one service. A (UserID, ServiceID)
// pair has at most one grant.
type RoleGrant struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ServiceID string    `json:"service_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoleGrant(id, userID, serviceID, role string) *RoleGrant {
	return &RoleGrant{
		ID:        id,
		UserID:    userID,
		ServiceID: serviceID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

func (g *RoleGrant) IsAdmin() bool {
	return g.Role == RoleAdmin
}
