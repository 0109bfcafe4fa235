package usecase

import (
	"context"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/domain/entity"
)

// DescribeGrants resolves service names for display. A service that vanished
// between the two reads keeps an empty name.
func DescribeGrants(ctx context.Context, services outbound.ServiceRepository, grants []*entity.RoleGrant) []inbound.GrantView {
	views := make([]inbound.GrantView, 0, len(grants))
	for _, grant := range grants {
		view := inbound.GrantView{ServiceID: grant.ServiceID, Role: grant.Role}
		if service, err := services.FindByID(ctx, grant.ServiceID); err == nil {
			view.ServiceName = service.Name
		}
		views = append(views, view)
	}
	return views
}
