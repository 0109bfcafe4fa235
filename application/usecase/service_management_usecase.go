package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/entity"
)

type ServiceManagementUseCase struct {
	serviceRepository outbound.ServiceRepository
}

func NewServiceManagementUseCase(serviceRepo outbound.ServiceRepository) inbound.ServiceManagementUseCase {
	return &ServiceManagementUseCase{
		serviceRepository: serviceRepo,
	}
}

func (uc *ServiceManagementUseCase) CreateService(ctx context.Context, req inbound.CreateServiceRequest) (*inbound.ServiceResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domainerr.InvalidInput("service name is required")
	}

	service := entity.NewService(uuid.NewString(), name)
	if err := uc.serviceRepository.Create(ctx, service); err != nil {
		return nil, MapStoreError(err)
	}

	response := toServiceResponse(service)
	return &response, nil
}

func (uc *ServiceManagementUseCase) ListServices(ctx context.Context) ([]inbound.ServiceResponse, error) {
	services, err := uc.serviceRepository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	items := make([]inbound.ServiceResponse, len(services))
	for i, service := range services {
		items[i] = toServiceResponse(service)
	}
	return items, nil
}

// DeleteService removes the service and every grant made on it.
func (uc *ServiceManagementUseCase) DeleteService(ctx context.Context, serviceID string) error {
	if err := uc.serviceRepository.Delete(ctx, serviceID); err != nil {
		return MapStoreError(err)
	}
	return nil
}

func toServiceResponse(service *entity.Service) inbound.ServiceResponse {
	return inbound.ServiceResponse{
		ID:        service.ID,
		Name:      service.Name,
		CreatedAt: service.CreatedAt.UTC().Format(time.RFC3339),
	}
}
