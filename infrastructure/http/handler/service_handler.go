package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vobe/authz-service/application/port/inbound"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/infrastructure/http/middleware"
	"github.com/vobe/authz-service/infrastructure/http/response"
	"github.com/vobe/authz-service/infrastructure/http/validator"
)

type ServiceHandler struct {
	serviceUseCase inbound.ServiceManagementUseCase
	authMiddleware *middleware.AuthMiddleware
}

func NewServiceHandler(serviceUseCase inbound.ServiceManagementUseCase, authMiddleware *middleware.AuthMiddleware) *ServiceHandler {
	return &ServiceHandler{
		serviceUseCase: serviceUseCase,
		authMiddleware: authMiddleware,
	}
}

func (h *ServiceHandler) RegisterRoutes(r *mux.Router) {
	admin := h.authMiddleware.RequireAdmin

	r.HandleFunc("/services", admin(h.CreateService)).Methods(http.MethodPost)
	r.HandleFunc("/services", admin(h.ListServices)).Methods(http.MethodGet)
	r.HandleFunc("/services/{id}", admin(h.DeleteService)).Methods(http.MethodDelete)
}

func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req inbound.CreateServiceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	service, err := h.serviceUseCase.CreateService(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Service created successfully", service)
}

func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceUseCase.ListServices(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", services)
}

// DeleteService removes the service together with its grants.
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !validator.ValidateID(id) {
		response.FromError(w, domainerr.NotFound("service"))
		return
	}

	if err := h.serviceUseCase.DeleteService(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Service deleted successfully", nil)
}
