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

const defaultListLimit = 100

type UserManagementHandler struct {
	userManagementUseCase inbound.UserManagementUseCase
	authMiddleware        *middleware.AuthMiddleware
}

func NewUserManagementHandler(
	userManagementUseCase inbound.UserManagementUseCase,
	authMiddleware *middleware.AuthMiddleware,
) *UserManagementHandler {
	return &UserManagementHandler{
		userManagementUseCase: userManagementUseCase,
		authMiddleware:        authMiddleware,
	}
}

// RegisterRoutes mounts the admin-only user endpoints on r.
func (h *UserManagementHandler) RegisterRoutes(r *mux.Router) {
	admin := h.authMiddleware.RequireAdmin

	r.HandleFunc("/users", admin(h.CreateUser)).Methods(http.MethodPost)
	r.HandleFunc("/users", admin(h.ListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", admin(h.GetUser)).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", admin(h.DeleteUser)).Methods(http.MethodDelete)
	r.HandleFunc("/users/{username}/password", admin(h.ChangePassword)).Methods(http.MethodPut)
	r.HandleFunc("/users/{username}/roles", admin(h.GrantRole)).Methods(http.MethodPost)
	r.HandleFunc("/users/{username}/roles/{service_id}", admin(h.RevokeRole)).Methods(http.MethodDelete)
}

// CreateUser creates a new user
func (h *UserManagementHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req inbound.CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userManagementUseCase.CreateUser(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "User created successfully", user)
}

// ListUsers pages through users with skip/limit query parameters.
func (h *UserManagementHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	skip, ok := validator.ParseQueryInt(query.Get("skip"), 0)
	if !ok {
		response.BadRequest(w, "skip must be a non-negative integer")
		return
	}
	limit, ok := validator.ParseQueryInt(query.Get("limit"), defaultListLimit)
	if !ok {
		response.BadRequest(w, "limit must be a non-negative integer")
		return
	}

	users, err := h.userManagementUseCase.ListUsers(r.Context(), inbound.ListUsersRequest{
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", users)
}

// GetUser retrieves user details including role grants
func (h *UserManagementHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userManagementUseCase.GetUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", user)
}

// DeleteUser removes a user and every grant they hold
func (h *UserManagementHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userManagementUseCase.DeleteUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "User deleted successfully", user)
}

func (h *UserManagementHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req inbound.ChangePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.userManagementUseCase.ChangePassword(r.Context(), mux.Vars(r)["username"], req); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *UserManagementHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	var req inbound.GrantRoleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.ServiceID != "" && !validator.ValidateID(req.ServiceID) {
		response.FromError(w, domainerr.NotFound("service"))
		return
	}

	grant, err := h.userManagementUseCase.GrantRole(r.Context(), mux.Vars(r)["username"], req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Role granted successfully", grant)
}

func (h *UserManagementHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !validator.ValidateID(vars["service_id"]) {
		response.FromError(w, domainerr.NotFound("role grant"))
		return
	}

	if err := h.userManagementUseCase.RevokeRole(r.Context(), vars["username"], vars["service_id"]); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Role revoked successfully", nil)
}
