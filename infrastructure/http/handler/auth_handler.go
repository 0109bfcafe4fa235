package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/infrastructure/http/middleware"
	"github.com/vobe/authz-service/infrastructure/http/response"
	"github.com/vobe/authz-service/infrastructure/http/validator"
)

const (
	maxFormMemory = 1 << 20
	// maxBodyBytes caps the login body for both form and JSON encodings.
	maxBodyBytes = 1 << 20
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
}

func NewAuthHandler(authUseCase inbound.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// Token exchanges username/password for an access token. Both the OAuth2
// password form and a JSON body are accepted.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, ok := decodeLoginRequest(r)
	if !ok {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.Identifier) || req.Password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	loginRes, err := h.authUseCase.Login(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.Success(w, http.StatusOK, "success", loginRes)
}

func decodeLoginRequest(r *http.Request) (inbound.LoginRequest, bool) {
	var req inbound.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, false
		}
		req.Identifier = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, true
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, false
		}
		return req, true
	}
}

// Me describes the authenticated caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	me, err := h.authUseCase.Me(r.Context(), identity)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", me)
}

// Authorize answers 204 when the bearer holds role on service and 403
// otherwise.
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	query := r.URL.Query()
	service := query.Get("service")
	role := query.Get("role")
	if !validator.ValidateRequired(service) || !validator.ValidateRequired(role) {
		response.BadRequest(w, "service and role are required")
		return
	}

	if _, err := h.authUseCase.AuthorizeRole(r.Context(), token, service, role); err != nil {
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
