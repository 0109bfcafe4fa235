package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/domain/entity"
	"github.com/vobe/authz-service/infrastructure/http/response"
)

type identityKey struct{}

type AuthMiddleware struct {
	authUseCase inbound.AuthUseCase
}

func NewAuthMiddleware(authUseCase inbound.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authUseCase: authUseCase,
	}
}

// RequireAuth lets the request through only with a valid bearer token whose
// subject still exists.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.require(inbound.CapabilityAuthenticated, next)
}

// RequireAdmin additionally demands an admin grant on any service.
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.require(inbound.CapabilityAdmin, next)
}

func (m *AuthMiddleware) require(capability inbound.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			response.Unauthorized(w, "Not authenticated")
			return
		}

		identity, err := m.authUseCase.Authorize(r.Context(), token, capability)
		if err != nil {
			response.FromError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func WithIdentity(ctx context.Context, identity *entity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity RequireAuth or RequireAdmin stored.
func IdentityFromContext(ctx context.Context) *entity.Identity {
	if identity, ok := ctx.Value(identityKey{}).(*entity.Identity); ok {
		return identity
	}
	return nil
}
