package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/application/usecase/user_management"
	"github.com/vobe/authz-service/domain/entity"
	"github.com/vobe/authz-service/infrastructure/adapter/memory"
	"github.com/vobe/authz-service/infrastructure/http/handler"
	"github.com/vobe/authz-service/infrastructure/http/router"
	"github.com/vobe/authz-service/infrastructure/metrics"
	"github.com/vobe/authz-service/infrastructure/service/cache"
	"github.com/vobe/authz-service/infrastructure/service/jwt"
	"github.com/vobe/authz-service/infrastructure/service/logger"
	"github.com/vobe/authz-service/infrastructure/service/password"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t       *testing.T
	handler http.Handler
	adminTk string
	service *entity.Service
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	base, _ := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	log := logger.NewFromLogrus(base, "test")

	store := memory.NewStore()
	passwords := password.NewBcryptPasswordService(bcrypt.MinCost)
	tokens, err := jwt.NewJWTService(jwt.Config{Secret: "router-test-secret", Algorithm: jwt.AlgorithmHS256})
	require.NoError(t, err)
	identityCache := cache.NewLRUIdentityCache(64, time.Minute)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	registry := usecase.NewRoleRegistry(store.Users(), store.Services(), store.Grants())
	auth := usecase.NewAuthUseCase(
		store.Users(), store.Services(), registry, tokens, passwords, log, time.Hour,
		usecase.WithIdentityCache(identityCache),
		usecase.WithEventRecorder(m),
	)

	hash, err := passwords.HashPassword("admin-pw")
	require.NoError(t, err)
	admin := entity.NewUser(uuid.NewString(), "admin", "admin@example.com", hash)
	require.NoError(t, store.Users().Create(ctx, admin))
	control := entity.NewService(uuid.NewString(), "control")
	require.NoError(t, store.Services().Create(ctx, control))
	_, err = registry.Grant(ctx, admin.ID, control.ID, entity.RoleAdmin)
	require.NoError(t, err)

	s := &server{
		t: t,
		handler: router.New(router.Config{
			AuthUseCase:           auth,
			UserManagementUseCase: user_management.NewUserManagementUseCase(store.Users(), store.Services(), registry, passwords, identityCache, log),
			ServiceUseCase:        usecase.NewServiceManagementUseCase(store.Services()),
			Health:                handler.NewHealthHandler(nil, nil),
			Metrics:               m,
			CORSAllowedOrigins:    []string{"https://console.example.com"},
		}),
		service: control,
	}
	s.adminTk = s.login("admin", "admin-pw")
	return s
}

func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) login(username, pw string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": username, "password": pw})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var token inbound.LoginResponse
	decode(s.t, rec, &token)
	return token.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRouter_Liveness(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec, nil).Status)

	rec = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handler.StatusHealthy, decode(t, rec, nil).Message)

	rec = s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Token(t *testing.T) {
	s := newServer(t)

	t.Run("password form", func(t *testing.T) {
		form := url.Values{"username": {"admin"}, "password": {"admin-pw"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var token inbound.LoginResponse
		decode(t, rec, &token)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "bearer", token.TokenType)
		assert.Equal(t, int64(3600), token.ExpiresIn)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("email works as identifier", func(t *testing.T) {
		assert.NotEmpty(t, s.login("admin@example.com", "admin-pw"))
		assert.NotEmpty(t, s.login("Admin@Example.COM", "admin-pw"))
	})

	t.Run("bad password and unknown user look the same", func(t *testing.T) {
		wrong := s.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": "admin", "password": "nope"})
		unknown := s.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": "ghost", "password": "nope"})

		for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "Invalid credentials", decode(t, rec, nil).Message)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": "admin"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		huge := strings.Repeat("a", 2<<20)

		body := `{"username":"admin","password":"` + huge + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		form := url.Values{"username": {"admin"}, "password": {huge}}
		req = httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec = httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Me(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.do(http.MethodGet, "/api/v1/me", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Failed to verify credentials", decode(t, rec, nil).Message)

	rec = s.do(http.MethodGet, "/api/v1/me", s.adminTk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me inbound.MeResponse
	decode(t, rec, &me)
	assert.Equal(t, "admin", me.Username)
	assert.True(t, me.IsAdmin)
	require.Len(t, me.Roles, 1)
	assert.Equal(t, "control", me.Roles[0].ServiceName)
}

func TestRouter_UserManagement(t *testing.T) {
	s := newServer(t)

	createAlice := func() *httptest.ResponseRecorder {
		return s.do(http.MethodPost, "/api/v1/users", s.adminTk, inbound.CreateUserRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "pw1",
		})
	}

	rec := createAlice()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var alice inbound.UserResponse
	decode(t, rec, &alice)
	assert.Equal(t, "alice", alice.Username)

	rec = createAlice()
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	aliceTk := s.login("alice", "pw1")

	t.Run("non admin is forbidden", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/users", aliceTk, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Not enough rights", decode(t, rec, nil).Message)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/users?skip=0&limit=1", s.adminTk, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list inbound.ListUsersResponse
		decode(t, rec, &list)
		assert.Len(t, list.Users, 1)
		assert.Equal(t, 2, list.Pagination.Total)

		rec = s.do(http.MethodGet, "/api/v1/users?limit=-1", s.adminTk, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("grant and authorize", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/users/alice/roles", s.adminTk, inbound.GrantRoleRequest{
			Role:      strings.Repeat("r", 51),
			ServiceID: s.service.ID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPost, "/api/v1/users/alice/roles", s.adminTk, inbound.GrantRoleRequest{
			Role:      "viewer",
			ServiceID: s.service.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.do(http.MethodPost, "/api/v1/users/alice/roles", s.adminTk, inbound.GrantRoleRequest{
			Role:      "editor",
			ServiceID: s.service.ID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPost, "/api/v1/users/alice/roles", s.adminTk, inbound.GrantRoleRequest{
			Role:      "viewer",
			ServiceID: uuid.NewString(),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/authorize?service=control&role=viewer", aliceTk, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/authorize?service=control&role=admin", aliceTk, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/authorize?service=control", aliceTk, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/users/alice", s.adminTk, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail inbound.UserResponse
		decode(t, rec, &detail)
		require.Len(t, detail.Roles, 1)
		assert.Equal(t, "viewer", detail.Roles[0].Role)

		rec = s.do(http.MethodDelete, "/api/v1/users/alice/roles/"+s.service.ID, s.adminTk, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/authorize?service=control&role=viewer", aliceTk, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("password rotation", func(t *testing.T) {
		rec := s.do(http.MethodPut, "/api/v1/users/alice/password", s.adminTk, inbound.ChangePasswordRequest{Password: "pw2"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": "alice", "password": "pw1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		aliceTk = s.login("alice", "pw2")
	})

	t.Run("delete revokes tokens", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/me", aliceTk, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodDelete, "/api/v1/users/alice", s.adminTk, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/me", aliceTk, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = s.do(http.MethodDelete, "/api/v1/users/alice", s.adminTk, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "The user was not found", decode(t, rec, nil).Message)
	})
}

func TestRouter_Services(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/v1/services", s.adminTk, inbound.CreateServiceRequest{Name: "billing"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var billing inbound.ServiceResponse
	decode(t, rec, &billing)

	rec = s.do(http.MethodPost, "/api/v1/services", s.adminTk, inbound.CreateServiceRequest{Name: "billing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/services", s.adminTk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var services []inbound.ServiceResponse
	decode(t, rec, &services)
	assert.Len(t, services, 2)

	rec = s.do(http.MethodDelete, "/api/v1/services/"+billing.ID, s.adminTk, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/services/"+billing.ID, s.adminTk, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/services/not-a-uuid", s.adminTk, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AmbientMiddleware(t *testing.T) {
	s := newServer(t)

	t.Run("correlation id is echoed or generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Correlation-ID", "cid-123")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, "cid-123", rec.Header().Get("X-Correlation-ID"))

		rec = s.do(http.MethodGet, "/health", "", nil)
		assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/token", nil)
		req.Header.Set("Origin", "https://console.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics exposition", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `authz_logins_total{outcome="success"}`)
		assert.Contains(t, rec.Body.String(), `authz_http_requests_total`)
	})
}
