package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/infrastructure/http/handler"
	"github.com/vobe/authz-service/infrastructure/http/middleware"
	"github.com/vobe/authz-service/infrastructure/http/response"
	"github.com/vobe/authz-service/infrastructure/metrics"
)

const APIPrefix = "/api/v1"

type Config struct {
	AuthUseCase           inbound.AuthUseCase
	UserManagementUseCase inbound.UserManagementUseCase
	ServiceUseCase        inbound.ServiceManagementUseCase
	Health                *handler.HealthHandler

	// Metrics is optional; nil disables /metrics and HTTP instrumentation.
	Metrics *metrics.Metrics

	CorrelationIDHeader  string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

// New wires every route and wraps the router with correlation id and,
// when origins are configured, CORS handling.
func New(cfg Config) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	health := cfg.Health
	if health == nil {
		health = handler.NewHealthHandler(nil, nil)
	}
	r.HandleFunc("/", health.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthUseCase)
	authHandler := handler.NewAuthHandler(cfg.AuthUseCase)

	api := r.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/token", authHandler.Token).Methods(http.MethodPost)
	api.HandleFunc("/me", authMiddleware.RequireAuth(authHandler.Me)).Methods(http.MethodGet)
	api.HandleFunc("/authorize", authHandler.Authorize).Methods(http.MethodGet)

	handler.NewUserManagementHandler(cfg.UserManagementUseCase, authMiddleware).RegisterRoutes(api)
	handler.NewServiceHandler(cfg.ServiceUseCase, authMiddleware).RegisterRoutes(api)

	var h http.Handler = r
	if len(cfg.CORSAllowedOrigins) > 0 {
		h = middleware.CORSMiddleware(h, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)
	}
	return middleware.CorrelationIDMiddlewareWithHeader(cfg.CorrelationIDHeader)(h)
}
