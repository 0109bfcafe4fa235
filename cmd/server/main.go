package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/application/usecase/user_management"
	"github.com/vobe/authz-service/infrastructure/adapter/store"
	"github.com/vobe/authz-service/infrastructure/config"
	"github.com/vobe/authz-service/infrastructure/http/handler"
	"github.com/vobe/authz-service/infrastructure/http/router"
	"github.com/vobe/authz-service/infrastructure/metrics"
	"github.com/vobe/authz-service/infrastructure/service/cache"
	"github.com/vobe/authz-service/infrastructure/service/jwt"
	"github.com/vobe/authz-service/infrastructure/service/logger"
	"github.com/vobe/authz-service/infrastructure/service/password"
)

const serviceName = "authz-service"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"version":      "1.0.0",
		"env":          cfg.Environment,
		"store_driver": cfg.StoreDriver,
	})

	repos, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to open store", err, map[string]interface{}{
			"store_driver": cfg.StoreDriver,
		})
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repos.Close()
	structuredLogger.Info(ctx, "Store ready", map[string]interface{}{
		"store_driver": cfg.StoreDriver,
	})

	// Identity cache (Redis, in-process LRU or disabled)
	cacheLogger := logrus.New()
	identityCache, err := cache.NewIdentityCache(cache.IdentityCacheConfig{
		Driver:   cfg.IdentityCache,
		RedisURL: cfg.RedisURL,
		TTL:      cfg.IdentityCacheTTL,
		Size:     cfg.IdentityCacheSize,
	}, cacheLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize identity cache, continuing without it", err, map[string]interface{}{
			"driver": cfg.IdentityCache,
		})
		identityCache = cache.NoopIdentityCache{}
	}
	var redisClient *redis.Client
	if rc, ok := identityCache.(*cache.RedisIdentityCache); ok {
		redisClient = rc.Client()
		defer rc.Close()
	}

	// Initialize services
	tokenService, err := jwt.NewJWTService(jwt.Config{
		Secret:     cfg.JWTSecret,
		Algorithm:  cfg.JWTAlgorithm,
		DefaultTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize JWT service", err, nil)
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	var appMetrics *metrics.Metrics
	authOptions := []usecase.AuthOption{usecase.WithIdentityCache(identityCache)}
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		appMetrics = metrics.NewMetrics(registry)
		authOptions = append(authOptions, usecase.WithEventRecorder(appMetrics))
	}

	// Initialize use cases
	roleRegistry := usecase.NewRoleRegistry(repos.Users, repos.Services, repos.Grants)
	authUseCase := usecase.NewAuthUseCase(
		repos.Users,
		repos.Services,
		roleRegistry,
		tokenService,
		passwordService,
		structuredLogger,
		cfg.AccessTokenTTL,
		authOptions...,
	)
	userManagementUseCase := user_management.NewUserManagementUseCase(
		repos.Users,
		repos.Services,
		roleRegistry,
		passwordService,
		identityCache,
		structuredLogger,
	)
	serviceUseCase := usecase.NewServiceManagementUseCase(repos.Services)

	// The memory store starts empty; give it an admin when one is configured.
	if cfg.StoreDriver == config.StoreDriverMemory && cfg.BootstrapAdminPassword != "" {
		bootstrapper := usecase.NewBootstrapper(repos.Users, repos.Services, roleRegistry, passwordService, structuredLogger)
		if _, err := bootstrapper.EnsureAdmin(ctx, usecase.BootstrapAdminRequest{
			Username: cfg.BootstrapAdminUsername,
			Email:    cfg.BootstrapAdminEmail,
			Password: cfg.BootstrapAdminPassword,
			Service:  cfg.BootstrapAdminService,
		}); err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}
		if _, err := bootstrapper.SeedServices(ctx, cfg.SeedServices); err != nil {
			log.Fatalf("Failed to seed services: %v", err)
		}
	}

	routerConfig := router.Config{
		AuthUseCase:           authUseCase,
		UserManagementUseCase: userManagementUseCase,
		ServiceUseCase:        serviceUseCase,
		Health:                handler.NewHealthHandler(repos.DB, redisClient),
		Metrics:               appMetrics,
		CorrelationIDHeader:   cfg.LogCorrelationIDHeader,
	}
	if cfg.CORSEnabled {
		routerConfig.CORSAllowedOrigins = cfg.CORSAllowedOrigins
		routerConfig.CORSAllowCredentials = cfg.CORSAllowCredentials
	}

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router.New(routerConfig),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"address": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"address": server.Addr,
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
