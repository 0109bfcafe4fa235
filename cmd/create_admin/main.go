package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/infrastructure/adapter/store"
	"github.com/vobe/authz-service/infrastructure/config"
	"github.com/vobe/authz-service/infrastructure/service/logger"
	"github.com/vobe/authz-service/infrastructure/service/password"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the BOOTSTRAP_ADMIN_* settings
	username := flag.String("username", cfg.BootstrapAdminUsername, "admin username")
	email := flag.String("email", cfg.BootstrapAdminEmail, "admin email")
	userPassword := flag.String("password", cfg.BootstrapAdminPassword, "admin password (required for a new user)")
	service := flag.String("service", cfg.BootstrapAdminService, "service the admin grant is recorded on")
	flag.Parse()

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "authz-create-admin",
	})

	repos, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repos.Close()

	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)
	roleRegistry := usecase.NewRoleRegistry(repos.Users, repos.Services, repos.Grants)
	bootstrapper := usecase.NewBootstrapper(repos.Users, repos.Services, roleRegistry, passwordService, structuredLogger)

	result, err := bootstrapper.EnsureAdmin(ctx, usecase.BootstrapAdminRequest{
		Username: *username,
		Email:    *email,
		Password: *userPassword,
		Service:  *service,
	})
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Admin ready: username=%s id=%s service=%s (user created: %t, grant created: %t)\n",
		result.User.Username, result.User.ID, result.Service.Name, result.UserCreated, result.GrantCreated)
}
