package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/infrastructure/adapter/store"
	"github.com/vobe/authz-service/infrastructure/config"
	"github.com/vobe/authz-service/infrastructure/service/logger"
	"github.com/vobe/authz-service/infrastructure/service/password"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	services := flag.String("services", strings.Join(cfg.SeedServices, ","), "comma separated service names")
	flag.Parse()

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "authz-seed",
	})

	repos, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer repos.Close()

	roleRegistry := usecase.NewRoleRegistry(repos.Users, repos.Services, repos.Grants)
	bootstrapper := usecase.NewBootstrapper(
		repos.Users,
		repos.Services,
		roleRegistry,
		password.NewBcryptPasswordService(cfg.BcryptCost),
		structuredLogger,
	)

	var names []string
	for _, name := range strings.Split(*services, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		log.Fatal("no services to seed; set SEED_SERVICES or -services")
	}

	created, err := bootstrapper.SeedServices(ctx, names)
	if err != nil {
		log.Fatalf("failed to seed services: %v", err)
	}

	fmt.Printf("Seeded services: %d created, %d already present\n", created, len(names)-created)
}
