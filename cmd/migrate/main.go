package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vobe/authz-service/infrastructure/adapter/postgres"
	"github.com/vobe/authz-service/infrastructure/adapter/store"
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	steps := flag.Int("steps", 0, "number of migrations to revert with -mode=down (0 = all)")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      "text",
		ServiceName: "authz-migrate",
	})

	db, err := store.OpenPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	migrator := postgres.NewMigrator(db, dir, structuredLogger)

	switch strings.ToLower(*mode) {
	case postgres.DirectionUp:
		count, err := migrator.Up(ctx)
		if err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		log.Printf("Migration up completed successfully (%d applied)", count)
	case postgres.DirectionDown:
		count, err := migrator.Down(ctx, *steps)
		if err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Printf("Migration down completed successfully (%d reverted)", count)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
