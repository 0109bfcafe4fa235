package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/infrastructure/adapter/memory"
	"github.com/vobe/authz-service/infrastructure/adapter/postgres"
	"github.com/vobe/authz-service/infrastructure/config"
)

// Repositories groups the three store ports over one backend. DB is nil for
// the memory driver.
type Repositories struct {
	Users    outbound.UserRepository
	Services outbound.ServiceRepository
	Grants   outbound.RoleGrantRepository
	DB       *sql.DB
}

// Open connects the backend named by driver.
func Open(ctx context.Context, driver, databaseURL string) (*Repositories, error) {
	switch driver {
	case config.StoreDriverMemory:
		s := memory.NewStore()
		return &Repositories{
			Users:    s.Users(),
			Services: s.Services(),
			Grants:   s.Grants(),
		}, nil
	case config.StoreDriverPostgres:
		db, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:    postgres.NewUserRepositoryAdapter(db),
			Services: postgres.NewServiceRepositoryAdapter(db),
			Grants:   postgres.NewRoleGrantRepositoryAdapter(db),
			DB:       db,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStoreDriver, driver)
	}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
