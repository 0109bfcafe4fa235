package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vobe/authz-service/infrastructure/service/logger"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var ErrInvalidMigrationName = errors.New("migration file name must look like 001_name.up.sql")

// Migration is one versioned SQL file, e.g. 001_create_auth_tables.up.sql.
type Migration struct {
	Version   int
	Name      string
	Direction string
	Path      string
}

type Migrator struct {
	db  *sql.DB
	dir string
	log logger.Logger
}

func NewMigrator(db *sql.DB, dir string, log logger.Logger) *Migrator {
	return &Migrator{db: db, dir: dir, log: log}
}

// LoadMigrations reads dir and returns its migrations sorted by version.
// Files without a numeric prefix are skipped.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		migration, err := parseMigrationName(e.Name())
		if err != nil {
			continue
		}
		migration.Path = filepath.Join(dir, e.Name())
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func parseMigrationName(filename string) (Migration, error) {
	lower := strings.ToLower(filename)
	direction := DirectionUp
	base := strings.TrimSuffix(lower, ".sql")
	switch {
	case strings.HasSuffix(base, ".down"):
		direction = DirectionDown
		base = strings.TrimSuffix(base, ".down")
	case strings.HasSuffix(base, ".up"):
		base = strings.TrimSuffix(base, ".up")
	}

	verStr, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return Migration{}, ErrInvalidMigrationName
	}
	version, err := strconv.Atoi(verStr)
	if err != nil || version < 0 {
		return Migration{}, ErrInvalidMigrationName
	}

	return Migration{Version: version, Name: name, Direction: direction}, nil
}

func (m *Migrator) ensureSchemaMigrations(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context, version int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	return exists, err
}

// Up applies every pending up migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	return m.run(ctx, DirectionUp, 0)
}

// Down reverts at most steps applied migrations, newest first. steps <= 0
// reverts all of them.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	return m.run(ctx, DirectionDown, steps)
}

func (m *Migrator) run(ctx context.Context, direction string, limit int) (int, error) {
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return 0, err
	}

	all, err := LoadMigrations(m.dir)
	if err != nil {
		return 0, err
	}

	var pending []Migration
	for _, migration := range all {
		if migration.Direction == direction {
			pending = append(pending, migration)
		}
	}
	if direction == DirectionDown {
		sort.Slice(pending, func(i, j int) bool { return pending[i].Version > pending[j].Version })
	}

	count := 0
	for _, migration := range pending {
		if limit > 0 && count >= limit {
			break
		}

		applied, err := m.applied(ctx, migration.Version)
		if err != nil {
			return count, fmt.Errorf("failed to check migration %03d: %w", migration.Version, err)
		}
		if applied == (direction == DirectionUp) {
			continue
		}

		if err := m.apply(ctx, migration); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *Migrator) apply(ctx context.Context, migration Migration) error {
	script, err := os.ReadFile(migration.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", migration.Path, err)
	}

	m.log.Info(ctx, "Applying migration", map[string]interface{}{
		"version":   migration.Version,
		"name":      migration.Name,
		"direction": migration.Direction,
	})

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed applying %s: %w", migration.Path, err)
	}

	if migration.Direction == DirectionUp {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, migration.Version, migration.Name)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, migration.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to record migration %03d: %w", migration.Version, err)
	}

	return tx.Commit()
}
