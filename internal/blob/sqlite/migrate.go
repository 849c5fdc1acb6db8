package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaTable keeps migration bookkeeping next to the kv table.
const schemaTable = "kv_schema_migrations"

// migrateSchema brings the kv schema at dbPath up to date and returns the
// applied version. It uses its own connection because the migrate driver
// closes the handle it is given.
func migrateSchema(dbPath string) (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load embedded migrations: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	drv, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{MigrationsTable: schemaTable})
	if err != nil {
		return 0, fmt.Errorf("init migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return 0, fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply kv migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("kv schema version %d is dirty", version)
	}
	return version, nil
}
