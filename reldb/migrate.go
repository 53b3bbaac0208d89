package reldb

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vitaliisemenov/corefx/ferr"
)

// Migrator applies SQL migration files against a live database, scoped down
// from the teacher's MigrationManager (internal/infrastructure/migrations/
// manager.go) to the operations spec.md §4.4 actually needs: schema
// bootstrap for application-owned tables is the operator's job, not the
// framework's, so this wraps goose directly rather than re-deriving its own
// version bookkeeping, backup scheduling, or health-gating.
//
// goose operates on a *sql.DB; Client's pool is a pgxpool.Pool, so
// NewMigrator bridges the two via pgx/v5/stdlib.OpenDBFromPool, keeping one physical
// connection pool shared between query traffic and migrations instead of
// opening a second one.
type Migrator struct {
	db     *sql.DB
	dir    string
	logger *slog.Logger
}

// NewMigrator builds a Migrator over c's existing pool, pointed at the SQL
// files in dir (goose's `-- +goose Up` / `-- +goose Down` file format).
func NewMigrator(c *Client, dir string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if c.dialect != DialectPostgres {
		return nil, ferr.BadRequest("migrations require a live postgres connection, got dialect %q", c.dialect)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, ferr.Internal("setting goose dialect: %v", err)
	}

	return &Migrator{db: stdlib.OpenDBFromPool(c.pool), dir: dir, logger: logger}, nil
}

// Up applies every pending migration, grounded on MigrationManager.Up.
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.Info("applying migrations", "dir", m.dir)
	if err := goose.Up(m.db, m.dir); err != nil {
		return ferr.Internal("applying migrations: %v", err)
	}
	return nil
}

// UpTo applies pending migrations up to and including version, grounded on
// MigrationManager.UpTo.
func (m *Migrator) UpTo(ctx context.Context, version int64) error {
	m.logger.Info("applying migrations up to version", "version", version)
	if err := goose.UpTo(m.db, m.dir, version); err != nil {
		return ferr.Internal("applying migrations up to version %d: %v", version, err)
	}
	return nil
}

// UpByOne applies the single next pending migration, grounded on
// MigrationManager.UpByOne.
func (m *Migrator) UpByOne(ctx context.Context) error {
	if err := goose.UpByOne(m.db, m.dir); err != nil {
		return ferr.Internal("applying next migration: %v", err)
	}
	return nil
}

// Down rolls back the single most recent migration, grounded on
// MigrationManager.DownByOne.
func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.Down(m.db, m.dir); err != nil {
		return ferr.Internal("rolling back migration: %v", err)
	}
	return nil
}

// DownTo rolls back every migration after version, grounded on
// MigrationManager.DownTo.
func (m *Migrator) DownTo(ctx context.Context, version int64) error {
	m.logger.Info("rolling back migrations to version", "version", version)
	if err := goose.DownTo(m.db, m.dir, version); err != nil {
		return ferr.Internal("rolling back migrations to version %d: %v", version, err)
	}
	return nil
}

// Reset rolls back every applied migration, grounded on MigrationManager.Down
// (the teacher names its all-rollback operation "Down"; this keeps goose's
// own "Reset" name since Migrator.Down already means single-step here).
func (m *Migrator) Reset(ctx context.Context) error {
	m.logger.Warn("resetting all migrations")
	if err := goose.Reset(m.db, m.dir); err != nil {
		return ferr.Internal("resetting migrations: %v", err)
	}
	return nil
}

// Status prints the applied/pending state of every migration file to stdout
// (goose's own reporting format), grounded on MigrationManager.Status.
func (m *Migrator) Status(ctx context.Context) error {
	if err := goose.Status(m.db, m.dir); err != nil {
		return ferr.Internal("getting migration status: %v", err)
	}
	return nil
}

// Version reports the current schema version, grounded on
// MigrationManager.Version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, ferr.Internal("getting migration version: %v", err)
	}
	return version, nil
}

// Create writes a new timestamped, templated migration file into dir,
// grounded on MigrationManager.Create (the teacher hand-writes the file;
// this defers to goose's own Create, which does the same thing with goose's
// own timestamp/template convention instead of a second one-off format).
func (m *Migrator) Create(name, migrationType string) error {
	if err := goose.Create(m.db, m.dir, name, migrationType); err != nil {
		return ferr.Internal("creating migration file: %v", err)
	}
	return nil
}

// Redo rolls back and reapplies the most recent migration, grounded on
// MigrationManager.Redo.
func (m *Migrator) Redo(ctx context.Context) error {
	if err := goose.Down(m.db, m.dir); err != nil {
		return ferr.Internal("rolling back migration for redo: %v", err)
	}
	if err := goose.UpByOne(m.db, m.dir); err != nil {
		return ferr.Internal("reapplying migration for redo: %v", err)
	}
	return nil
}

// Close releases the *sql.DB handle wrapping the pool. It does not close the
// underlying pgxpool.Pool, which the Client that built this Migrator still
// owns.
func (m *Migrator) Close() error {
	return m.db.Close()
}
