package reldb

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitaliisemenov/corefx/ferr"
)

// ConfigEntry is one row of tardis_config (spec.md §3 "Config dictionary
// entry": key (primary), value (text), creator, updater, created-at,
// updated-at). Grounded on the original tardis_db_config.rs Model/
// TardisDictResp shape, keeping the k/v column names from the original while
// following this codebase's established created_at/updated_at naming for
// the timestamp columns.
type ConfigEntry struct {
	Key       string    `db:"k"`
	Value     string    `db:"v"`
	Creator   string    `db:"creator"`
	Updater   string    `db:"updater"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetConfigEntry looks up one row by key, grounded on TardisDataDict::get.
// A missing key is a not-found tagged error.
func (c *Conn) GetConfigEntry(ctx context.Context, key string) (ConfigEntry, error) {
	sql := "SELECT k, v, creator, updater, created_at, updated_at FROM " + frameworkConfigTable + " WHERE k = $1"
	return GetDTO[ConfigEntry](ctx, c, sql, key)
}

// FindConfigEntriesLike lists every row whose key starts with prefix,
// grounded on TardisDataDict::find_like's "{key}%" LIKE filter.
func (c *Conn) FindConfigEntriesLike(ctx context.Context, prefix string) ([]ConfigEntry, error) {
	sql := "SELECT k, v, creator, updater, created_at, updated_at FROM " + frameworkConfigTable + " WHERE k LIKE $1 ORDER BY k"
	return FindDTOs[ConfigEntry](ctx, c, sql, prefix+"%")
}

// ListConfigEntries returns every row, grounded on TardisDataDict::find_all.
func (c *Conn) ListConfigEntries(ctx context.Context) ([]ConfigEntry, error) {
	sql := "SELECT k, v, creator, updater, created_at, updated_at FROM " + frameworkConfigTable + " ORDER BY k"
	return FindDTOs[ConfigEntry](ctx, c, sql)
}

// AddConfigEntry inserts a new row with creator and updater both set to user,
// grounded on TardisDataDict::add. Fails with a conflict error if key already
// exists.
func (c *Conn) AddConfigEntry(ctx context.Context, key, value, user string) error {
	sql := `INSERT INTO ` + frameworkConfigTable + ` (k, v, creator, updater, created_at, updated_at)
		VALUES ($1, $2, $3, $3, now(), now())`
	if err := c.ExecuteOne(ctx, sql, key, value, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ferr.Conflict("config entry %q already exists", key)
		}
		return err
	}
	return nil
}

// UpdateConfigEntry overwrites an existing row's value and updater, grounded
// on TardisDataDict::update. Fails with not-found if key doesn't exist.
func (c *Conn) UpdateConfigEntry(ctx context.Context, key, value, updater string) error {
	sql := `UPDATE ` + frameworkConfigTable + ` SET v = $2, updater = $3, updated_at = now() WHERE k = $1`
	n, err := c.Execute(ctx, sql, key, value, updater)
	if err != nil {
		return err
	}
	if n == 0 {
		return ferr.NotFound("config entry %q does not exist", key)
	}
	return nil
}

// SetConfigEntry upserts: AddConfigEntry on a fresh key, UpdateConfigEntry on
// an existing one. Convenience wrapper with no direct original-source
// counterpart (the original exposes add/update separately and leaves the
// upsert decision to the caller).
func (c *Conn) SetConfigEntry(ctx context.Context, key, value, user string) error {
	sql := `INSERT INTO ` + frameworkConfigTable + ` (k, v, creator, updater, created_at, updated_at)
		VALUES ($1, $2, $3, $3, now(), now())
		ON CONFLICT (k) DO UPDATE SET v = excluded.v, updater = excluded.updater, updated_at = now()`
	return c.ExecuteOne(ctx, sql, key, value, user)
}

// DeleteConfigEntry removes a row by key, grounded on TardisDataDict::delete.
// Deleting a missing key is not an error (the original's delete_many is
// likewise unconditionally successful on zero matches).
func (c *Conn) DeleteConfigEntry(ctx context.Context, key string) error {
	sql := "DELETE FROM " + frameworkConfigTable + " WHERE k = $1"
	_, err := c.Execute(ctx, sql, key)
	return err
}
