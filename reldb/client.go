// Package reldb wraps a pgxpool.Pool with the framework's connection
// abstraction: paginated DTO queries, a context-aware active-model hook, a
// soft-delete engine, and schema bootstrap for the framework's own tables
// (spec §4.4).
package reldb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Dialect distinguishes the small set of SQL-generation differences the
// client needs to know about; only Postgres has a live driver, the rest are
// kept so SQL generation (schema bootstrap, soft-delete placeholders) can
// still target them from tooling that doesn't need a live connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectOracle   Dialect = "oracle"
)

// Client owns one pgxpool.Pool and the dialect/compat flags derived from its
// DBModuleConfig (teacher's PostgresPool, generalized to the framework's
// config shape and dialect-dispatch needs).
type Client struct {
	pool    *pgxpool.Pool
	dialect Dialect
	logger  *slog.Logger
	closed  atomic.Bool
}

// New connects a Client from cfg, then bootstraps the framework's own tables
// in a single transaction (spec §4.4.4).
func New(ctx context.Context, cfg fwconfig.DBModuleConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialect, tzStmt, err := parseTimezoneHook(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, ferr.BadRequest("parsing database url: %v", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if tzStmt != "" {
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, tzStmt)
			return err
		}
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, ferr.Internal("connecting to database: %v", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, ferr.Internal("pinging database: %v", err)
	}

	dialectOverride := Dialect(strings.ToLower(cfg.Compatible))
	if dialectOverride != "" {
		dialect = dialectOverride
	}

	c := &Client{pool: pool, dialect: dialect, logger: logger}

	if err := c.bootstrapFrameworkTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return c, nil
}

// parseTimezoneHook inspects the url's timezone= query parameter and returns
// the dialect-appropriate SET statement for the after_connect hook (spec
// §4.4 "If the URL query contains timezone=...").
func parseTimezoneHook(dsn string) (Dialect, string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return DialectPostgres, "", ferr.BadRequest("parsing database url: %v", err)
	}
	tz := u.Query().Get("timezone")
	if tz == "" {
		return DialectPostgres, "", nil
	}
	switch {
	case strings.HasPrefix(u.Scheme, "postgres"):
		return DialectPostgres, fmt.Sprintf("SET TIME ZONE %s", pgQuoteLiteral(tz)), nil
	case strings.HasPrefix(u.Scheme, "mysql"):
		return DialectMySQL, fmt.Sprintf("SET time_zone = %s", pgQuoteLiteral(tz)), nil
	default:
		return DialectPostgres, "", ferr.BadRequest("dialect for scheme %q does not support timezone hook", u.Scheme)
	}
}

func pgQuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Pool returns the underlying pool for advanced use (health checks, metrics).
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// Dialect reports the client's resolved SQL dialect.
func (c *Client) Dialect() Dialect { return c.dialect }

// Conn returns a top-level Connection bound to the pool (no open transaction).
func (c *Client) Conn() *Conn {
	return &Conn{pool: c.pool, dialect: c.dialect}
}

// Close closes the pool.
func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.pool.Close()
	}
}

// Health pings the pool.
func (c *Client) Health(ctx context.Context) error {
	if c.closed.Load() {
		return ferr.ServiceUnavailable("database client is closed")
	}
	if err := c.pool.Ping(ctx); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
