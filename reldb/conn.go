package reldb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaliisemenov/corefx/ferr"
)

// querier is the subset of pgx's API both a pool and a transaction satisfy;
// Conn dispatches every operation through it so callers never need to know
// whether a transaction is open (spec §4.4 "Connection abstraction").
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn holds either a shared reference to the pool or an owned transaction.
// Every query method dispatches on which is set.
type Conn struct {
	pool    *pgxpool.Pool
	tx      pgx.Tx
	dialect Dialect
}

func (c *Conn) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.pool
}

// InTx reports whether this Conn holds an open transaction.
func (c *Conn) InTx() bool { return c.tx != nil }

// Begin starts a new transaction and returns a Conn bound to it. Per spec,
// begin() "stores a new transaction handle" on the connection; the Go
// rendition returns a fresh value instead of mutating this one in place, so
// callers cannot accidentally keep issuing pool-level queries against a Conn
// that believes it is inside a transaction.
func (c *Conn) Begin(ctx context.Context) (*Conn, error) {
	if c.tx != nil {
		return nil, ferr.BadRequest("connection already has an open transaction")
	}
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	return &Conn{pool: c.pool, tx: tx, dialect: c.dialect}, nil
}

// Commit commits and consumes the held transaction.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return ferr.BadRequest("no open transaction to commit")
	}
	err := c.tx.Commit(ctx)
	c.tx = nil
	if err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

// Rollback rolls back and consumes the held transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return ferr.BadRequest("no open transaction to roll back")
	}
	err := c.tx.Rollback(ctx)
	c.tx = nil
	if err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

// Execute runs sql for side effects and returns the number of affected rows.
func (c *Conn) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.q().Exec(ctx, sql, args...)
	if err != nil {
		return 0, ferr.Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// ExecuteOne runs sql and requires exactly one row to have been affected.
func (c *Conn) ExecuteOne(ctx context.Context, sql string, args ...any) error {
	n, err := c.Execute(ctx, sql, args...)
	if err != nil {
		return err
	}
	if n != 1 {
		return ferr.Internal("expected exactly one row affected, got %d", n)
	}
	return nil
}

// ExecuteMany runs sql and requires at least one row to have been affected.
func (c *Conn) ExecuteMany(ctx context.Context, sql string, args ...any) (int64, error) {
	n, err := c.Execute(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ferr.NotFound("no rows affected")
	}
	return n, nil
}
