package reldb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vitaliisemenov/corefx/ferr"
)

// ActiveModel is implemented by row types that want owner/tenant/updater
// fields stamped automatically on write (spec §4.4.2). FillCtx must not
// fail; an implementation that has nothing to stamp for a given context
// simply does nothing.
type ActiveModel interface {
	FillCtx(ctx context.Context, isInsert bool)
}

func fillCtx(ctx context.Context, v any, isInsert bool) {
	if am, ok := v.(ActiveModel); ok {
		am.FillCtx(ctx, isInsert)
	}
}

// GetDTO executes sql expecting exactly one row and scans it into T by
// column name. pgx.ErrNoRows is folded into a not-found tagged error.
func GetDTO[T any](ctx context.Context, c *Conn, sql string, args ...any) (T, error) {
	var zero T
	rows, err := c.q().Query(ctx, sql, args...)
	if err != nil {
		return zero, ferr.Wrap(err)
	}
	defer rows.Close()

	v, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if err == pgx.ErrNoRows {
			return zero, ferr.NotFound("no row found")
		}
		return zero, ferr.Wrap(err)
	}
	return v, nil
}

// FindDTOs executes sql and scans every row into T by column name.
func FindDTOs[T any](ctx context.Context, c *Conn, sql string, args ...any) ([]T, error) {
	rows, err := c.q().Query(ctx, sql, args...)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	return out, nil
}

// QueryOne is an alias for GetDTO kept for parity with the spec's naming
// (get_dto and query_one differ in the original only by which callers reach
// for them, not by behavior).
func QueryOne[T any](ctx context.Context, c *Conn, sql string, args ...any) (T, error) {
	return GetDTO[T](ctx, c, sql, args...)
}

// QueryAll is an alias for FindDTOs, kept for the same reason as QueryOne.
func QueryAll[T any](ctx context.Context, c *Conn, sql string, args ...any) ([]T, error) {
	return FindDTOs[T](ctx, c, sql, args...)
}

// Count executes sql, which must return a single row with a "count" column,
// and returns it. Used directly by callers and internally by PaginateDTOs.
func Count(ctx context.Context, c *Conn, sql string, args ...any) (int64, error) {
	row := c.q().QueryRow(ctx, sql, args...)
	var n int64
	if err := row.Scan(&n); err != nil {
		if err == pgx.ErrNoRows {
			return 0, ferr.Internal("count query returned no rows")
		}
		return 0, ferr.Wrap(err)
	}
	return n, nil
}

// PaginateDTOs implements spec §4.4.1: append LIMIT/OFFSET to sql, execute
// it into T, then run a COUNT(1) wrapper query over the original sql to get
// the total. page is 1-based.
func PaginateDTOs[T any](ctx context.Context, c *Conn, sql string, page, pageSize int, args ...any) ([]T, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	paged := fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize)
	rows, err := FindDTOs[T](ctx, c, paged, args...)
	if err != nil {
		return nil, 0, err
	}

	countSQL := fmt.Sprintf("SELECT COUNT(1) AS count FROM ( %s ) _%d", sql, nowMillis())
	total, err := Count(ctx, c, countSQL, args...)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// InsertOne stamps model via FillCtx(ctx, true), then runs sql/args (the
// caller is responsible for building sql from the already-stamped model)
// and requires exactly one row affected.
func InsertOne(ctx context.Context, c *Conn, model any, sql string, args ...any) error {
	fillCtx(ctx, model, true)
	return c.ExecuteOne(ctx, sql, args...)
}

// InsertMany stamps every element of models via FillCtx(ctx, true) before the
// caller-supplied batch insert runs.
func InsertMany(ctx context.Context, c *Conn, models []any, sql string, args ...any) (int64, error) {
	for _, m := range models {
		fillCtx(ctx, m, true)
	}
	return c.ExecuteMany(ctx, sql, args...)
}

// UpdateOne stamps model via FillCtx(ctx, false) before running sql/args and
// requires exactly one row affected.
func UpdateOne(ctx context.Context, c *Conn, model any, sql string, args ...any) error {
	fillCtx(ctx, model, false)
	return c.ExecuteOne(ctx, sql, args...)
}

// UpdateMany stamps every element of models via FillCtx(ctx, false) before
// the caller-supplied batch update runs.
func UpdateMany(ctx context.Context, c *Conn, models []any, sql string, args ...any) (int64, error) {
	for _, m := range models {
		fillCtx(ctx, m, false)
	}
	return c.ExecuteMany(ctx, sql, args...)
}
