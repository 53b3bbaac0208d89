package reldb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/vitaliisemenov/corefx/ferr"
)

// DeletedRecord is one row the soft-delete engine audited or, for
// SoftDeleteCustom, handed back to the caller instead of auditing (spec
// §4.4.3 step 7's "(entity_name, record_id, content) triples").
type DeletedRecord struct {
	EntityName string
	RecordID   any
	Content    json.RawMessage
}

var placeholderRe = regexp.MustCompile(`\$\d+|\?`)

// tableNameFromSelect implements spec §4.4.3 steps 1-2: substitute every
// placeholder with '' to get a parseable template, parse it, and require a
// single Query whose body is a Select with at least one Table{name} range.
func tableNameFromSelect(sql string) (string, error) {
	template := placeholderRe.ReplaceAllString(sql, "''")

	result, err := pg_query.Parse(template)
	if err != nil {
		return "", ferr.NotFound("soft-delete-table-not-exist: parsing select: %v", err)
	}
	if len(result.Stmts) != 1 {
		return "", ferr.NotFound("soft-delete-table-not-exist: expected exactly one statement")
	}

	selectStmt := result.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil {
		return "", ferr.NotFound("soft-delete-table-not-exist: statement is not a select")
	}

	for _, from := range selectStmt.GetFromClause() {
		if rv := from.GetRangeVar(); rv != nil && rv.Relname != "" {
			return rv.Relname, nil
		}
	}
	return "", ferr.NotFound("soft-delete-table-not-exist: no table found in from clause")
}

func deletePlaceholders(dialect Dialect, n int) string {
	ph := make([]string, n)
	for i := 0; i < n; i++ {
		if dialect == DialectPostgres {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}

// collectForSoftDelete runs selectSQL, and for every returned row extracts
// pkColumn (string or integer only, spec step 5) plus the whole row as JSON.
func collectForSoftDelete(ctx context.Context, c *Conn, selectSQL string, pkColumn string, args []any) ([]DeletedRecord, error) {
	rows, err := c.q().Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	pkIdx := -1
	for i, f := range fields {
		if string(f.Name) == pkColumn {
			pkIdx = i
			break
		}
	}
	if pkIdx < 0 {
		return nil, ferr.Internal("primary key column %q not present in select result", pkColumn)
	}

	var out []DeletedRecord
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, ferr.Wrap(err)
		}

		pk := values[pkIdx]
		switch pk.(type) {
		case string, int16, int32, int64, uint64:
		default:
			return nil, ferr.Internal("primary key value of type %T is neither string nor integer", pk)
		}

		record := map[string]any{}
		for i, f := range fields {
			record[string(f.Name)] = values[i]
		}
		content, err := json.Marshal(record)
		if err != nil {
			return nil, ferr.Wrap(err)
		}

		out = append(out, DeletedRecord{RecordID: pk, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, ferr.Wrap(err)
	}
	return out, nil
}

// softDelete is the shared engine behind SoftDelete and SoftDeleteCustom
// (spec §4.4.3). auditTable is empty for the *Custom variant, which returns
// the collected rows to the caller instead of inserting audit records.
func (c *Conn) softDelete(ctx context.Context, selectSQL, pkColumn, auditTable, deleteUser string, args []any) ([]DeletedRecord, error) {
	if pkColumn == "" {
		pkColumn = "id"
	}

	table, err := tableNameFromSelect(selectSQL)
	if err != nil {
		return nil, err
	}

	records, err := collectForSoftDelete(ctx, c, selectSQL, pkColumn, args)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].EntityName = table
	}
	if len(records) == 0 {
		return nil, nil
	}

	if auditTable != "" {
		insertSQL := fmt.Sprintf(
			"INSERT INTO %s (entity_name, record_id, content, deleted_by) VALUES ($1, $2, $3, $4)",
			auditTable,
		)
		for _, r := range records {
			if _, err := c.Execute(ctx, insertSQL, r.EntityName, fmt.Sprint(r.RecordID), r.Content, deleteUser); err != nil {
				return nil, err
			}
		}
	}

	ids := make([]any, len(records))
	for i, r := range records {
		ids[i] = r.RecordID
	}
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", table, pkColumn, deletePlaceholders(c.dialect, len(ids)))
	if _, err := c.Execute(ctx, deleteSQL, ids...); err != nil {
		return nil, err
	}

	return records, nil
}

// SoftDelete runs the soft-delete engine and inserts one audit row per
// deleted record into tardis_del_record before issuing the DELETE. It
// returns the number of rows deleted.
func (c *Conn) SoftDelete(ctx context.Context, selectSQL, pkColumn, deleteUser string, args ...any) (int64, error) {
	records, err := c.softDelete(ctx, selectSQL, pkColumn, frameworkDelRecordTable, deleteUser, args)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// SoftDeleteCustom runs the soft-delete engine without inserting audit rows,
// returning the deleted (entity_name, record_id, content) triples so the
// caller can audit them however it sees fit.
func (c *Conn) SoftDeleteCustom(ctx context.Context, selectSQL, pkColumn, deleteUser string, args ...any) ([]DeletedRecord, error) {
	return c.softDelete(ctx, selectSQL, pkColumn, "", deleteUser, args)
}
