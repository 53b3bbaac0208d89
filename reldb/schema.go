package reldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitaliisemenov/corefx/ferr"
)

// Framework-owned table names (spec §4.4.4 "Framework tables... config
// dictionary, soft-delete audit").
const (
	frameworkConfigTable    = "tardis_config"
	frameworkDelRecordTable = "tardis_del_record"
)

// bootstrapFrameworkTables installs the framework's own tables in a single
// transaction: CREATE TABLEs, then CREATE INDEXes, then commit (spec
// §4.4.4). The framework tables need no function SQL.
func (c *Client) bootstrapFrameworkTables(ctx context.Context) error {
	if c.dialect != DialectPostgres {
		// Schema bootstrap is Postgres-only; other dialects are SQL-generation
		// targets (autoUpdateTimeStatements, deletePlaceholders) only, not
		// live-connected here.
		return nil
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return ferr.Wrap(err)
	}
	defer tx.Rollback(ctx)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k VARCHAR(255) PRIMARY KEY,
			v TEXT NOT NULL,
			creator VARCHAR(255) NOT NULL DEFAULT '',
			updater VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, frameworkConfigTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			entity_name VARCHAR(255) NOT NULL,
			record_id VARCHAR(255) NOT NULL,
			content JSONB NOT NULL,
			deleted_by VARCHAR(255),
			deleted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, frameworkDelRecordTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_entity ON %s (entity_name)`,
			frameworkDelRecordTable, frameworkDelRecordTable),
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return ferr.Internal("bootstrapping framework tables: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

// SchemaModel is implemented by active-model types that want their table
// created and kept up to date by the framework's bootstrap pass (spec
// §4.4.4: "An active model may declare create_table_statement/
// create_index_statement/additional function SQL strings").
type SchemaModel interface {
	TableName() string
	CreateTableStatement(dialect Dialect) string
	CreateIndexStatements() []string
}

// AutoUpdateTimeField is implemented by a SchemaModel that also wants the
// framework to synthesize an update-time trigger for one of its columns.
type AutoUpdateTimeField interface {
	UpdateTimeField() string
}

// BootstrapModel installs m's table, indexes, and function SQL in a single
// transaction, synthesizing an auto-update-time trigger when m also
// implements AutoUpdateTimeField (spec §4.4.4).
func (c *Client) BootstrapModel(ctx context.Context, m SchemaModel, oracleCompatible bool) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return ferr.Wrap(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.CreateTableStatement(c.dialect)); err != nil {
		return ferr.Internal("creating table %s: %v", m.TableName(), err)
	}
	for _, stmt := range m.CreateIndexStatements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return ferr.Internal("creating index for %s: %v", m.TableName(), err)
		}
	}

	if field, ok := m.(AutoUpdateTimeField); ok && field.UpdateTimeField() != "" {
		for _, stmt := range autoUpdateTimeStatements(c.dialect, m.TableName(), field.UpdateTimeField(), oracleCompatible) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return ferr.Internal("installing auto-update-time trigger for %s: %v", m.TableName(), err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

// autoUpdateTimeStatements implements spec §4.4.4: for Postgres, a
// TARDIS_AUTO_UPDATE_TIME_<field> function plus a drop-then-create trigger;
// in PL/SQL form when oracleCompatible; on MySQL/SQLite no extra SQL is
// needed since column default/on-update clauses cover it.
func autoUpdateTimeStatements(dialect Dialect, table, field string, oracleCompatible bool) []string {
	fnName := "TARDIS_AUTO_UPDATE_TIME_" + strings.ToUpper(field)
	triggerName := "TARDIS_AUTO_UPDATE_TIME_ON"

	if dialect != DialectPostgres {
		return nil
	}

	if oracleCompatible {
		return []string{
			fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS TRIGGER AS $$
BEGIN
  :NEW.%s := SYSTIMESTAMP;
  RETURN :NEW;
END;
$$ LANGUAGE plpgsql`, fnName, field),
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, triggerName, table),
			fmt.Sprintf(`CREATE TRIGGER %s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE PROCEDURE %s()`,
				triggerName, table, fnName),
		}
	}

	return []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS TRIGGER AS $$
BEGIN
  NEW.%s = now();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql`, fnName, field),
		fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, triggerName, table),
		fmt.Sprintf(`CREATE TRIGGER %s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE PROCEDURE %s()`,
			triggerName, table, fnName),
	}
}
