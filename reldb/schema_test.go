package reldb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoUpdateTimeStatementsPostgres(t *testing.T) {
	stmts := autoUpdateTimeStatements(DialectPostgres, "widgets", "updated_at", false)
	if assert.Len(t, stmts, 3) {
		assert.Contains(t, stmts[0], "TARDIS_AUTO_UPDATE_TIME_UPDATED_AT")
		assert.True(t, strings.Contains(stmts[1], "DROP TRIGGER IF EXISTS TARDIS_AUTO_UPDATE_TIME_ON ON widgets"))
		assert.Contains(t, stmts[2], "CREATE TRIGGER TARDIS_AUTO_UPDATE_TIME_ON BEFORE UPDATE ON widgets")
	}
}

func TestAutoUpdateTimeStatementsOracleCompatible(t *testing.T) {
	stmts := autoUpdateTimeStatements(DialectPostgres, "widgets", "updated_at", true)
	if assert.Len(t, stmts, 3) {
		assert.Contains(t, stmts[0], ":NEW.updated_at")
	}
}

func TestAutoUpdateTimeStatementsNonPostgresIsNoop(t *testing.T) {
	assert.Nil(t, autoUpdateTimeStatements(DialectMySQL, "widgets", "updated_at", false))
}
