package reldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNameFromSelect(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		want    string
		wantErr bool
	}{
		{
			name: "simple select",
			sql:  "SELECT id, name FROM accounts WHERE tenant_id = $1",
			want: "accounts",
		},
		{
			name: "select with question mark placeholder",
			sql:  "SELECT id FROM invoices WHERE status = ?",
			want: "invoices",
		},
		{
			name:    "not a select",
			sql:     "UPDATE accounts SET name = $1",
			wantErr: true,
		},
		{
			name:    "no from clause",
			sql:     "SELECT 1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tableNameFromSelect(tt.sql)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeletePlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", deletePlaceholders(DialectPostgres, 3))
	assert.Equal(t, "?, ?, ?", deletePlaceholders(DialectMySQL, 3))
	assert.Equal(t, "", deletePlaceholders(DialectPostgres, 0))
}
