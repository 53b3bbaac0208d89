//go:build integration
// +build integration

package reldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// TestClientHealthAgainstRealPostgres spins up a disposable Postgres
// container (grounded on the teacher's internal/infrastructure/repository/
// postgres_history_test.go setupTestDB) and exercises New/Health/Close
// against it end to end.
func TestClientHealthAgainstRealPostgres(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("corefx_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := New(ctx, fwconfig.DBModuleConfig{URL: connStr}, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	require.NoError(t, client.Health(ctx))
	require.Equal(t, DialectPostgres, client.Dialect())
}

// TestConfigEntryCRUDAgainstRealPostgres exercises the tardis_config
// dictionary (spec.md §3 "Config dictionary entry") end to end: Add rejects a
// duplicate key, Update rejects a missing one, Get/List/FindLike/Delete all
// round-trip through the live table bootstrapped by New.
func TestConfigEntryCRUDAgainstRealPostgres(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("corefx_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := New(ctx, fwconfig.DBModuleConfig{URL: connStr}, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	conn := client.Conn()

	require.NoError(t, conn.AddConfigEntry(ctx, "feature.flag", "on", "alice"))
	require.Error(t, conn.AddConfigEntry(ctx, "feature.flag", "on", "alice"), "duplicate key must conflict")

	entry, err := conn.GetConfigEntry(ctx, "feature.flag")
	require.NoError(t, err)
	require.Equal(t, "on", entry.Value)
	require.Equal(t, "alice", entry.Creator)
	require.Equal(t, "alice", entry.Updater)

	require.Error(t, conn.UpdateConfigEntry(ctx, "missing.key", "x", "bob"), "missing key must not-found")

	require.NoError(t, conn.UpdateConfigEntry(ctx, "feature.flag", "off", "bob"))
	entry, err = conn.GetConfigEntry(ctx, "feature.flag")
	require.NoError(t, err)
	require.Equal(t, "off", entry.Value)
	require.Equal(t, "bob", entry.Updater)

	require.NoError(t, conn.SetConfigEntry(ctx, "feature.flag2", "v1", "carol"))
	require.NoError(t, conn.SetConfigEntry(ctx, "feature.flag2", "v2", "carol"))
	entry, err = conn.GetConfigEntry(ctx, "feature.flag2")
	require.NoError(t, err)
	require.Equal(t, "v2", entry.Value)

	found, err := conn.FindConfigEntriesLike(ctx, "feature.")
	require.NoError(t, err)
	require.Len(t, found, 2)

	all, err := conn.ListConfigEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, conn.DeleteConfigEntry(ctx, "feature.flag"))
	_, err = conn.GetConfigEntry(ctx, "feature.flag")
	require.Error(t, err)
}
