package fwconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadDefaultAndProfileLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf-default.yaml", `
fw:
  db:
    enabled: true
    default:
      url: "postgres://localhost:5432/default_db"
      max_connections: 10
  app:
    name: demo
`)
	writeFile(t, dir, "conf-test.yaml", `
fw:
  db:
    default:
      url: "postgres://localhost:5432/test_db"
  app:
    name: demo-test
`)

	t.Setenv("PROFILE", "test")
	tree, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/test_db", tree.FW.DB.Default.URL)
	assert.Equal(t, int32(10), tree.FW.DB.Default.MaxConnections)
	assert.Equal(t, "demo-test", tree.FW.App.Name)
	assert.True(t, tree.FW.DB.Enabled)
}

func TestLoadEnvOverlayOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf-default.yaml", `
fw:
  db:
    enabled: true
    default:
      url: "postgres://localhost:5432/default_db"
`)
	t.Setenv("PROFILE", "")
	t.Setenv("TARDIS_FW__DB__DEFAULT__URL", "postgres://from-env:5432/db")

	tree, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env:5432/db", tree.FW.DB.Default.URL)
}

func TestLoadRejectsShortSalt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "conf-default.yaml", `
fw:
  adv:
    salt: "tooshort"
`)
	t.Setenv("PROFILE", "")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadEmptyDirStillReadsEnv(t *testing.T) {
	t.Setenv("PROFILE", "")
	t.Setenv("TARDIS_FW__APP__NAME", "from-env-only")
	tree, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env-only", tree.FW.App.Name)
}

func TestCustomConfigDecodeFallsBackToDefaultModule(t *testing.T) {
	cfg := CustomConfig{
		CSM: map[string]map[string]any{
			"": {"greeting": "hello"},
		},
	}
	var out struct {
		Greeting string `mapstructure:"greeting"`
	}
	require.NoError(t, cfg.Decode("billing", &out))
	assert.Equal(t, "hello", out.Greeting)
}

func TestCustomConfigDecodeErrorsWithNoSource(t *testing.T) {
	cfg := CustomConfig{}
	var out struct{}
	assert.Error(t, cfg.Decode("billing", &out))
}
