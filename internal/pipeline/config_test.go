package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemasmith/schemasmith/internal/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig()
	assert.True(t, cfg.Enrich.GeneratePrimaryKeys)
	assert.True(t, cfg.Enrich.InferTypes)
	assert.True(t, cfg.Enrich.InferForeignKeys)
	assert.True(t, cfg.Enrich.ResolveHints)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
enrich:
  generate_primary_keys: false
  infer_types: true
  infer_foreign_keys: true
  resolve_hints: true
store:
  endpoint: "localhost:9000"
  access_key: minio
  secret_key: minio123
  bucket: schemas
logging:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.False(t, cfg.Enrich.GeneratePrimaryKeys)
	assert.Equal(t, "localhost:9000", cfg.Store.Endpoint)
	assert.Equal(t, "schemas", cfg.Store.Bucket)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}
