package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaspires-source/authdash/internal/config"
	"github.com/lucaspires-source/authdash/internal/kvstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AUTHDASH_CONFIG", "AUTHDASH_LISTEN", "AUTHDASH_DATA_DIR", "AUTHDASH_JWT_SECRET",
		"AUTHDASH_LOG_LEVEL", "AUTHDASH_API_URL", "AUTHDASH_API_KEY", "AUTHDASH_STORAGE",
		"AUTHDASH_STORAGE_DSN", "AUTHDASH_PER_PAGE",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "authdash.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://reqres.in", cfg.Directory.BaseURL)
	assert.Equal(t, 6, cfg.Directory.PerPage)
	assert.Zero(t, cfg.Directory.Timeout)
	assert.Equal(t, kvstore.Options{Driver: "file", Path: filepath.Join(config.DefaultDataDir, "storage.json")}, cfg.StoreOptions())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, `
listen_addr: "127.0.0.1:9000"
data_dir: /var/lib/authdash
log_level: DEBUG
notice: "**Demo** data"
cors_origins: ["http://localhost:5173"]
directory:
  base_url: https://reqres.in/
  api_key: reqres-free-v1
  per_page: 3
  timeout: 5s
storage:
  driver: sqlite
`)

	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "**Demo** data", cfg.Notice)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "https://reqres.in", cfg.Directory.BaseURL)
	assert.Equal(t, "reqres-free-v1", cfg.Directory.APIKey)
	assert.Equal(t, 3, cfg.Directory.PerPage)
	assert.Equal(t, 5*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, "/var/lib/authdash/storage.db", cfg.Storage.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "listen_addr: \":1\"\nstorage:\n  driver: file\n")
	t.Setenv("AUTHDASH_LISTEN", ":2")
	t.Setenv("AUTHDASH_API_URL", "http://127.0.0.1:8080")
	t.Setenv("AUTHDASH_STORAGE", "redis")
	t.Setenv("AUTHDASH_STORAGE_DSN", "localhost:6379")
	t.Setenv("AUTHDASH_PER_PAGE", "12")

	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":2", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Directory.BaseURL)
	assert.Equal(t, 12, cfg.Directory.PerPage)
	assert.Equal(t, kvstore.Options{Driver: "redis", Addr: "localhost:6379"}, cfg.StoreOptions())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "listen_addr: [",
		"bad level":       "log_level: loud",
		"bad driver":      "storage:\n  driver: mongo",
		"postgres no dsn": "storage:\n  driver: postgres",
		"redis no addr":   "storage:\n  driver: redis",
		"bad url":         "directory:\n  base_url: reqres.in",
		"negative page":   "directory:\n  per_page: -1",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			p := writeFile(t, body)

			_, err := config.Load(p)

			var cerr *config.Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, p, cerr.Path)
			assert.Error(t, cerr.Err)
		})
	}
}

func TestPath(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, "authdash.yaml", config.Path())
	t.Setenv("AUTHDASH_CONFIG", "/etc/authdash.yaml")
	assert.Equal(t, "/etc/authdash.yaml", config.Path())
}
