package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mavton23/rentix/internal/domain"
)

// isolate runs the test in an empty directory with no rentix variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{"RENTIX_API_URL", "API_URL", "RENTIX_LOGGING_LEVEL", "RENTIX_STORAGE_DRIVER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Addr)
	assert.False(t, cfg.Telemetry.Enabled)

	assert.ErrorIs(t, cfg.RequireAPI(), domain.ErrMissingBaseURL)
}

func TestLoad_PrimaryEnvWins(t *testing.T) {
	isolate(t)
	t.Setenv("API_URL", "http://secondary.local")
	t.Setenv("RENTIX_API_URL", "http://primary.local")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://primary.local", cfg.API.URL)
	assert.NoError(t, cfg.RequireAPI())
}

func TestLoad_SecondaryEnv(t *testing.T) {
	isolate(t)
	t.Setenv("API_URL", "http://secondary.local")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://secondary.local", cfg.API.URL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RENTIX_API_URL=http://dotenv.local\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RENTIX_API_URL") })

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.local", cfg.API.URL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rentix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  url: http://file.local
  timeout: 10s
storage:
  driver: redis
  redis:
    addr: redis:6379
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://file.local", cfg.API.URL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)

	t.Setenv("RENTIX_LOGGING_LEVEL", "loud")
	_, err := Load("", "")
	assert.Error(t, err)

	t.Setenv("RENTIX_LOGGING_LEVEL", "info")
	t.Setenv("RENTIX_STORAGE_DRIVER", "sqlite")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestRequireAPI_Relative(t *testing.T) {
	cfg := &Config{API: APIConfig{URL: "api.local"}}
	assert.Error(t, cfg.RequireAPI())
}
