package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FUELDESK_CONFIG", "APP_ENV", "APP_PORT", "CORS_ORIGINS", "DATABASE_URL",
		"DATABASE_MAX_CONNS", "STORAGE_DRIVER", "LOG_LEVEL", "JWT_SECRET",
		"SCHEDULER_TIMEZONE", "SCHEDULER_ENABLED", "SCHEDULER_EMBEDDED",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "fueldesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
  read_timeout: 5s
storage:
  driver: memory
auth:
  jwt_secret: from-file
scheduler:
  timezone: UTC
  daily_at: "01:00"
plates:
  prefix: FLT
`), 0o600))

	t.Setenv("FUELDESK_CONFIG", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("SCHEDULER_EMBEDDED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "01:00", cfg.Scheduler.DailyAt)
	assert.Equal(t, "00:10", cfg.Scheduler.MonthlyAt)
	assert.True(t, cfg.Scheduler.Embedded)
	assert.Equal(t, "FLT", cfg.Plates.Prefix)
	assert.Equal(t, 4, cfg.Plates.PadWidth)
}

func TestLoad_Validation(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "s")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage driver "sqlite"`)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.timezone")
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.Timezone = ""
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
