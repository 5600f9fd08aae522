package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origDataDir := os.Getenv("DATA_DIR")
	defer os.Setenv("DATA_DIR", origDataDir)

	os.Setenv("DATA_DIR", "/var/lib/pdfpages")
	os.Setenv("FREE_DAILY_LIMIT", "5")
	os.Setenv("RENDER_DPI", "200")
	os.Setenv("QUOTA_BACKEND", "redis")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	defer func() {
		os.Unsetenv("FREE_DAILY_LIMIT")
		os.Unsetenv("RENDER_DPI")
		os.Unsetenv("QUOTA_BACKEND")
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
	}()

	cfg := Load()

	assert.Equal(t, "/var/lib/pdfpages", cfg.Storage.DataDir)
	assert.Equal(t, 5, cfg.Quota.FreeDailyLimit)
	assert.Equal(t, 200, cfg.Render.DPI)
	assert.Equal(t, "redis", cfg.Quota.Backend)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "FREE_DAILY_LIMIT", "PDFTOPPM_PATH", "QUOTA_BACKEND", "RENDER_DPI"} {
		orig := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, orig)
	}

	cfg := Load()

	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, 30, cfg.Quota.FreeDailyLimit)
	assert.Equal(t, "pdftoppm", cfg.Render.PdftoppmPath)
	assert.Equal(t, "file", cfg.Quota.Backend)
	assert.Equal(t, 144, cfg.Render.DPI)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 7, getEnvInt(key, 7))
}
