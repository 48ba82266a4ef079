package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {

	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 16, cfg.MatrixCache)
	assert.Equal(t, filepath.Join("data", "db", "atlas.db"), cfg.DBPath())
}

func TestFromEnvOverrides(t *testing.T) {

	cfg, err := FromEnv(envMap(map[string]string{
		"PHAGEATLAS_DATA":         "/srv/atlas",
		"PHAGEATLAS_ADDR":         "127.0.0.1:9000",
		"PHAGEATLAS_LOG_LEVEL":    "DEBUG",
		"PHAGEATLAS_MATRIX_CACHE": "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/srv/atlas", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 0, cfg.MatrixCache)
}

func TestFromEnvRejectsBadValues(t *testing.T) {

	_, err := FromEnv(envMap(map[string]string{"PHAGEATLAS_LOG_LEVEL": "loud"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"PHAGEATLAS_MATRIX_CACHE": "-3"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"PHAGEATLAS_MATRIX_CACHE": "many"}))
	assert.Error(t, err)
}

func TestLoadDotenv(t *testing.T) {

	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("PHAGEATLAS_ADDR=127.0.0.1:7777\n"), 0o644))

	t.Setenv("PHAGEATLAS_ADDR", "")
	os.Unsetenv("PHAGEATLAS_ADDR")

	cfg, err := Load(dotenv)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Addr)
}

func TestPrepareDataDir(t *testing.T) {

	cfg := Config{DataDir: filepath.Join(t.TempDir(), "atlas")}
	require.NoError(t, cfg.PrepareDataDir())

	info, err := os.Stat(filepath.Dir(cfg.DBPath()))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
