package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/DrapeCalc/internal/logger"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_DIR", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg := fromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join("/srv/drape", "quotes.db"), cfg.ResolveDBPath("/srv/drape"))
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/var/lib/drapecalc")
	t.Setenv("DB_PATH", "/tmp/q.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg := fromEnv()
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "/var/lib/drapecalc", cfg.DataDir)
	assert.Equal(t, "/tmp/q.db", cfg.ResolveDBPath(cfg.DataDir))

	lc := cfg.Logger()
	assert.Equal(t, logger.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestUnknownLogFormatFallsBackToText(t *testing.T) {
	t.Setenv("LOG_FORMAT", "yaml")
	assert.Equal(t, "text", fromEnv().LogFormat)
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	t.Setenv("A", "")
	t.Setenv("B", "")
	t.Setenv("C", "")
	t.Setenv("D", "")

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte(`
# comment

A=one
export B=two
C="three"
D='four five'
not a pair
=orphan
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "one", os.Getenv("A"))
	assert.Equal(t, "two", os.Getenv("B"))
	assert.Equal(t, "three", os.Getenv("C"))
	assert.Equal(t, "four five", os.Getenv("D"))
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8000\n"), 0o600))
	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "7000", os.Getenv("PORT"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
