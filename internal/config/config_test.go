package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pin-admin/internal/apperror"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"PORT":           "9000",
		"API_BASE_URL":   "https://api.example.com",
		"API_TIMEOUT":    "3s",
		"REDIS_ADDR":     "localhost:6379",
		"COOKIE_SECURE":  "true",
		"SNAPSHOT_TTL":   "1m",
		"LOG_FORMAT":     "json",
		"SESSION_SECRET": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout.Duration)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, time.Minute, cfg.SnapshotTTL.Duration)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.SessionSecret, "empty values keep the default")
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"port":     {"PORT": "eighty"},
		"timeout":  {"API_TIMEOUT": "soon"},
		"bool":     {"COOKIE_SECURE": "maybe"},
		"redis db": {"REDIS_DB": "x"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(env(vars))
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7070
api_base_url: http://api.internal:3000
session_secret: from-the-yaml-file-1234
snapshot_ttl: 90s
timezone: UTC
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.readFile(path))
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "http://api.internal:3000", cfg.APIBaseURL)
	assert.Equal(t, 90*time.Second, cfg.SnapshotTTL.Duration)
	assert.Equal(t, "data/admin.db", cfg.DBPath, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestReadFile_Missing(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.readFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestReadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot_ttl: forever\n"), 0o600))
	cfg := Default()
	assert.Error(t, cfg.readFile(path))
}

func TestValidate(t *testing.T) {
	good := Default()
	good.SessionSecret = "0123456789abcdef"
	require.NoError(t, good.Validate())

	tests := map[string]func(*Config){
		"short secret": func(c *Config) { c.SessionSecret = "short" },
		"bad port":     func(c *Config) { c.Port = 0 },
		"bad base url": func(c *Config) { c.APIBaseURL = "localhost:3000" },
		"bad timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := good
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)
		})
	}
}
