package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DATABASE":   "records.db",
		"AUTH_DISABLED": "true",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.RefetchDebounce)
	assert.Equal(t, 30*time.Second, cfg.LiveHeartbeat)
	assert.True(t, cfg.AuthDisabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRequiresAuthorizer(t *testing.T) {
	setEnv(t, map[string]string{"DB_DATABASE": "records.db"})

	_, err := Load()
	assert.ErrorContains(t, err, "AUTHZ_URL")

	t.Setenv("AUTHZ_URL", "http://authz:8080")
	_, err = Load()
	assert.ErrorContains(t, err, "AUTHZ_CLIENT_ID")
}

func TestLoadServerDatabaseNeedsUser(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DATABASE":   "records",
		"DB_TYPE":       "Postgres",
		"AUTH_DISABLED": "1",
	})

	_, err := Load()
	assert.ErrorContains(t, err, "DB_APP_USER")

	t.Setenv("DB_TYPE", "oracle")
	_, err = Load()
	assert.ErrorContains(t, err, "unsupported DB_TYPE")
}

func TestDurations(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DATABASE":      "records.db",
		"AUTH_DISABLED":    "true",
		"CACHE_TTL":        "1m",
		"REFETCH_DEBOUNCE": "150",
		"LIVE_HEARTBEAT":   "garbage",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 150*time.Millisecond, cfg.RefetchDebounce)
	assert.Equal(t, 30*time.Second, cfg.LiveHeartbeat)
}

func TestNATSExclusive(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DATABASE":   "records.db",
		"AUTH_DISABLED": "true",
		"NATS_URL":      "nats://localhost:4222",
		"NATS_EMBEDDED": "true",
	})

	_, err := Load()
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DATABASE=from-file.db\nAUTH_DISABLED=true\nPORT=4100\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("PORT", "5000")
	// godotenv sets variables for the process; clear them after the test.
	t.Cleanup(func() {
		os.Unsetenv("DB_DATABASE")
		os.Unsetenv("AUTH_DISABLED")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBDatabase)
	assert.Equal(t, "5000", cfg.Port)
}

func TestAdminUserFallback(t *testing.T) {
	cfg := &Config{DBAppUser: "app", DBAppPassword: "secret"}
	user, pass := cfg.AdminUser()
	assert.Equal(t, "app", user)
	assert.Equal(t, "secret", pass)

	cfg.DBAdminUser = "admin"
	cfg.DBAdminPassword = "root"
	user, pass = cfg.AdminUser()
	assert.Equal(t, "admin", user)
	assert.Equal(t, "root", pass)
}
