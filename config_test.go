package codebuddy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CODEBUDDY_ADDR", "")
	t.Setenv("DATABASE_PATH", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "CodeBuddy", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "data/codebuddy.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 20, cfg.Chat.PerMinute)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Error(t, cfg.validate(), "session secret is required")
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebuddy.yaml")
	data := `
name: Bug Club
url: https://bugs.example.com
session_secret: from-file
catalog_cache_ttl: 30s
google:
  client_id: file-client
passcode:
  cooldown: 45s
  max_attempts: 3
chat:
  per_minute: 60
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CODEBUDDY_ADDR", ":8080")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Bug Club", cfg.Name)
	assert.Equal(t, "https://bugs.example.com", cfg.URL)
	assert.Equal(t, "from-env", cfg.SessionSecret)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, "file-client", cfg.Google.ClientID)
	assert.Equal(t, 60, cfg.Chat.PerMinute)
	assert.Equal(t, 5, cfg.Chat.Burst)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.validate())

	pc := cfg.passcodeConfig()
	assert.Equal(t, 45*time.Second, pc.Cooldown)
	assert.Equal(t, 3, pc.MaxAttempts)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("catalog_cache_ttl: [1, 2]\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	t.Setenv("COOKIE_SECURE", "maybe")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "COOKIE_SECURE")
}

func TestInitRequiresSecret(t *testing.T) {
	a := New(SiteConfig{}, ViewFuncs{})
	assert.Error(t, a.Init(t.Context()))
}

func TestEnvOr(t *testing.T) {
	t.Setenv("CODEBUDDY_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOr("CODEBUDDY_TEST_VALUE", "fallback"))
	t.Setenv("CODEBUDDY_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOr("CODEBUDDY_TEST_VALUE", "fallback"))
}
