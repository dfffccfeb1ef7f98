package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://u:p@db:5432/listguard?sslmode=disable"
  max_open_conns: 40

redis:
  url: "redis://cache:6379/0"

admission:
  dns_timeout_seconds: 2
  dns_cache_ttl_seconds: 60
  blacklist_on_failure: false
  free_providers: ["example-free.com"]
  disposable_providers: ["trash.example"]

ses:
  enabled: true
  region: "eu-west-1"
  from_email: "noreply@example.com"

export:
  s3_bucket: "exports-bucket"

log:
  level: debug
  redact_pii: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)

	assert.Equal(t, 2, cfg.Admission.DNSTimeoutSeconds)
	assert.Equal(t, 60, cfg.Admission.DNSCacheTTLSeconds)
	assert.False(t, cfg.Admission.DefaultBlacklistOnFailure())
	assert.Equal(t, []string{"example-free.com"}, cfg.Admission.FreeProviders)
	assert.Equal(t, []string{"trash.example"}, cfg.Admission.DisposableProviders)

	assert.True(t, cfg.SES.Enabled)
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.True(t, cfg.Export.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  host: localhost\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Admission.DNSTimeoutSeconds)
	assert.Equal(t, 3600, cfg.Admission.DNSCacheTTLSeconds)
	assert.True(t, cfg.Admission.DefaultBlacklistOnFailure())
	assert.Equal(t, "us-east-1", cfg.SES.Region)
	assert.Equal(t, "exports/", cfg.Export.Prefix)
	assert.False(t, cfg.Export.Enabled())
	assert.True(t, cfg.Log.Redact())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database:\n  url: \"postgres://file\"\n"), 0644))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "redis://env:6379")
	t.Setenv("SIGNING_KEY", "s3cret")
	t.Setenv("PORT", "9999")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis://env:6379", cfg.Redis.URL)
	assert.Equal(t, "s3cret", cfg.Verification.SigningKey)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadFromEnv_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://only-env")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres://only-env", cfg.Database.URL)
}
