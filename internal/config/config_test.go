package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, 15*time.Second, cfg.Dashboard.CacheTTL)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 8081, cfg.Outbox.HealthPort)
	assert.Equal(t, 7*24*time.Hour, cfg.Outbox.Retention)
	assert.Equal(t, time.Hour, cfg.Outbox.CleanupInterval)
}

func TestLoadEnvOverlay(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "8088")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("WHATSAPP_BASE_URL", "https://wa.example.org")
	t.Setenv("WHATSAPP_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry())
	assert.True(t, cfg.WhatsApp.Enabled())
}

func TestLoadConfigFileAndDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	yml := "server:\n  port: 4000\ndatabase:\n  name: shelter\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_USER=from_dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_USER") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "shelter", cfg.Database.Name)
	assert.Equal(t, "from_dotenv", cfg.Database.User)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.DSN())
}
