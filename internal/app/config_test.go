package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "admin@rbac.it", cfg.AdminEmail)
	assert.Equal(t, "rbac@admin", cfg.AdminPassword)
	assert.Equal(t, "admin", cfg.AdminUserID)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Zero(t, cfg.LoginMaxFailures)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", "  Root@Example.COM ")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", cfg.AdminEmail)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"blank secret":  {"JWT_SECRET": "   "},
		"bad email":     {"ADMIN_EMAIL": "nobody"},
		"bcrypt cost":   {"BCRYPT_COST": "2"},
		"zero ttl":      {"TOKEN_TTL": "0s"},
		"empty user id": {"ADMIN_USER_ID": " "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestLoadWorkerConfigWithoutTokenSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("WORKER_CONCURRENCY", "4")

	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.Equal(t, "0 3 * * *", cfg.AuditPurgeCron)

	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadWorkerConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "0")
	_, err := LoadWorkerConfig()
	assert.Error(t, err)
}
