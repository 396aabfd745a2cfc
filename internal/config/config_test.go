package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "API_PREFIX", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "JWT_SECRET",
		"JWT_ISSUER", "JWT_TTL_MINUTES", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTPAddress())
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "debt-ledger", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:4200", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("API_PREFIX", "v1/")
	t.Setenv("JWT_TTL_MINUTES", "-5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " * , ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/ledger.db", cfg.SQLitePath)
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"JWT_SECRET": "secret"},
		"missing jwt secret":   {"STORE_DRIVER": "sqlite"},
		"unknown driver":       {"STORE_DRIVER": "mysql", "JWT_SECRET": "secret"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
