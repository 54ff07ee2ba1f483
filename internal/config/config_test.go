package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret   = "session-secret-0123456789abcdefgh"
	testAssertionSecret = "assertion-secret-0123456789abcdef"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("BIOVAULT_AUTH_SESSION_SECRET", testSessionSecret)
	t.Setenv("BIOVAULT_AUTH_ASSERTION_SECRET", testAssertionSecret)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biovault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsFromEnvironment(t *testing.T) {
	setSecrets(t)
	t.Setenv("BIOVAULT_CATALOG_POSTGRES_DSN", "postgres://vault@localhost/vault?sslmode=disable")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0:50051", cfg.Server.GRPCAddr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(500<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, DriverPostgres, cfg.Catalog.Driver)
	assert.Equal(t, 1024, cfg.Ledger.QueueSize)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Service.SerializeUserMutations)

	pg, err := cfg.Catalog.DecodePostgres()
	require.NoError(t, err)
	assert.Equal(t, "postgres://vault@localhost/vault?sslmode=disable", pg.DSN)
	assert.Equal(t, 10, pg.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, pg.ConnMaxLifetime)
	assert.True(t, pg.AutoMigrate)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	setSecrets(t)
	path := writeConfig(t, `
logging:
  level: DEBUG
storage:
  root: /srv/vault
catalog:
  driver: badger
  badger:
    path: /srv/catalog
ledger:
  queue_size: 0
service:
  serialize_user_mutations: false
`)
	t.Setenv("BIOVAULT_SERVER_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("BIOVAULT_CATALOG_BADGER_IN_MEMORY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/vault", cfg.Storage.Root)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 0, cfg.Ledger.QueueSize)
	assert.False(t, cfg.Service.SerializeUserMutations)

	bc, err := cfg.Catalog.DecodeBadger()
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog", bc.Path)
	assert.True(t, bc.InMemory)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	setSecrets(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := GetDefaultConfig()
		cfg.Auth.SessionSecret = testSessionSecret
		cfg.Auth.AssertionSecret = testAssertionSecret
		cfg.Catalog.Postgres["dsn"] = "postgres://localhost/vault"
		return cfg
	}

	require.NoError(t, Validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Catalog.Driver = "mysql" }, "Driver"},
		{"short session secret", func(c *Config) { c.Auth.SessionSecret = "short" }, "SessionSecret"},
		{"shared secrets", func(c *Config) { c.Auth.AssertionSecret = c.Auth.SessionSecret }, "must differ"},
		{"bad encryption key", func(c *Config) { c.Storage.EncryptionKey = "too-short" }, "EncryptionKey"},
		{"no upload cap", func(c *Config) { c.Storage.MaxUploadBytes = 0 }, "MaxUploadBytes"},
		{"missing dsn", func(c *Config) { c.Catalog.Postgres["dsn"] = "" }, "DSN"},
		{"badger without path", func(c *Config) {
			c.Catalog.Driver = DriverBadger
			c.Catalog.Badger["path"] = ""
		}, "Path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAcceptsEncryptionKey(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.SessionSecret = testSessionSecret
	cfg.Auth.AssertionSecret = testAssertionSecret
	cfg.Catalog.Driver = DriverBadger
	cfg.Storage.EncryptionKey = "0123456789abcdef0123456789abcdef"

	assert.NoError(t, Validate(cfg))
}
