package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default values. Every key is registered with viper so that environment
// variables can set keys that the config file leaves out.
var defaults = map[string]any{
	"logging.level":       "info",
	"logging.development": false,

	"server.grpc_addr":        "0.0.0.0:50051",
	"server.http_addr":        "0.0.0.0:8080",
	"server.shutdown_timeout": 15 * time.Second,
	"server.tracing":          false,

	"storage.root":             "./user_storage",
	"storage.max_upload_bytes": int64(500 << 20),
	"storage.encryption_key":   "",

	"catalog.driver":                     "postgres",
	"catalog.postgres.dsn":               "",
	"catalog.postgres.max_open_conns":    10,
	"catalog.postgres.max_idle_conns":    5,
	"catalog.postgres.conn_max_lifetime": 30 * time.Minute,
	"catalog.postgres.auto_migrate":      true,
	"catalog.badger.path":                "./catalog",
	"catalog.badger.in_memory":           false,

	"ledger.queue_size":    1024,
	"ledger.write_timeout": 5 * time.Second,

	"auth.session_secret":   "",
	"auth.session_ttl":      12 * time.Hour,
	"auth.assertion_secret": "",
	"auth.assertion_issuer": "capture-engine",
	"auth.assertion_leeway": 5 * time.Second,

	"service.max_concurrent_uploads":   int64(10),
	"service.serialize_user_mutations": true,

	"preview.max_width": 800,
	"preview.quality":   80,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// ApplyDefaults normalizes values that passed through the environment.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Catalog.Driver = strings.ToLower(strings.TrimSpace(cfg.Catalog.Driver))
	if cfg.Catalog.Postgres == nil {
		cfg.Catalog.Postgres = map[string]any{}
	}
	if cfg.Catalog.Badger == nil {
		cfg.Catalog.Badger = map[string]any{}
	}
}

// GetDefaultConfig returns the configuration used when nothing is set,
// except for the secrets, which have no defaults.
func GetDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// defaults are well-typed; Unmarshal cannot fail on them
	_ = v.Unmarshal(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}
