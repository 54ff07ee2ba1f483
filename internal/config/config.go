// Package config loads the vault configuration from an optional YAML file and
// BIOVAULT_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BIOVAULT"

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`

	Server ServerConfig `mapstructure:"server"`

	Storage StorageConfig `mapstructure:"storage"`

	Catalog CatalogConfig `mapstructure:"catalog"`

	Ledger LedgerConfig `mapstructure:"ledger"`

	Auth AuthConfig `mapstructure:"auth"`

	Service ServiceConfig `mapstructure:"service"`

	Preview PreviewConfig `mapstructure:"preview"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	Development bool `mapstructure:"development"`
}

type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr" validate:"required,hostname_port"`

	HTTPAddr string `mapstructure:"http_addr" validate:"required,hostname_port"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// Tracing enables the stdout span exporter.
	Tracing bool `mapstructure:"tracing"`
}

type StorageConfig struct {
	Root string `mapstructure:"root" validate:"required"`

	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`

	// EncryptionKey is accepted but never applied; files are stored in plaintext.
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,len=32"`
}

// CatalogConfig selects the metadata store. Driver sections stay untyped
// until the driver is known and are decoded with DecodePostgres/DecodeBadger.
type CatalogConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres badger"`

	Postgres map[string]any `mapstructure:"postgres"`

	Badger map[string]any `mapstructure:"badger"`
}

type LedgerConfig struct {
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`

	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

type AuthConfig struct {
	SessionSecret string `mapstructure:"session_secret" validate:"required,min=32"`

	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gt=0"`

	AssertionSecret string `mapstructure:"assertion_secret" validate:"required,min=32"`

	AssertionIssuer string `mapstructure:"assertion_issuer"`

	AssertionLeeway time.Duration `mapstructure:"assertion_leeway" validate:"gte=0"`
}

type ServiceConfig struct {
	MaxConcurrentUploads int64 `mapstructure:"max_concurrent_uploads" validate:"gt=0"`

	// SerializeUserMutations makes uploads and deletes of one user run one at a time.
	SerializeUserMutations bool `mapstructure:"serialize_user_mutations"`
}

type PreviewConfig struct {
	MaxWidth int `mapstructure:"max_width" validate:"gt=0"`

	Quality int `mapstructure:"quality" validate:"gt=0,lte=100"`
}

// Load reads configPath (optional) and the environment, applies defaults
// and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)
	setDefaults(v)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("biovault")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && configPath == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
