package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/PaulBabatuyi/biovault/internal/database"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

func (c CatalogConfig) DecodePostgres() (database.PostgresConfig, error) {
	var pg database.PostgresConfig
	if err := decodeSection(c.Postgres, &pg); err != nil {
		return pg, fmt.Errorf("invalid postgres config: %w", err)
	}
	return pg, nil
}

func (c CatalogConfig) DecodeBadger() (database.BadgerConfig, error) {
	var bc database.BadgerConfig
	if err := decodeSection(c.Badger, &bc); err != nil {
		return bc, fmt.Errorf("invalid badger config: %w", err)
	}
	return bc, nil
}

// decodeSection is mapstructure.Decode plus the string conversions that
// environment overrides need ("10", "30m", "true").
func decodeSection(section map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(section)
}
