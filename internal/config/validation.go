package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags, then the rules tags cannot express,
// including the selected catalog driver's section.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Auth.SessionSecret == cfg.Auth.AssertionSecret {
		return errors.New("auth: session_secret and assertion_secret must differ")
	}

	switch cfg.Catalog.Driver {
	case DriverPostgres:
		pg, err := cfg.Catalog.DecodePostgres()
		if err != nil {
			return err
		}
		if err := validate.Struct(pg); err != nil {
			return fmt.Errorf("catalog.postgres: %w", formatValidationError(err))
		}
	case DriverBadger:
		bc, err := cfg.Catalog.DecodeBadger()
		if err != nil {
			return err
		}
		if err := validate.Struct(bc); err != nil {
			return fmt.Errorf("catalog.badger: %w", formatValidationError(err))
		}
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
