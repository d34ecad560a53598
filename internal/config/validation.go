// Package config provides configuration management for the Underdog Edge application.
package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var betTypeTagPattern = regexp.MustCompile(`^bt\d+$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("bettype", validateBetType)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateBetType validates a feed bet-type tag (bt1, bt2, ...)
func validateBetType(fl validator.FieldLevel) bool {
	return betTypeTagPattern.MatchString(fl.Field().String())
}

// validateCrossField performs validations that span multiple fields
func validateCrossField(cfg *Config) error {
	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database is enabled but host, name or user is missing")
		}
	}
	if cfg.Snapshot.Enabled && cfg.Snapshot.Path == "" {
		return fmt.Errorf("snapshot is enabled but no path is configured")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics are enabled but no port is configured")
	}

	// League ids must be unique; the normalizer indexes by id.
	seen := make(map[int]string)
	for name, lc := range cfg.Leagues {
		if other, dup := seen[lc.ID]; dup {
			return fmt.Errorf("leagues %q and %q share feed id %d", other, name, lc.ID)
		}
		seen[lc.ID] = name
	}

	return nil
}

// formatValidationErrors converts validator errors to a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, e := range errs {
		msg += fmt.Sprintf("\n  - %s: failed %q validation", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("%s", msg)
}
