package configloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/binsplice/pkg/config"
)

// ErrInvalidConfig is the sentinel all configuration errors wrap.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	// Field is the dotted key, e.g. "backups.mode".
	Field string

	// Value is the rejected value.
	Value any

	Message string

	// FilePath is the config file the value came from, when known.
	FilePath string
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err joins all validation errors, or returns nil.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i := range r.Errors {
		errs[i] = &r.Errors[i]
	}
	return errors.Join(errs...)
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if cfg.Overlaps != "" && !cfg.Overlaps.IsValid() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "overlaps",
			Value:   cfg.Overlaps,
			Message: fmt.Sprintf("invalid overlap policy %q; must be one of: reject, allow", cfg.Overlaps),
		})
	}

	if cfg.Format != "" && !IsValidFormat(cfg.Format) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "format",
			Value:   cfg.Format,
			Message: fmt.Sprintf("invalid format %q; must be one of: text, json", cfg.Format),
		})
	}

	if cfg.Backups.Mode != "" && !IsValidBackupMode(cfg.Backups.Mode) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "backups.mode",
			Value:   cfg.Backups.Mode,
			Message: fmt.Sprintf("invalid backup mode %q; must be one of: sidecar, none", cfg.Backups.Mode),
		})
	}

	if cfg.Backups.Mode == "none" && cfg.Backups.Enabled != nil && *cfg.Backups.Enabled {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "backups",
			Message: "backups.enabled is true but backups.mode is none; no backups will be taken",
		})
	}

	return result
}

// ValidateWithFile validates cfg and attributes findings to filePath.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}

// IsValidFormat returns true if the format is a known output format.
func IsValidFormat(f config.OutputFormat) bool {
	return f == config.FormatText || f == config.FormatJSON
}

// IsValidBackupMode returns true if mode is "sidecar" or "none".
func IsValidBackupMode(mode string) bool {
	return mode == "sidecar" || mode == "none"
}
