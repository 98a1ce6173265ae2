package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateStorage validates the state file layout. Each segment must be a
// single path element so the state file cannot escape the project root.
func (v *Validator) ValidateStorage(storage StorageConfig) error {
	if err := storage.Layout().Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// ValidateMaxEntries validates the history cap
func (v *Validator) ValidateMaxEntries(n int) error {
	if n < 0 {
		return fmt.Errorf("history.max_entries must be >= 0, got %d", n)
	}
	return nil
}

// ValidateRedactPatterns checks that every pattern compiles
func (v *Validator) ValidateRedactPatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid logging.redact_patterns entry %q: %w", p, err)
		}
	}
	return nil
}

// ValidateMetricsAddr validates the metrics listen address
func (v *Validator) ValidateMetricsAddr(addr string) error {
	if addr == "" {
		return nil // Disabled
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid metrics addr %q: %w", addr, err)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateStorage(cfg.Storage); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateMaxEntries(cfg.History.MaxEntries); err != nil {
		errors = append(errors, err)
	}

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}
	if err := v.ValidateRedactPatterns(cfg.Logging.RedactPatterns); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateMetricsAddr(cfg.Metrics.Addr); err != nil {
		errors = append(errors, err)
	}

	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		errors = append(errors, fmt.Errorf("tracing.service_name is required when tracing is enabled"))
	}

	return errors
}
