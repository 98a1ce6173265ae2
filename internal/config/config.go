package config

import (
	"encoding/json"
	"errors"

	"github.com/harun/acpkeep/pkg/statestore"
)

// Config represents the main acpkeep configuration
type Config struct {
	// Storage
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// History
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
}

// StorageConfig locates the state file as
// <project_root>/<cache_dir>/<app_name>/<file_name>.
type StorageConfig struct {
	ProjectRoot string `json:"project_root" mapstructure:"project_root"` // empty means working directory
	CacheDir    string `json:"cache_dir" mapstructure:"cache_dir"`
	AppName     string `json:"app_name" mapstructure:"app_name"`
	FileName    string `json:"file_name" mapstructure:"file_name"`
}

// Layout returns the store layout for this storage section.
func (s StorageConfig) Layout() statestore.Layout {
	return statestore.Layout{
		CacheDir: s.CacheDir,
		AppName:  s.AppName,
		FileName: s.FileName,
	}
}

// HistoryConfig holds history snapshot settings
type HistoryConfig struct {
	MaxEntries int `json:"max_entries" mapstructure:"max_entries"` // 0 = unbounded
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	AuditFile string `json:"audit_file" mapstructure:"audit_file"` // empty disables the audit log
	// RedactPatterns are extra regular expressions masked in log output
	RedactPatterns []string `json:"redact_patterns" mapstructure:"redact_patterns"`
}

// MetricsConfig holds the prometheus listener used by `acpkeep watch`
type MetricsConfig struct {
	Addr string `json:"addr" mapstructure:"addr"` // empty disables the listener
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	layout := statestore.DefaultLayout()

	return &Config{
		Storage: StorageConfig{
			ProjectRoot: "",
			CacheDir:    layout.CacheDir,
			AppName:     layout.AppName,
			FileName:    layout.FileName,
		},
		History: HistoryConfig{
			MaxEntries: 0,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			Console:   true,
			Pretty:    true,
			MaxSize:   10,
			MaxAge:    7,
			Compress:       true,
			Redaction:      true,
			RedactPatterns: []string{},
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "acpkeep",
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
