// Package config provides configuration loading and management for printfloor.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults work out of the box against an ERP on
// localhost; most sites only set erp.base_url.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [ERPConfig] contains the ERP endpoint and pacing settings
//   - [SessionConfig] selects where the terminal's staff claim is kept
//
// Configuration priority (highest to lowest):
//  1. Environment variables (PRINTFLOOR_ prefix, e.g. PRINTFLOOR_ERP_BASE_URL)
//  2. Config file specified by PRINTFLOOR_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/printfloor/config.yaml
//     - macOS: ~/Library/Application Support/printfloor/config.yaml
//     - Windows: %APPDATA%\printfloor\config.yaml
//  4. ./config.yaml
//  5. [DefaultConfig] defaults
//
// A .env file in the working directory is loaded into the environment first.
package config

import "time"

// Session backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the root configuration structure.
type Config struct {
	ERP     ERPConfig     `mapstructure:"erp"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Session SessionConfig `mapstructure:"session"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// ERPConfig contains the ERP REST endpoint settings.
type ERPConfig struct {
	// BaseURL is the ERP facade root, e.g. "https://erp.example.com".
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each HTTP request.
	// Default: 10s
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// RatePerSecond paces outbound calls; 0 disables pacing.
	// Default: 5
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`

	// Burst is the number of calls allowed without waiting.
	// Default: 5
	Burst int `mapstructure:"burst" validate:"gte=1"`

	// AcceptedByField is the job field that records the accepting staff member.
	// Default: "user_id"
	AcceptedByField string `mapstructure:"accepted_by_field" validate:"required"`
}

// CatalogConfig controls how the stage catalog is obtained.
type CatalogConfig struct {
	// File is an optional CSV (id,name,sequence[,restricted]) used instead of
	// the ERP stage endpoint.
	File string `mapstructure:"file"`

	// RestrictedStages are stage names treated as restricted regardless of
	// the ERP's flag.
	// Default: ["การเงิน", "งานเก่า"] (Finance, Legacy-import)
	RestrictedStages []string `mapstructure:"restricted_stages"`
}

// SessionConfig selects the staff claim store.
type SessionConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	// Default: "file"
	Backend string `mapstructure:"backend" validate:"oneof=file sqlite memory"`

	// Path overrides the store location. Empty means the user config
	// directory (session.yaml or printfloor.db).
	Path string `mapstructure:"path"`
}

// OutputConfig contains terminal output settings.
type OutputConfig struct {
	// Locale selects duration wording and number grouping: "th" or "en".
	// Default: "th"
	Locale string `mapstructure:"locale" validate:"oneof=th en"`

	// Color enables lipgloss styling.
	// Default: true
	Color bool `mapstructure:"color"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: "warn"
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ERP: ERPConfig{
			BaseURL:         "http://localhost:8069",
			Timeout:         10 * time.Second,
			RatePerSecond:   5,
			Burst:           5,
			AcceptedByField: "user_id",
		},
		Catalog: CatalogConfig{
			RestrictedStages: []string{"การเงิน", "งานเก่า"},
		},
		Session: SessionConfig{
			Backend: BackendFile,
		},
		Output: OutputConfig{
			Locale: "th",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
