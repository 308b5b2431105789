package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName        = "printfloor"
	configFileName = "config.yaml"
	envPrefix      = "PRINTFLOOR"
)

// ErrInvalidConfig is returned by [Config.Validate].
var ErrInvalidConfig = errors.New("invalid configuration")

// Loader loads configuration with Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment bindings set.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("erp.base_url", cfg.ERP.BaseURL)
	v.SetDefault("erp.timeout", cfg.ERP.Timeout)
	v.SetDefault("erp.rate_per_second", cfg.ERP.RatePerSecond)
	v.SetDefault("erp.burst", cfg.ERP.Burst)
	v.SetDefault("erp.accepted_by_field", cfg.ERP.AcceptedByField)
	v.SetDefault("catalog.file", cfg.Catalog.File)
	v.SetDefault("catalog.restricted_stages", cfg.Catalog.RestrictedStages)
	v.SetDefault("session.backend", cfg.Session.Backend)
	v.SetDefault("session.path", cfg.Session.Path)
	v.SetDefault("output.locale", cfg.Output.Locale)
	v.SetDefault("output.color", cfg.Output.Color)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Load reads configuration following the package priority order.
//
// A missing config file is not an error; defaults and environment apply.
func (l *Loader) Load() (*Config, error) {
	_ = godotenv.Load()

	path, err := l.findConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit path.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) findConfigFile() (string, error) {
	if p := os.Getenv(envPrefix + "_CONFIG_PATH"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file from %s_CONFIG_PATH: %w", envPrefix, err)
		}
		return p, nil
	}

	if p, err := DefaultConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}
	return "", nil
}

// ConfigDir returns the printfloor directory under the user config dir.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath returns the user-level config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SessionPath returns the claim store location for the configured backend.
// The memory backend has no path.
func (c *Config) SessionPath() (string, error) {
	if c.Session.Backend == BackendMemory {
		return "", nil
	}
	if c.Session.Path != "" {
		return c.Session.Path, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Session.Backend == BackendSQLite {
		return filepath.Join(dir, appName+".db"), nil
	}
	return filepath.Join(dir, "session.yaml"), nil
}
