package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "cardflow"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CARDFLOW"
)

// Default URL pattern and DOM fallbacks for batch-id recovery. The
// pattern captures the path segment between /batches/ and /add.
var (
	DefaultBatchIDPattern   = `/batches/([^/]+)/add`
	DefaultBatchIDFallbacks = []string{
		`input[name="batch_id"]`,
		`[data-batch-id]`,
		`.batch-info [data-id]`,
		`#batch_id`,
	}
)

// Loader handles loading configuration from files and environment variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance so cobra flag bindings work.
	return &Loader{v: viper.GetViper()}
}

// NewIsolatedLoader creates a loader with its own viper instance,
// independent of global flag bindings. Used by tests and library callers.
func NewIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Load loads configuration from the default search paths, environment
// variables, and defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from an explicit file path. The file
// may be JSON or YAML; the extension decides. A missing or unparsable
// file is a fatal configuration error.
func (l *Loader) LoadWithFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	l.v.SetConfigFile(path)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// addConfigPaths adds the configuration file search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "cardflow"))
	}
	l.v.AddConfigPath("/etc/cardflow")
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default configuration values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)
	l.v.SetDefault("headless", false)

	l.v.SetDefault("batch_id.url_pattern", DefaultBatchIDPattern)
	l.v.SetDefault("batch_id.fallback_selectors", DefaultBatchIDFallbacks)

	l.v.SetDefault("timeouts.wait_seconds", 15)
	l.v.SetDefault("timeouts.poll_millis", 250)
	l.v.SetDefault("timeouts.login_retries", 3)
	l.v.SetDefault("timeouts.click_retries", 3)
	l.v.SetDefault("timeouts.retry_pause_millis", 1000)
	l.v.SetDefault("timeouts.upload_settle_millis", 3000)
}
