// Package config loads command line configuration from defaults, an optional
// YAML file and SMARTLLM_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/martinemde/smartllm/driver"
	"github.com/martinemde/smartllm/logging"
)

const (
	defaultConfigName = "smartllm"
	defaultConfigType = "yaml"
	envPrefix         = "SMARTLLM"

	defaultProvider = "openai"
	defaultModel    = "gpt-4"
)

// Config is the top-level configuration.
type Config struct {
	Provider       string         `mapstructure:"provider" validate:"required"`
	Model          string         `mapstructure:"model"`
	BaseURL        string         `mapstructure:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds" validate:"gte=0"`
	Options        map[string]any `mapstructure:"options"` // default driver options, e.g. temperature
	Retry          RetryConfig    `mapstructure:"retry"`
	Logging        LoggingConfig  `mapstructure:"logging"`
}

// RetryConfig controls the opt-in retry around driver calls.
type RetryConfig struct {
	MaxRetries       int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelaySeconds float64 `mapstructure:"base_delay_seconds" validate:"gt=0"`
	MaxDelaySeconds  float64 `mapstructure:"max_delay_seconds" validate:"gtefield=BaseDelaySeconds"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Output string `mapstructure:"output"`
}

// Load reads configuration. With an empty path it looks for smartllm.yaml in
// the working directory and $HOME/.smartllm, and a missing file is not an
// error. Environment variables override file values: SMARTLLM_PROVIDER,
// SMARTLLM_LOGGING_LEVEL and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.smartllm")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ConfigError{Op: "read", Err: fmt.Errorf("failed to read config file: %w", err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Op: "unmarshal", Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	// An empty model selects the provider's catalog default. The default
	// provider pairs with gpt-4 as in smartllm.NewFromProvider.
	if cfg.Model == "" && cfg.Provider == defaultProvider {
		cfg.Model = defaultModel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", defaultProvider)
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("timeout_seconds", int(driver.DefaultTimeout/time.Second))

	v.SetDefault("retry.max_retries", 0)
	v.SetDefault("retry.base_delay_seconds", 1.0)
	v.SetDefault("retry.max_delay_seconds", 60.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns a *ConfigError wrapping a
// *ValidationError when any fail.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ConfigError{Op: "validate", Err: err}
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return &ConfigError{Op: "validate", Err: ve}
}

// DriverOptions returns the driver constructor options implied by c.
func (c *Config) DriverOptions() []driver.Option {
	var opts []driver.Option
	if c.BaseURL != "" {
		opts = append(opts, driver.WithBaseURL(c.BaseURL))
	}
	if c.TimeoutSeconds > 0 {
		opts = append(opts, driver.WithTimeout(time.Duration(c.TimeoutSeconds)*time.Second))
	}
	return opts
}

// RetryPolicy returns the retry policy for driver calls.
func (c *Config) RetryPolicy() driver.RetryPolicy {
	p := driver.DefaultRetryPolicy()
	p.MaxRetries = c.Retry.MaxRetries
	p.BaseDelay = c.Retry.BaseDelaySeconds
	p.MaxDelay = c.Retry.MaxDelaySeconds
	return p
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}
