package config

import (
	"errors"
	"fmt"
	"nextdynamic/internal/domain/service/dynamicimport"
	"nextdynamic/internal/domain/valueobject"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Transform TransformConfig `mapstructure:"transform"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Log       LogConfig       `mapstructure:"log"`
}

// TransformConfig holds the settings of the dynamic import pass.
type TransformConfig struct {
	Mode           string   `mapstructure:"mode"`
	HelperModules  []string `mapstructure:"helper_modules"`
	HelperExport   string   `mapstructure:"helper_export"`
	ModuleIDExport string   `mapstructure:"module_id_export"`
	BindingName    string   `mapstructure:"binding_name"`
	VerifyOutput   bool     `mapstructure:"verify_output"`
	Concurrency    int      `mapstructure:"concurrency"`
}

// TargetMode returns the configured default target mode.
func (t TransformConfig) TargetMode() (valueobject.TargetMode, error) {
	return valueobject.NewTargetMode(t.Mode)
}

// PassOptions converts the settings to pass options. Empty fields keep the
// pass defaults.
func (t TransformConfig) PassOptions() dynamicimport.Options {
	mode, _ := t.TargetMode()
	return dynamicimport.Options{
		Mode:           mode,
		HelperModules:  t.HelperModules,
		HelperExport:   t.HelperExport,
		ModuleIDExport: t.ModuleIDExport,
		BindingName:    t.BindingName,
	}
}

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Subject        string        `mapstructure:"subject"`
	QueueGroup     string        `mapstructure:"queue_group"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	MaxMessageSize int           `mapstructure:"max_message_size"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	config, err := Load(v)
	if err != nil {
		panic(err)
	}
	return config
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Transform.TargetMode(); err != nil {
		return fmt.Errorf("transform.mode: %w", err)
	}

	if _, err := dynamicimport.NewTransformer(c.Transform.PassOptions()); err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	if c.Transform.Concurrency < 0 {
		return errors.New("transform.concurrency cannot be negative")
	}

	if c.Worker.Concurrency < 1 {
		return errors.New("worker.concurrency must be at least 1")
	}

	if strings.TrimSpace(c.Worker.Subject) == "" {
		return errors.New("worker.subject is required")
	}

	if c.Worker.JobTimeout < 0 {
		return errors.New("worker.job_timeout cannot be negative")
	}

	if c.Worker.MaxMessageSize < 0 {
		return errors.New("worker.max_message_size cannot be negative")
	}

	if c.NATS.MaxReconnects < -1 {
		return errors.New("nats.max_reconnects must be -1 (unlimited) or greater")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}
