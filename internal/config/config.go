// Package config loads server and CLI configuration.
//
// Values are resolved in order: built-in defaults, then an optional YAML file
// (path from --config or NIGHTWATCH_CONFIG), then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "NIGHTWATCH_CONFIG"

// Config is the full configuration of a Night Watch process.
type Config struct {
	Port     int            `yaml:"port" validate:"min=1,max=65535"`
	LogLevel string         `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Timezone string         `yaml:"timezone"`
	Seed     bool           `yaml:"seed"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	CORS     CORSConfig     `yaml:"cors"`
}

// DatabaseConfig selects the SQL backend. An empty URL keeps every store in
// memory.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite postgres"`
	URL    string `yaml:"url"`
}

// EngineConfig tunes the scan.
type EngineConfig struct {
	// Parallelism > 1 evaluates properties concurrently.
	Parallelism int `yaml:"parallelism" validate:"min=1,max=64"`
	// DedupeWindow > 0 suppresses repeat firings inside the window.
	DedupeWindow time.Duration `yaml:"dedupe_window" validate:"min=0"`
	// Schedule is a five-field cron spec; empty disables the nightly run.
	Schedule string `yaml:"schedule"`
	// Timeout bounds a single run.
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

// SendGridConfig enables real tenant email when APIKey is set.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email" validate:"required_with=APIKey"`
	FromName  string `yaml:"from_name"`
	Sandbox   bool   `yaml:"sandbox"`
}

// TwilioConfig enables operator SMS when AccountSID is set.
type TwilioConfig struct {
	AccountSID    string `yaml:"account_sid"`
	AuthToken     string `yaml:"auth_token" validate:"required_with=AccountSID"`
	FromPhone     string `yaml:"from_phone" validate:"required_with=AccountSID"`
	OperatorPhone string `yaml:"operator_phone" validate:"required_with=AccountSID"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:     8080,
		LogLevel: "info",
		Timezone: "Local",
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "file:nightwatch.db?_pragma=foreign_keys(1)",
		},
		Engine: EngineConfig{
			Parallelism: 1,
			Schedule:    "5 0 * * *",
			Timeout:     2 * time.Minute,
		},
		SendGrid: SendGridConfig{
			FromName: "Night Watch",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load resolves the configuration. path may be empty, in which case
// NIGHTWATCH_CONFIG is consulted; a missing file is an error only when a path
// was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	num("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("NIGHTWATCH_TIMEZONE", &c.Timezone)
	flag("NIGHTWATCH_SEED", &c.Seed)
	str("DATABASE_DRIVER", &c.Database.Driver)
	if v, ok := lookup("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	num("NIGHTWATCH_PARALLELISM", &c.Engine.Parallelism)
	dur("NIGHTWATCH_DEDUPE_WINDOW", &c.Engine.DedupeWindow)
	if v, ok := lookup("NIGHTWATCH_SCHEDULE"); ok {
		c.Engine.Schedule = v
	}
	dur("NIGHTWATCH_TIMEOUT", &c.Engine.Timeout)
	str("SENDGRID_API_KEY", &c.SendGrid.APIKey)
	str("SENDGRID_FROM_EMAIL", &c.SendGrid.FromEmail)
	flag("SENDGRID_SANDBOX_MODE", &c.SendGrid.Sandbox)
	str("TWILIO_ACCOUNT_SID", &c.Twilio.AccountSID)
	str("TWILIO_AUTH_TOKEN", &c.Twilio.AuthToken)
	str("TWILIO_FROM_PHONE", &c.Twilio.FromPhone)
	str("TWILIO_OPERATOR_PHONE", &c.Twilio.OperatorPhone)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}

	return errors.Join(errs...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the timezone resolves.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: timezone: %w", err)
	}
	return nil
}

// Location returns the time zone runs are evaluated in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
