// Package config loads the application config and YAML wizard
// definitions.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	wizard "github.com/goliatone/go-wizard"
	"gopkg.in/yaml.v3"
)

// Config is the wizardctl configuration file.
type Config struct {
	API         APIConfig     `json:"api" yaml:"api"`
	Drafts      DraftsConfig  `json:"drafts" yaml:"drafts"`
	Logging     LoggingConfig `json:"logging" yaml:"logging"`
	Actor       wizard.Actor  `json:"actor" yaml:"actor"`
	Definitions []string      `json:"definitions,omitempty" yaml:"definitions,omitempty"`
}

// APIConfig points at the care-coordination backend.
type APIConfig struct {
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	Token      string        `json:"token,omitempty" yaml:"token,omitempty"`
	TokenEnv   string        `json:"token_env,omitempty" yaml:"token_env,omitempty"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
}

// ResolveToken returns Token, or the value of TokenEnv when Token is empty.
func (c APIConfig) ResolveToken() string {
	if strings.TrimSpace(c.Token) != "" {
		return c.Token
	}
	if c.TokenEnv != "" {
		return os.Getenv(c.TokenEnv)
	}
	return ""
}

// DraftsConfig selects the draft store and retention.
type DraftsConfig struct {
	Driver    string        `json:"driver" yaml:"driver"`
	Path      string        `json:"path,omitempty" yaml:"path,omitempty"`
	Table     string        `json:"table,omitempty" yaml:"table,omitempty"`
	Retention time.Duration `json:"retention" yaml:"retention"`
	Schedule  string        `json:"schedule" yaml:"schedule"`
	Timezone  string        `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Location resolves Timezone, defaulting to local time.
func (c DraftsConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Draft drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Default returns the built in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8080/api",
			TokenEnv:   "WIZARD_API_TOKEN",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Drafts: DraftsConfig{
			Driver:    DriverSQLite,
			Path:      "wizard-drafts.db",
			Table:     "drafts",
			Retention: 30 * 24 * time.Hour,
			Schedule:  "@hourly",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads path on top of the defaults. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML (or JSON) over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the values Load cannot default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative")
	}
	switch c.Drafts.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Drafts.Path) == "" {
			return fmt.Errorf("drafts.path is required for the sqlite driver")
		}
		if c.Drafts.Table != "" && !tableName.MatchString(c.Drafts.Table) {
			return fmt.Errorf("drafts.table %q is not a valid table name", c.Drafts.Table)
		}
	default:
		return fmt.Errorf("unsupported drafts.driver %q", c.Drafts.Driver)
	}
	if c.Drafts.Retention < 0 {
		return fmt.Errorf("drafts.retention must not be negative")
	}
	if _, err := c.Drafts.Location(); err != nil {
		return fmt.Errorf("drafts.timezone: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported logging.format %q", c.Logging.Format)
	}
	return nil
}

// Marshal renders the config as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
