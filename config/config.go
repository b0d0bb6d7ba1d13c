package config

import (
	"fmt"
	"time"

	"github.com/kbukum/cloudreq/httpclient"
	"github.com/kbukum/cloudreq/logger"
	"github.com/kbukum/cloudreq/observability"
	"github.com/kbukum/cloudreq/validation"
)

// Setting keys read by the request client.
const (
	KeyAPIURL     = "api_url"
	KeyWhoamiPath = "whoami_path"
)

const (
	defaultWhoamiPath      = "/whoami"
	defaultRefreshInterval = time.Hour
)

// TokenConfig configures where the bearer token is kept.
type TokenConfig struct {
	// File persists the token across runs. Empty keeps it in memory.
	File string `yaml:"file" mapstructure:"file"`
	// Key encrypts the token file at rest.
	Key             string        `yaml:"key" mapstructure:"key" validate:"omitempty,min=8"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
}

// Config is the complete cloudreq configuration.
type Config struct {
	APIURL     string `yaml:"api_url" mapstructure:"api_url" validate:"required,url"`
	WhoamiPath string `yaml:"whoami_path" mapstructure:"whoami_path"`

	httpclient.Config `yaml:",inline" mapstructure:",squash"`

	Token   TokenConfig          `yaml:"token" mapstructure:"token"`
	Logging logger.Config        `yaml:"logging" mapstructure:"logging"`
	Tracing observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	if c.WhoamiPath == "" {
		c.WhoamiPath = defaultWhoamiPath
	}
	if c.Token.RefreshInterval <= 0 {
		c.Token.RefreshInterval = defaultRefreshInterval
	}
	c.Config.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate validates the configuration. Call ApplyDefaults first.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}

	v := validation.New().
		AbsoluteURL(KeyAPIURL, c.APIURL).
		Custom(c.Token.Key == "" || c.Token.File != "", "token.key", "requires token.file")
	if err := v.Err(); err != nil {
		return err
	}

	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
