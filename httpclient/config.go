package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/cloudreq/version"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures the transport.
type Config struct {
	// Timeout bounds buffered requests. Streaming requests are bounded only
	// by their context. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent is sent on every request. Defaults to "cloudreq/<version>".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// HTTP2 forces HTTP/2 negotiation on the transport.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
