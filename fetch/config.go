package fetch

import (
	"fmt"
	"time"

	"github.com/kbukum/fetchkit/version"
)

const (
	// DefaultHeaderTimeout bounds the wait for response headers.
	DefaultHeaderTimeout = 5 * time.Second
	// DefaultContentTimeout bounds the wait for the response body.
	DefaultContentTimeout = 5 * time.Second
	// DefaultMaxRedirects is the redirect limit applied when none is set.
	DefaultMaxRedirects = 10
)

// Config holds client-wide defaults. Per-request values win on conflict.
type Config struct {
	// BaseURL is prepended to relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// HeaderTimeout is the default header-wait timeout. Defaults to 5s.
	HeaderTimeout time.Duration `yaml:"header_timeout" mapstructure:"header_timeout"`

	// ContentTimeout is the default body-wait timeout. Defaults to 5s.
	ContentTimeout time.Duration `yaml:"content_timeout" mapstructure:"content_timeout"`

	// MaxRedirects caps redirect following. 0 means the default (10);
	// a negative value disables redirect following entirely.
	MaxRedirects int `yaml:"max_redirects" mapstructure:"max_redirects"`

	// Gzip enables accept-encoding negotiation for all requests.
	Gzip bool `yaml:"gzip" mapstructure:"gzip"`

	// UserAgent overrides the default user-agent. An unset value falls back
	// to the process-wide version.UserAgent().
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are default headers applied to all requests. Request headers
	// override them key by key.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// FixJSONCtlChars enables the control-character sanitize pass before
	// JSON decoding for all requests.
	FixJSONCtlChars bool `yaml:"fix_json_ctl_chars" mapstructure:"fix_json_ctl_chars"`

	// Auth configures default authentication applied to all requests.
	// Individual requests can override this.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// TLS configures the default engine's transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = DefaultHeaderTimeout
	}
	if c.ContentTimeout <= 0 {
		c.ContentTimeout = DefaultContentTimeout
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.HeaderTimeout <= 0 {
		return NewValidationError("header_timeout must be positive")
	}
	if c.ContentTimeout <= 0 {
		return NewValidationError("content_timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return NewValidationError(fmt.Sprintf("tls: %v", err))
		}
	}
	return nil
}
