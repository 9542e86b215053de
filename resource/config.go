package resource

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/reoring/restkit/codec"
)

// QueryMode selects how list values are written into a query string.
type QueryMode string

const (
	// QueryComma writes lists as a=1,2.
	QueryComma QueryMode = "comma"
	// QueryArray writes lists as a[]=1&a[]=2.
	QueryArray QueryMode = "array"
)

// Config holds the transport defaults. Zero values are replaced by
// DefaultConfig's when passed to NewHTTP, except the two booleans which are
// taken as given.
type Config struct {
	BaseURL       string        `env:"RESTKIT_BASE_URL"`
	TrailingSlash bool          `env:"RESTKIT_TRAILING_SLASH,default=true"`
	TimeOffset    bool          `env:"RESTKIT_TIME_OFFSET,default=true"`
	QueryMode     QueryMode     `env:"RESTKIT_QUERY_MODE,default=comma"`
	Timeout       time.Duration `env:"RESTKIT_TIMEOUT,default=30s"`
	ContentType   string        `env:"RESTKIT_CONTENT_TYPE,default=application/json"`
}

// DefaultConfig returns the defaults used by the fetch transport.
func DefaultConfig() Config {
	return Config{
		TrailingSlash: true,
		TimeOffset:    true,
		QueryMode:     QueryComma,
		Timeout:       30 * time.Second,
		ContentType:   codec.MediaJSON,
	}
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("resource: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports unsupported settings.
func (c Config) Validate() error {
	switch c.QueryMode {
	case "", QueryComma, QueryArray:
	default:
		return fmt.Errorf("resource: unknown query mode %q", c.QueryMode)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("resource: negative timeout %s", c.Timeout)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueryMode == "" {
		c.QueryMode = d.QueryMode
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.ContentType == "" {
		c.ContentType = d.ContentType
	}
	return c
}
