package binder

import (
	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/formats"
	"github.com/erraggy/reqbind/schema"
)

// DefaultMaxBodySize bounds request bodies read by BindRequest.
const DefaultMaxBodySize int64 = 10 << 20

// Option is a functional option for configuring a Binder.
type Option func(*config) error

// config holds the configuration for binding operations.
type config struct {
	// Binding behavior
	includeWarnings bool
	strictMode      bool
	redactSensitive bool

	// Skip options
	skipPath    bool
	skipQuery   bool
	skipHeaders bool
	skipCookies bool
	skipBody    bool
	skipFiles   bool

	// Resource limits
	maxBodySize int64

	logger  schema.Logger
	formats *formats.Registry
}

func defaultConfig() *config {
	return &config{
		includeWarnings: true,
		redactSensitive: true,
		maxBodySize:     DefaultMaxBodySize,
		logger:          schema.NopLogger{},
		formats:         formats.Default,
	}
}

// WithIncludeWarnings sets whether undeclared parameters are reported as
// warnings on the bound ParameterSet. Default is true.
func WithIncludeWarnings(include bool) Option {
	return func(c *config) error {
		c.includeWarnings = include
		return nil
	}
}

// WithStrictMode enables stricter binding:
//   - Rejects requests with undeclared query parameters
//   - Rejects requests with undeclared headers (except standard HTTP headers)
//   - Rejects requests with undeclared cookies
//
// Default is false.
func WithStrictMode(strict bool) Option {
	return func(c *config) error {
		c.strictMode = strict
		return nil
	}
}

// WithRedactSensitive sets whether header and cookie values are withheld
// from reported errors. Default is true.
func WithRedactSensitive(redact bool) Option {
	return func(c *config) error {
		c.redactSensitive = redact
		return nil
	}
}

// WithSkipPath skips path parameter binding.
func WithSkipPath(skip bool) Option {
	return func(c *config) error {
		c.skipPath = skip
		return nil
	}
}

// WithSkipQuery skips query parameter binding.
func WithSkipQuery(skip bool) Option {
	return func(c *config) error {
		c.skipQuery = skip
		return nil
	}
}

// WithSkipHeaders skips header parameter binding.
func WithSkipHeaders(skip bool) Option {
	return func(c *config) error {
		c.skipHeaders = skip
		return nil
	}
}

// WithSkipCookies skips cookie parameter binding.
func WithSkipCookies(skip bool) Option {
	return func(c *config) error {
		c.skipCookies = skip
		return nil
	}
}

// WithSkipBody skips body decoding and validation.
// Useful when the body is too expensive to check or is handled elsewhere.
func WithSkipBody(skip bool) Option {
	return func(c *config) error {
		c.skipBody = skip
		return nil
	}
}

// WithSkipFiles skips file policy checks.
func WithSkipFiles(skip bool) Option {
	return func(c *config) error {
		c.skipFiles = skip
		return nil
	}
}

// WithMaxBodySize sets the largest body BindRequest reads, in bytes.
// Larger bodies are rejected as malformed. Default: 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return &binderrors.ConfigError{Option: "max body size", Value: n, Message: "must be positive"}
		}
		c.maxBodySize = n
		return nil
	}
}

// WithLogger sets the logger for binding events. A nil logger disables logging.
func WithLogger(l schema.Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = schema.NopLogger{}
		}
		c.logger = l
		return nil
	}
}

// WithFormats sets the registry used for "format" checks.
func WithFormats(r *formats.Registry) Option {
	return func(c *config) error {
		if r == nil {
			return &binderrors.ConfigError{Option: "formats", Message: "registry cannot be nil"}
		}
		c.formats = r
		return nil
	}
}
