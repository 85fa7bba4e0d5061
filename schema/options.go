package schema

import (
	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/formats"
)

// Option configures a [Compiler].
type Option func(*config) error

type config struct {
	logger  Logger
	formats *formats.Registry
}

func defaultConfig() *config {
	return &config{
		logger:  NopLogger{},
		formats: formats.Default,
	}
}

// WithLogger sets the logger used for compile diagnostics.
// A nil logger restores the no-op default.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = NopLogger{}
		}
		c.logger = l
		return nil
	}
}

// WithFormats sets the format registry consulted for "format" names.
func WithFormats(r *formats.Registry) Option {
	return func(c *config) error {
		if r == nil {
			return &binderrors.ConfigError{Option: "WithFormats", Message: "registry cannot be nil"}
		}
		c.formats = r
		return nil
	}
}
