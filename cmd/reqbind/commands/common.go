// Package commands provides CLI command handlers for reqbind.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/erraggy/reqbind/schema"
	json "github.com/goccy/go-json"
	"github.com/joeshaw/envdecode"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrRejected is returned by a command whose request failed validation.
// The report has already been written when it is returned.
var ErrRejected = errors.New("request rejected")

// Env holds defaults read from the environment. Flags override them.
type Env struct {
	// Strict rejects undeclared parameters. ENV: REQBIND_STRICT
	Strict bool `env:"REQBIND_STRICT,default=false"`
	// Format is the output format. ENV: REQBIND_FORMAT
	Format string `env:"REQBIND_FORMAT,default=text"`
	// LogLevel is a slog level name. ENV: REQBIND_LOG_LEVEL
	LogLevel string `env:"REQBIND_LOG_LEVEL,default=warn"`
	// MaxBodySize caps the request body in bytes. ENV: REQBIND_MAX_BODY_SIZE
	MaxBodySize int64 `env:"REQBIND_MAX_BODY_SIZE,default=10485760"`
	// IncludeWarnings reports undeclared parameters as warnings. ENV: REQBIND_INCLUDE_WARNINGS
	IncludeWarnings bool `env:"REQBIND_INCLUDE_WARNINGS,default=true"`
}

// LoadEnv reads [Env] from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Env{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data in the specified format (json or yaml) to w.
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(w, "%s\n", strings.TrimRight(string(bytes), "\n"))
	return nil
}

// NewLogger builds a text slog logger on stderr at the named level.
func NewLogger(level string) (schema.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return schema.NewSlogAdapter(slog.New(h)), nil
}

// ReadInput reads a file path, or stdin when path is "-".
func ReadInput(path string) ([]byte, error) {
	if path == StdinFilePath {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path) //nolint:gosec // path comes from the command line
}

// Writef writes formatted output, ignoring write errors.
func Writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// multiFlag collects a repeated string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func sortedNames[M ~map[string]V, V any](m M) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
