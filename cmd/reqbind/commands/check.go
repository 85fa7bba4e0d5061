package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/erraggy/reqbind/contract"
	"github.com/erraggy/reqbind/schema"
)

// CheckFlags contains flags for the check command
type CheckFlags struct {
	Format   string
	LogLevel string
	Quiet    bool
}

// RouteSummary describes one compiled route in check output.
type RouteSummary struct {
	Name       string   `json:"name" yaml:"name"`
	Method     string   `json:"method,omitempty" yaml:"method,omitempty"`
	Path       string   `json:"path" yaml:"path"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Body       bool     `json:"body" yaml:"body"`
	Files      []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// SetupCheckFlags creates and configures a FlagSet for the check command.
func SetupCheckFlags(env Env) (*flag.FlagSet, *CheckFlags) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := &CheckFlags{}

	fs.StringVar(&flags.Format, "format", env.Format, "output format: text, json, or yaml")
	fs.StringVar(&flags.LogLevel, "log-level", env.LogLevel, "log level: debug, info, warn, or error")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only report failures")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only report failures")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: reqbind check [flags] <contracts.yaml|->\n\n")
		Writef(fs.Output(), "Compile a contract file and list its routes. Every schema, reference\n")
		Writef(fs.Output(), "and path template is checked before any request is bound.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  reqbind check contracts.yaml\n")
		Writef(fs.Output(), "  reqbind check --format json contracts.json | jq '.[].name'\n")
		Writef(fs.Output(), "  cat contracts.yaml | reqbind check -q -\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    All routes compiled\n")
		Writef(fs.Output(), "  1    The contract file is invalid\n")
	}

	return fs, flags
}

// HandleCheck executes the check command
func HandleCheck(args []string) error {
	env, err := LoadEnv()
	if err != nil {
		return err
	}
	fs, flags := SetupCheckFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("check command requires exactly one contract file or '-' for stdin")
	}
	return runCheck(os.Stdout, fs.Arg(0), flags)
}

func runCheck(w io.Writer, path string, flags *CheckFlags) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	logger, err := NewLogger(flags.LogLevel)
	if err != nil {
		return err
	}

	set, err := loadContracts(path, schema.WithLogger(logger))
	if err != nil {
		return err
	}

	summaries := make([]RouteSummary, 0, set.Len())
	for _, rc := range set.Routes() {
		summaries = append(summaries, summarize(rc))
	}

	if flags.Format != FormatText {
		return OutputStructured(w, summaries, flags.Format)
	}
	if flags.Quiet {
		return nil
	}
	Writef(w, "%s: %d route(s)\n", path, len(summaries))
	for _, s := range summaries {
		method := s.Method
		if method == "" {
			method = "*"
		}
		Writef(w, "  %-20s %-6s %s\n", s.Name, method, s.Path)
		for _, p := range s.Parameters {
			Writef(w, "    param %s\n", p)
		}
		if s.Body {
			Writef(w, "    body\n")
		}
		for _, f := range s.Files {
			Writef(w, "    file %s\n", f)
		}
	}
	return nil
}

func loadContracts(path string, opts ...schema.Option) (*contract.Set, error) {
	if path == StdinFilePath {
		data, err := ReadInput(path)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return contract.ParseSet(data, opts...)
	}
	return contract.LoadFile(path, opts...)
}

func summarize(rc *contract.RouteContract) RouteSummary {
	s := RouteSummary{
		Name:   rc.Name,
		Method: rc.Method,
		Path:   rc.Path,
		Body:   rc.Body != nil,
	}
	for _, p := range rc.Params {
		s.Parameters = append(s.Parameters, fmt.Sprintf("%s.%s", p.Location, p.Name))
	}
	for _, f := range rc.Files {
		s.Files = append(s.Files, f.Name)
	}
	return s
}
