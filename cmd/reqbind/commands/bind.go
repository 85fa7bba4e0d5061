package commands

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/erraggy/reqbind/binder"
	"github.com/erraggy/reqbind/contract"
	"github.com/erraggy/reqbind/report"
	"github.com/erraggy/reqbind/schema"
)

// BindFlags contains flags for the bind command
type BindFlags struct {
	Route       string
	Method      string
	Path        string
	Headers     multiFlag
	Cookies     multiFlag
	Body        string
	ContentType string
	Format      string
	LogLevel    string
	Strict      bool
	NoWarnings  bool
	MaxBodySize int64
}

// BoundFile describes one accepted upload in bind output.
type BoundFile struct {
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Size        int    `json:"size" yaml:"size"`
}

// BindResult is the structured output of a successful bind.
type BindResult struct {
	Route    string                 `json:"route" yaml:"route"`
	Path     map[string]any         `json:"path,omitempty" yaml:"path,omitempty"`
	Query    map[string]any         `json:"query,omitempty" yaml:"query,omitempty"`
	Header   map[string]any         `json:"header,omitempty" yaml:"header,omitempty"`
	Cookie   map[string]any         `json:"cookie,omitempty" yaml:"cookie,omitempty"`
	Body     any                    `json:"body,omitempty" yaml:"body,omitempty"`
	Files    map[string][]BoundFile `json:"files,omitempty" yaml:"files,omitempty"`
	Warnings []report.Detail        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SetupBindFlags creates and configures a FlagSet for the bind command.
func SetupBindFlags(env Env) (*flag.FlagSet, *BindFlags) {
	fs := flag.NewFlagSet("bind", flag.ContinueOnError)
	flags := &BindFlags{}

	fs.StringVar(&flags.Route, "route", "", "route name (default: match by method and path)")
	fs.StringVar(&flags.Method, "method", http.MethodGet, "request method")
	fs.StringVar(&flags.Method, "X", http.MethodGet, "request method")
	fs.StringVar(&flags.Path, "path", "", "request path including the query string")
	fs.Var(&flags.Headers, "H", "request header 'Name: value' (repeatable)")
	fs.Var(&flags.Headers, "header", "request header 'Name: value' (repeatable)")
	fs.Var(&flags.Cookies, "cookie", "request cookie 'name=value' (repeatable)")
	fs.StringVar(&flags.Body, "body", "", "file holding the request body, or '-' for stdin")
	fs.StringVar(&flags.ContentType, "content-type", "", "body media type (sets the Content-Type header)")
	fs.StringVar(&flags.Format, "format", env.Format, "output format: text, json, or yaml")
	fs.StringVar(&flags.LogLevel, "log-level", env.LogLevel, "log level: debug, info, warn, or error")
	fs.BoolVar(&flags.Strict, "strict", env.Strict, "reject undeclared query, header and cookie parameters")
	fs.BoolVar(&flags.NoWarnings, "no-warnings", !env.IncludeWarnings, "suppress warnings for undeclared parameters")
	fs.Int64Var(&flags.MaxBodySize, "max-body-size", env.MaxBodySize, "maximum request body size in bytes")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: reqbind bind [flags] <contracts.yaml>\n\n")
		Writef(fs.Output(), "Bind one request against a route contract and print the bound\n")
		Writef(fs.Output(), "parameters, or the validation report when the request is rejected.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nEnvironment:\n")
		Writef(fs.Output(), "  REQBIND_STRICT, REQBIND_FORMAT, REQBIND_LOG_LEVEL,\n")
		Writef(fs.Output(), "  REQBIND_MAX_BODY_SIZE, REQBIND_INCLUDE_WARNINGS set flag defaults\n")
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  reqbind bind --path '/items?limit=5' contracts.yaml\n")
		Writef(fs.Output(), "  reqbind bind --route get_item --path /items/0b6f... -H 'X-API-Key: abc' contracts.yaml\n")
		Writef(fs.Output(), "  reqbind bind -X POST --path /items --body item.json --content-type application/json contracts.yaml\n")
		Writef(fs.Output(), "  reqbind bind --format json --path /items contracts.yaml | jq '.errors'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Request accepted\n")
		Writef(fs.Output(), "  1    Request rejected or invalid invocation\n")
	}

	return fs, flags
}

// HandleBind executes the bind command
func HandleBind(args []string) error {
	env, err := LoadEnv()
	if err != nil {
		return err
	}
	fs, flags := SetupBindFlags(env)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("bind command requires exactly one contract file")
	}
	return runBind(os.Stdout, fs.Arg(0), flags)
}

func runBind(w io.Writer, contractsPath string, flags *BindFlags) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	if flags.Path == "" || !strings.HasPrefix(flags.Path, "/") {
		return fmt.Errorf("--path must be an absolute request path, got '%s'", flags.Path)
	}
	if flags.Body == StdinFilePath && contractsPath == StdinFilePath {
		return fmt.Errorf("contracts and body cannot both be read from stdin")
	}
	logger, err := NewLogger(flags.LogLevel)
	if err != nil {
		return err
	}

	set, err := loadContracts(contractsPath, schema.WithLogger(logger))
	if err != nil {
		return err
	}

	req, err := buildRequest(flags)
	if err != nil {
		return err
	}

	var (
		rc     *contract.RouteContract
		params map[string]string
	)
	if flags.Route != "" {
		var ok bool
		if rc, ok = set.Route(flags.Route); !ok {
			return fmt.Errorf("unknown route '%s'", flags.Route)
		}
		if params, ok = rc.MatchPath(req.URL.Path); !ok {
			return fmt.Errorf("path '%s' does not match route '%s' (%s)", req.URL.Path, rc.Name, rc.Path)
		}
	} else {
		var ok bool
		if rc, params, ok = set.Match(req.Method, req.URL.Path); !ok {
			return fmt.Errorf("no route matches %s %s", req.Method, req.URL.Path)
		}
	}

	b, err := binder.New(
		binder.WithStrictMode(flags.Strict),
		binder.WithIncludeWarnings(!flags.NoWarnings),
		binder.WithMaxBodySize(flags.MaxBodySize),
		binder.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	bound, err := b.BindRequest(rc, req, params)
	if err != nil {
		var rep *report.Report
		if !errors.As(err, &rep) {
			return err
		}
		if err := writeReport(w, rep, flags.Format); err != nil {
			return err
		}
		return ErrRejected
	}
	return writeBound(w, rc.Name, bound, flags.Format)
}

func buildRequest(flags *BindFlags) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if flags.Body != "" {
		data, err := ReadInput(flags.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(strings.ToUpper(flags.Method), "http://reqbind.invalid"+flags.Path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for _, h := range flags.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header '%s': expected 'Name: value'", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	for _, c := range flags.Cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie '%s': expected 'name=value'", c)
		}
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if flags.ContentType != "" {
		req.Header.Set("Content-Type", flags.ContentType)
	}
	return req, nil
}

func writeReport(w io.Writer, rep *report.Report, format string) error {
	if format != FormatText {
		return OutputStructured(w, rep.Document(), format)
	}
	doc := rep.Document()
	Writef(w, "%s (%d): %s\n", doc.Title, doc.Status, doc.Detail)
	Writef(w, "%s", rep.String())
	return nil
}

func writeBound(w io.Writer, route string, set *binder.ParameterSet, format string) error {
	result := BindResult{
		Route:  route,
		Path:   set.Path,
		Query:  set.Query,
		Header: set.Header,
		Cookie: set.Cookie,
		Body:   set.Body,
	}
	if len(set.Files) > 0 {
		result.Files = make(map[string][]BoundFile, len(set.Files))
		for field, parts := range set.Files {
			for _, p := range parts {
				result.Files[field] = append(result.Files[field], BoundFile{
					Filename:    p.Filename,
					ContentType: p.MediaType(),
					Size:        len(p.Content),
				})
			}
		}
	}
	for _, warn := range set.Warnings {
		result.Warnings = append(result.Warnings, warn.Detail())
	}

	if format != FormatText {
		return OutputStructured(w, result, format)
	}

	Writef(w, "Request accepted by route %s\n", route)
	writeSection(w, "path", result.Path)
	writeSection(w, "query", result.Query)
	writeSection(w, "header", result.Header)
	writeSection(w, "cookie", result.Cookie)
	if result.Body != nil {
		Writef(w, "  body: %v\n", result.Body)
	}
	for _, field := range sortedNames(result.Files) {
		for _, f := range result.Files[field] {
			Writef(w, "  files.%s: %s (%s, %d bytes)\n", field, f.Filename, f.ContentType, f.Size)
		}
	}
	for _, warn := range set.Warnings {
		Writef(w, "%s\n", warn.String())
	}
	return nil
}

func writeSection(w io.Writer, loc string, values map[string]any) {
	for _, name := range sortedNames(values) {
		Writef(w, "  %s.%s: %v\n", loc, name, values[name])
	}
}
