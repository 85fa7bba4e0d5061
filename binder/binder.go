package binder

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/erraggy/reqbind/binderrors"
	"github.com/erraggy/reqbind/coerce"
	"github.com/erraggy/reqbind/contract"
	"github.com/erraggy/reqbind/evaluator"
	"github.com/erraggy/reqbind/filepolicy"
	"github.com/erraggy/reqbind/internal/fieldpath"
	"github.com/erraggy/reqbind/report"
)

// Binder binds requests to route contracts. It holds configuration only
// and is safe for concurrent use.
type Binder struct {
	cfg *config

	// ev validates path, query and body values.
	ev *evaluator.Evaluator
	// sensitive validates headers and cookies, which may carry credentials.
	sensitive *evaluator.Evaluator
}

// New returns a Binder configured by opts.
func New(opts ...Option) (*Binder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	ev := evaluator.New(evaluator.WithFormats(cfg.formats))
	sensitive := ev
	if cfg.redactSensitive {
		sensitive = ev.Redacting()
	}
	return &Binder{cfg: cfg, ev: ev, sensitive: sensitive}, nil
}

// Bind binds in to rc. Every stage runs regardless of earlier failures, so
// the returned error lists every violation in the request. On failure the
// error is a *report.Report and no partial result is returned.
func (b *Binder) Bind(rc *contract.RouteContract, in *Input) (*ParameterSet, error) {
	if rc == nil {
		return nil, &binderrors.ConfigError{Option: "route contract", Message: "cannot be nil"}
	}
	if in == nil {
		in = &Input{}
	}
	b.cfg.logger.Debug("binding request", "route", rc.Name)

	r := &run{b: b, rc: rc, in: in, set: newParameterSet()}
	if !b.cfg.skipPath {
		r.bindPath()
	}
	if !b.cfg.skipQuery {
		r.bindQuery()
	}
	if !b.cfg.skipHeaders {
		r.bindHeaders()
	}
	if !b.cfg.skipCookies {
		r.bindCookies()
	}
	if !b.cfg.skipBody {
		r.bindBody()
	}
	if !b.cfg.skipFiles {
		r.bindFiles()
	}
	return r.finalize()
}

// run is the state of one Bind call.
type run struct {
	b   *Binder
	rc  *contract.RouteContract
	in  *Input
	set *ParameterSet
	agg report.Aggregator

	// bodyParts are file parts found while decoding a multipart body.
	bodyParts     []filepolicy.Part
	multipartDone bool
}

func (r *run) finalize() (*ParameterSet, error) {
	if rep := r.agg.Report(); rep != nil {
		r.b.cfg.logger.Debug("request rejected", "route", r.rc.Name, "errors", len(rep.Errors))
		return nil, rep
	}
	if r.b.cfg.includeWarnings {
		r.set.Warnings = r.agg.Warnings()
	}
	return r.set, nil
}

func (r *run) bindPath() {
	declared := make(map[string]bool)
	for _, spec := range r.rc.ParamsAt(report.LocationPath) {
		declared[spec.Name] = true
		raw, ok := r.in.PathParams[spec.Name]
		var values []string
		if ok {
			values = []string{raw}
		}
		r.bindParam(spec, values, ok)
	}
	for _, name := range sortedKeys(r.in.PathParams) {
		if !declared[name] && r.b.cfg.includeWarnings {
			r.agg.AddWarning(unexpected(report.LocationPath, name))
		}
	}
}

func (r *run) bindQuery() {
	values := r.in.Query
	if values == nil && r.in.RawQuery != "" {
		// ParseQuery keeps every well-formed pair even when it reports an error
		values, _ = url.ParseQuery(r.in.RawQuery)
	}
	declared := make(map[string]bool)
	for _, spec := range r.rc.ParamsAt(report.LocationQuery) {
		declared[spec.Name] = true
		raw, ok := values[spec.Name]
		r.bindParam(spec, raw, ok)
	}
	for _, name := range sortedKeys(values) {
		if !declared[name] {
			r.undeclared(report.LocationQuery, name)
		}
	}
}

// standardHeaders are never reported as undeclared.
var standardHeaders = map[string]bool{
	"accept": true, "accept-charset": true, "accept-encoding": true,
	"accept-language": true, "authorization": true, "cache-control": true,
	"connection": true, "content-length": true, "content-type": true,
	"cookie": true, "host": true, "origin": true, "referer": true,
	"user-agent": true, "x-forwarded-for": true, "x-forwarded-host": true,
	"x-forwarded-proto": true, "x-real-ip": true, "x-request-id": true,
}

func (r *run) bindHeaders() {
	// casers are not safe for concurrent use
	fold := cases.Fold()
	keys := sortedKeys(r.in.Header)
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = fold.String(k)
	}

	matched := make([]bool, len(keys))
	for _, spec := range r.rc.ParamsAt(report.LocationHeader) {
		want := fold.String(spec.Name)
		alt := strings.ReplaceAll(want, "_", "-")
		var values []string
		present := false
		for i, k := range folded {
			if k == want || k == alt {
				matched[i] = true
				present = true
				values = append(values, r.in.Header[keys[i]]...)
			}
		}
		r.bindParam(spec, values, present)
	}

	for i, k := range keys {
		if matched[i] || standardHeaders[folded[i]] || strings.HasPrefix(folded[i], "sec-") {
			continue
		}
		r.undeclared(report.LocationHeader, k)
	}
}

func (r *run) bindCookies() {
	declared := make(map[string]bool)
	for _, spec := range r.rc.ParamsAt(report.LocationCookie) {
		declared[spec.Name] = true
		raw, ok := r.in.Cookies[spec.Name]
		var values []string
		if ok {
			values = []string{raw}
		}
		r.bindParam(spec, values, ok)
	}
	for _, name := range sortedKeys(r.in.Cookies) {
		if !declared[name] {
			r.undeclared(report.LocationCookie, name)
		}
	}
}

func (r *run) bindFiles() {
	if !r.multipartDone && len(r.in.RawBody) > 0 {
		if mt, essence := mediaType(r.in.ContentType); essence == "multipart/form-data" {
			// the body stage was skipped; only the file parts are needed
			_, r.bodyParts, _ = decodeMultipart(r.in.RawBody, mt.Parameters["boundary"])
		}
	}
	parts := append(slices.Clone(r.in.Parts), r.bodyParts...)
	if len(r.rc.Files) > 0 {
		r.agg.Add(filepolicy.Check(r.rc.Files, parts)...)
	}
	for _, p := range parts {
		r.set.Files[p.Field] = append(r.set.Files[p.Field], p)
	}
}

// bindParam coerces and validates one parameter, storing the bound value.
func (r *run) bindParam(spec contract.ParameterSpec, raw []string, present bool) {
	at := fieldpath.New(string(spec.Location), spec.Name)
	bucket := r.set.bucket(spec.Location)

	if !present {
		switch {
		case spec.Required:
			r.agg.Add(report.Error{
				Location: spec.Location,
				Path:     at,
				Kind:     report.KindConstraint,
				Code:     report.CodeMissing,
				Message:  "Field required",
				Severity: report.SeverityError,
			})
		case spec.HasDefault:
			bucket[spec.Name] = spec.Default
		}
		return
	}

	redact := r.redacts(spec.Location)
	value, err := coerce.Coerce(raw, spec.Schema)
	if err != nil {
		for _, m := range coerce.Mismatches(err) {
			r.agg.Add(mismatchError(spec.Location, at, m, redact))
		}
		return
	}

	ev := r.b.ev
	if redact {
		ev = r.b.sensitive
	}
	errs := ev.Validate(value, spec.Schema, at)
	r.agg.Add(errs...)
	if len(errs) == 0 {
		bucket[spec.Name] = value
	}
}

func (r *run) redacts(loc report.Location) bool {
	return loc == report.LocationHeader || loc == report.LocationCookie
}

// undeclared records a parameter the contract does not name: an error in
// strict mode, otherwise a warning.
func (r *run) undeclared(loc report.Location, name string) {
	e := unexpected(loc, name)
	switch {
	case r.b.cfg.strictMode:
		r.agg.Add(e)
	case r.b.cfg.includeWarnings:
		r.agg.AddWarning(e)
	}
}

func unexpected(loc report.Location, name string) report.Error {
	return report.Error{
		Location: loc,
		Path:     fieldpath.New(string(loc), name),
		Kind:     report.KindUnexpected,
		Code:     report.CodeUnexpectedParameter,
		Message:  fmt.Sprintf("Unexpected %s parameter", loc),
		Severity: report.SeverityError,
	}
}

func mismatchError(loc report.Location, at fieldpath.Path, m *coerce.MismatchError, redact bool) report.Error {
	if m.Index >= 0 {
		at = at.Index(m.Index)
	}
	ctx := map[string]any{"expected": m.Expected}
	if m.Reason != "" {
		ctx["error"] = m.Reason
	}
	e := report.Error{
		Location: loc,
		Path:     at,
		Kind:     report.KindTypeMismatch,
		Code:     report.CodeTypeMismatch,
		Message:  mismatchMessage(m.Expected),
		Context:  ctx,
		Severity: report.SeverityError,
	}
	if redact {
		e.Redacted = true
	} else {
		e.Value = m.Raw
	}
	return e
}

func mismatchMessage(expected string) string {
	switch expected {
	case "integer":
		return "Input should be a valid integer, unable to parse string as an integer"
	case "number":
		return "Input should be a valid number, unable to parse string as a number"
	case "boolean":
		return "Input should be a valid boolean, unable to interpret input"
	case "object":
		return "Input should be a valid dictionary"
	case "array":
		return "Input should be a valid list"
	}
	return fmt.Sprintf("Input should be a valid %s", expected)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
