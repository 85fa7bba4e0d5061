// Package reqbind binds HTTP requests to declarative route contracts.
//
// A route contract names the path, query, header and cookie parameters a
// route accepts, the schema of its body and the upload policy of its files.
// Contracts are written in YAML or JSON using a JSON Schema dialect and are
// compiled once, at startup. Binding a request coerces every raw string to
// its declared type, validates it against the compiled schema and returns
// either the typed parameters or a report listing every violation found.
//
// # Packages
//
//   - schema: decode and compile schemas, resolving local references
//   - formats: string format validators (email, uuid, date-time, ...)
//   - coerce: convert raw strings into schema-typed values
//   - evaluator: constraint and composition checks over decoded values
//   - filepolicy: content type, magic number and size checks for uploads
//   - contract: route contracts and contract sets
//   - binder: bind a request to a route contract
//   - report: the aggregated error report and its problem-details rendering
//
// # Quick Start
//
// Load a contract file and bind an incoming request:
//
//	set, err := contract.LoadFile("contracts.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	b, err := binder.New(binder.WithStrictMode(true))
//	if err != nil {
//		log.Fatal(err)
//	}
//	rc, params, ok := set.Match(r.Method, r.URL.Path)
//	if !ok {
//		http.NotFound(w, r)
//		return
//	}
//	bound, err := b.BindRequest(rc, r, params)
//	var rep *report.Report
//	if errors.As(err, &rep) {
//		w.Header().Set("Content-Type", "application/problem+json")
//		w.WriteHeader(rep.HTTPStatus())
//		_ = json.NewEncoder(w).Encode(rep)
//		return
//	}
//
// # Error Handling
//
// Problems in a contract are reported when it is compiled, as a
// *binderrors.SchemaError matching one of the binderrors sentinels.
// Invalid options return a *binderrors.ConfigError. A rejected request is
// never a Go error of its own kind: it is a *report.Report, whose entries
// are ordered by location (path, query, header, cookie, body, files) and
// by declaration order within a location.
//
// # Command-Line Interface
//
// The reqbind command compiles contract files and binds recorded requests:
//
//	reqbind check contracts.yaml
//	reqbind bind --path '/items?limit=5' contracts.yaml
package reqbind
