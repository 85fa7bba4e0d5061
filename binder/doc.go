// Package binder binds HTTP requests to compiled route contracts.
//
// A [Binder] walks one request through a fixed sequence of stages: path,
// query, headers, cookies, body, files. Each stage coerces raw strings to
// the declared types, validates the results, and records every violation.
// No stage stops a later one, so a rejected request reports all of its
// problems at once:
//
//	b, _ := binder.New(binder.WithStrictMode(true))
//	params, err := b.BindRequest(route, req, nil)
//	var rep *report.Report
//	if errors.As(err, &rep) {
//	    w.WriteHeader(rep.HTTPStatus())
//	    _ = json.NewEncoder(w).Encode(rep)
//	    return
//	}
//	limit := params.Query["limit"].(int64)
//
// # Parameters
//
// An absent parameter is reported as missing when required, bound to its
// default when it has one, and omitted otherwise. Header names match
// case-insensitively; a name written with underscores also matches the
// hyphenated header. Scalars bound from repeated occurrences take the last
// one.
//
// # Body
//
// A pre-parsed body is validated as-is. A raw body is decoded by media
// type: JSON (including +json types and a missing type), URL-encoded and
// multipart forms (fields coerced with the body's property schemas), and
// text. A body that cannot be decoded produces a single malformed_body
// error and is not validated further.
//
// Files in a multipart body appear in the body under their field name as
// {filename, content_type, size, content}, a list of them when the field
// repeats or is declared as an array. A file under a property declared as
// {type: string, format: binary} validates as its content. The same parts
// are also checked against the route's file policies and bound to
// ParameterSet.Files.
//
// # Sensitive values
//
// Header and cookie values often carry credentials. Unless
// [WithRedactSensitive] is set to false they are kept out of reported
// errors.
//
// # Undeclared parameters
//
// Query parameters, cookies and non-standard headers that the contract does
// not declare become warnings on the ParameterSet, or errors under
// [WithStrictMode].
package binder
