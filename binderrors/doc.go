// Package binderrors provides structured error types for reqbind.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish a route contract that can never
// serve traffic from a misconfigured binder.
//
// Request validation failures are not reported through this package: they are
// values collected into a report.Report. The errors here are the fatal,
// startup-time kind.
//
// # Error Categories
//
//   - SchemaError: contract compilation failures (unresolved or cyclic $ref,
//     unknown format, invalid keyword values)
//   - ConfigError: invalid options or missing inputs
//
// # Usage with errors.Is
//
//	rc, err := contract.Compile(def)
//	if err != nil {
//	    if errors.Is(err, binderrors.ErrCircularReference) {
//	        // the definitions table loops back on itself
//	    }
//	    var se *binderrors.SchemaError
//	    if errors.As(err, &se) {
//	        log.Printf("route %s: %s at %s", def.Name, se.Kind, se.Path)
//	    }
//	}
package binderrors
