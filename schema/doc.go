// Package schema is the schema store: it decodes schema nodes from YAML or
// JSON, resolves "$ref" references against a definitions table, and compiles
// each node into the immutable form the evaluator and the coercion layer read.
//
// # Decoding
//
// [Decode] accepts YAML or JSON (JSON is a subset of YAML) and keeps the
// declaration order of "properties" so that errors are reported in the order
// fields were declared:
//
//	raw, err := schema.Decode([]byte(`{"type":"object","properties":{"name":{"type":"string"}}}`))
//
// # Compiling
//
// [Compile] resolves every reference at load time, substituting the referenced
// node in place. A reference to a missing definition fails with an
// UnresolvedReference error and a chain that comes back to a definition still
// being resolved fails with a CyclicReference error:
//
//	compiled, err := schema.Compile(raw, defs)
//	if errors.Is(err, binderrors.ErrCircularReference) {
//	    // the route can never serve traffic
//	}
//
// Each definition is compiled once per [Compiler] and the result is shared by
// every site that references it. Compiled nodes are never modified again, so
// they can be read from any number of goroutines.
//
// Compilation also anchors "pattern" to the whole value, rejects unknown
// "format" names and invalid type names, and folds the boolean form of
// exclusiveMinimum/exclusiveMaximum into numeric bounds.
//
// # Go types
//
// [FromType] reflects a Go struct into a raw schema, ready for [Compile].
package schema
