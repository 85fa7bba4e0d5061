// Package coerce converts raw textual parameter input (path captures, query
// values, headers, cookies, form fields) into typed values according to a
// compiled schema node.
//
// Results use the same shapes as bound values everywhere else: int64,
// float64, bool, string, nil, []any and map[string]any.
//
//	v, err := coerce.Coerce([]string{"5"}, limitSchema)        // int64(5)
//	v, err := coerce.Coerce([]string{"red|green"}, colorsSchema) // []any{"red", "green"}
//
// Coercion only guarantees the declared type. Formats, ranges and every other
// constraint are checked afterwards by the evaluator. A value that cannot
// become the declared type yields a *[MismatchError], or [MismatchErrors] when
// several array elements fail.
package coerce
