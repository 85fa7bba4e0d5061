// Package evaluator checks coerced values against compiled schema nodes.
//
// [Evaluator.Validate] is total over its node: every failing keyword is
// reported, never just the first one, and the result is a plain slice of
// [report.Error] values addressed by field path:
//
//	ev := evaluator.New()
//	errs := ev.Validate(body, bodySchema, fieldpath.New("body"))
//
// Keywords covered:
//
//   - type, including nullable unions such as ["string", "null"]
//   - minLength, maxLength (Unicode code points), pattern, format, uuidVersion
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum, multipleOf
//   - minItems, maxItems, uniqueItems, items
//   - properties, required, additionalProperties, minProperties, maxProperties
//   - enum and const, compared as JSON values
//   - allOf, anyOf, oneOf, not, dependencies
//
// A value of the wrong type gets a single type error and no further checks on
// that node. Within an object, declared properties are checked in declaration
// order; extra keys and dependency triggers follow in sorted order.
//
// An Evaluator holds configuration only and is safe for concurrent use.
package evaluator
