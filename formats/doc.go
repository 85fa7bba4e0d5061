// Package formats validates the semantic string formats a schema can name
// with its "format" keyword.
//
// Each validator is a pure [Func] that returns nil for a conforming value and
// a *[Error] otherwise. Built-in formats:
//
//	email      local@domain.tld
//	uuid       canonical 8-4-4-4-12 hex form (see [ValidateUUID] for versions)
//	date       calendar-valid YYYY-MM-DD
//	date-time  RFC 3339, time and offset designator required
//	time       HH:MM:SS with optional fraction and offset
//	duration   ISO 8601 PnYnMnWnDTnHnMnS
//	decimal    numeric literal of arbitrary precision
//	ipv4, ipv6 textual IP addresses without zones
//	hostname   RFC 1123 host name
//	uri        absolute URI with a scheme
//	byte       standard base64
//
// The names binary, password, int32, int64, float and double are accepted
// as annotations. int32 and int64 bound numeric values through [ValidateNumber].
//
// Unknown format names are a compile-time error: [Registry.Known] is what the
// schema compiler consults before a schema is ever used.
package formats
