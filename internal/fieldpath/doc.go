// Package fieldpath provides the immutable field paths used to address
// validation errors, such as "query.limit", "body.seller.address.city", or
// "body.tags[3]".
//
// A [Path] is a value. [Path.Child] and [Path.Index] return new paths and
// never modify the receiver, so a path can be handed to recursive calls and
// stored in errors without copying:
//
//	root := fieldpath.New("body")
//	p := root.Child("tags").Index(3)
//	p.String() // "body.tags[3]"
//	p.Loc()    // []any{"body", "tags", 3}
//
// The string form is only built when [Path.String] is called.
package fieldpath
