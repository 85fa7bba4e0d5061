// Package filepolicy checks uploaded multipart file parts against per-field
// upload policies.
//
// A [FileSpec] names one file field and the rules its parts must follow:
// presence, a media-type allow-list, magic-number sniffing, and size bounds.
// [Check] applies a list of specs to the parts of one request and returns
// every violation as a [report.Error] addressed as "files.<name>":
//
//	errs := filepolicy.Check(specs, parts)
//
// Magic-number sniffing reads at most the first 16 bytes of a part. Size
// checks stream the part and stop one byte past the limit, so an oversized
// upload is never read in full.
package filepolicy
