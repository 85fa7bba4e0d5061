package filepolicy

import "bytes"

// sniffLen is the number of leading bytes inspected for a signature.
const sniffLen = 16

type signature struct {
	mediaType string
	offset    int
	magic     []byte
}

var signatures = []signature{
	{mediaType: "image/png", magic: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	{mediaType: "image/jpeg", magic: []byte{0xff, 0xd8, 0xff}},
	{mediaType: "image/gif", magic: []byte("GIF89a")},
	{mediaType: "image/gif", magic: []byte("GIF87a")},
	{mediaType: "image/webp", offset: 8, magic: []byte("WEBP")},
	{mediaType: "application/pdf", magic: []byte("%PDF-")},
	{mediaType: "application/zip", magic: []byte{'P', 'K', 0x03, 0x04}},
	{mediaType: "application/x-rar-compressed", magic: []byte{'R', 'a', 'r', '!', 0x1a, 0x07}},
	{mediaType: "application/gzip", magic: []byte{0x1f, 0x8b}},
}

// equivalents maps alternate spellings to the media type the signature table uses.
var equivalents = map[string]string{
	"application/x-pdf":            "application/pdf",
	"application/x-zip-compressed": "application/zip",
	"application/vnd.rar":          "application/x-rar-compressed",
	"application/x-gzip":           "application/gzip",
}

// Sniff returns the media type whose signature prefixes content, or "" when
// none is known.
func Sniff(content []byte) string {
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}
	for _, sig := range signatures {
		if sig.mediaType == "image/webp" && !bytes.HasPrefix(content, []byte("RIFF")) {
			continue
		}
		end := sig.offset + len(sig.magic)
		if len(content) >= end && bytes.Equal(content[sig.offset:end], sig.magic) {
			return sig.mediaType
		}
	}
	return ""
}

func canonical(mediaType string) string {
	e := essence(mediaType)
	if c, ok := equivalents[e]; ok {
		return c
	}
	return e
}
