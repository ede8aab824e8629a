// Package contentkind classifies patch targets as binary or text using
// go-enry, so callers can warn before byte-patching a text file.
package contentkind

import (
	"github.com/go-enry/go-enry/v2"
)

// sniffLen bounds how much content is inspected.
const sniffLen = 8000

// Kind describes a file's content.
type Kind struct {
	// Binary is true when the content looks like binary data.
	Binary bool `json:"binary"`

	// Language is the detected language for text content, or "".
	Language string `json:"language,omitempty"`

	// MIME is the detected MIME type.
	MIME string `json:"mime"`
}

// String returns "binary" or the text language ("text" when unknown).
func (k Kind) String() string {
	switch {
	case k.Binary:
		return "binary"
	case k.Language != "":
		return k.Language
	default:
		return "text"
	}
}

// Detect classifies content. The path's name and extension help when the
// content alone is ambiguous.
func Detect(path string, content []byte) Kind {
	// Nothing to read as text; treat empty targets as binary.
	if len(content) == 0 {
		return Kind{Binary: true, MIME: "application/octet-stream"}
	}

	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	if enry.IsBinary(head) {
		return Kind{Binary: true, MIME: "application/octet-stream"}
	}

	lang := enry.GetLanguage(path, head)
	return Kind{
		Language: lang,
		MIME:     enry.GetMIMEType(path, lang),
	}
}
