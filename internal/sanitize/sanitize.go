// Package sanitize cleans user-supplied filenames and free text before they
// are persisted or echoed back to clients.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength is the longest stored filename in characters.
	MaxFilenameLength = 255
	// MaxTextLength is the longest stored free-text field in characters.
	MaxTextLength = 200
	// DefaultFilename replaces names that sanitise to nothing.
	DefaultFilename = "document.pdf"
)

var (
	filenameUnsafe = regexp.MustCompile(`[^\w .-]`)
	repeatedDots   = regexp.MustCompile(`\.{2,}`)
	leadingDots    = regexp.MustCompile(`^\.+`)

	angleBrackets   = regexp.MustCompile(`[<>]`)
	scriptProtocol  = regexp.MustCompile(`(?i)javascript:`)
	eventAttributes = regexp.MustCompile(`(?i)on\w+=`)
)

// Filename replaces characters outside [\w .-] with '_', so tabs and line
// breaks never reach storage. It then collapses dot runs, strips leading dots
// and caps the length.
func Filename(name string) string {
	name = filenameUnsafe.ReplaceAllString(name, "_")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = leadingDots.ReplaceAllString(name, "")
	name = truncate(name, MaxFilenameLength)

	if strings.TrimSpace(name) == "" {
		return DefaultFilename
	}
	return name
}

// Text strips markup-like fragments, trims surrounding whitespace and caps
// the length.
func Text(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = scriptProtocol.ReplaceAllString(s, "")
	s = eventAttributes.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return truncate(s, MaxTextLength)
}

// OptionalText sanitises s when present. Empty results become nil.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	if v == "" {
		return nil
	}
	return &v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
