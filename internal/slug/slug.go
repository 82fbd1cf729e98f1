// Package slug derives filename fragments from test case titles.
package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxFilenameLen bounds the slug produced by Filename.
const MaxFilenameLen = 60

// Slug converts a string into a lowercase, dash-separated slug.
// Accents are removed, whitespace becomes a dash, other characters that
// are neither letters nor digits are dropped, and runs of dashes collapse.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
		case unicode.IsSpace(r) || r == '-':
			dash = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Filename returns Slug(title) shortened to at most MaxFilenameLen bytes,
// cutting at a dash when one is available.
func Filename(title string) string {
	s := Slug(title)
	if len(s) <= MaxFilenameLen {
		return s
	}
	cut := s[:MaxFilenameLen]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		return cut[:i]
	}
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
