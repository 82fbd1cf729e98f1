package domain

import (
	"fmt"
	"path"
	"strings"
)

// FileStem returns the final element of p without its extension.
// Both slash and backslash separators are accepted.
func FileStem(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// IdentityMatches reports whether a file stem reflects the declared id:
// the stem equals the id or starts with the id followed by a dash.
func IdentityMatches(stem, id string) bool {
	return stem == id || strings.HasPrefix(stem, id+"-")
}

// CheckIdentity verifies that the file at p is named after id.
func CheckIdentity(p, id string) []Finding {
	if IdentityMatches(FileStem(p), id) {
		return nil
	}
	return []Finding{{
		Kind:    FindingIdentityMismatch,
		Path:    p,
		Message: fmt.Sprintf("Filename should equal the id or start with it (expected starts with %q)", id),
	}}
}
