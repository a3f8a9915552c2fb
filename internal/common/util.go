package common

import (
	"path"
	"strings"
)

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used to drop plaintext and key copies as soon as they are no longer needed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SanitizeFileName reduces an uploaded file name to a single path element made
// of [A-Za-z0-9._-] so it can be embedded into an object storage key. Any other
// rune becomes '_'.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// StrPtr returns nil for the empty string and a pointer to s otherwise.
// Optional identifiers (folder_id, parent_id) travel as *string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences an optional identifier, nil becomes "".
func StrVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
