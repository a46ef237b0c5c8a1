package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameLen = 180

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens a client-supplied name into one safe path segment.
// Separators become "_", control characters are dropped, and long names are
// cut to maxFileNameLen bytes keeping the extension.
func SanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "", ErrInvalidFileName
	}
	if len(out) > maxFileNameLen {
		ext := path.Ext(out)
		if len(ext) > 16 {
			ext = ""
		}
		stem := strings.ToValidUTF8(out[:maxFileNameLen-len(ext)], "")
		out = stem + ext
	}
	return out, nil
}
