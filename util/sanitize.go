package util

import (
	"path"
	"strings"
	"unicode"
)

// Printable drops control characters and surrounding blanks.
func Printable(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

// Unquote strips one pair of matching quotes that dotenv files and shell
// exports tend to leave around a value.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'"} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// BaseName reduces a client-supplied file name to its last element, using
// fallback when nothing usable is left. Both slash styles separate elements.
func BaseName(name, fallback string) string {
	name = path.Base(Printable(strings.ReplaceAll(name, `\`, "/")))
	switch name {
	case ".", "..", "/", "":
		return fallback
	}
	return name
}
