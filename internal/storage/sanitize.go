package storage

import (
	"strings"
	"unicode/utf8"
)

// maxFilenameLen bounds sanitized names to stay well inside filesystem
// filename limits.
const maxFilenameLen = 200

// SanitizeKeyword converts a keyword into a safe store filename stem:
// filesystem-illegal characters and spaces become underscores, leading and
// trailing underscores and dots are trimmed, and the result is truncated.
// Distinct keywords can sanitize to the same name and will share a store.
func SanitizeKeyword(keyword string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', ' ':
			return '_'
		}

		return r
	}, keyword)

	name = strings.Trim(name, "_.")

	if utf8.RuneCountInString(name) > maxFilenameLen {
		runes := []rune(name)
		name = string(runes[:maxFilenameLen])
	}

	return name
}
