package core

import (
	"strings"
	"unicode"
)

// Sanitize drops every rune that is not a letter, a number, a space, '.',
// '_', '-' or ','. Nothing is substituted, so distinct names may collapse into
// the same result.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if isAllowedRune(r) {
			return r
		}

		return -1
	}, name)
}

func isAllowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}

	switch r {
	case ' ', '.', '_', '-', ',':
		return true
	}

	return false
}
