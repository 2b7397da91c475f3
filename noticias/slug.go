package noticias

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Mapa de caracteres acentuados frecuentes en español a su letra base.
// La descomposición NFKD cubre el resto de diacríticos.
var accentMap = map[rune]rune{
	'á': 'a', 'à': 'a', 'ä': 'a', 'â': 'a',
	'é': 'e', 'è': 'e', 'ë': 'e', 'ê': 'e',
	'í': 'i', 'ì': 'i', 'ï': 'i', 'î': 'i',
	'ó': 'o', 'ò': 'o', 'ö': 'o', 'ô': 'o',
	'ú': 'u', 'ù': 'u', 'ü': 'u', 'û': 'u',
	'ñ': 'n', 'ç': 'c',
}

// Slugify derives a URL-safe ASCII identifier from a free-text title.
// Deterministic and idempotent: applying it to its own output returns the
// same string. An all-punctuation title yields the empty string; callers
// must treat that as invalid.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = norm.NFKD.String(slug)

	slug = strings.Map(func(r rune) rune {
		if replacement, ok := accentMap[r]; ok {
			return replacement
		}
		if unicode.Is(unicode.Mn, r) {
			return -1 // drop combining marks left by the decomposition
		}
		return r
	}, slug)

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		if r == ' ' || r == '\t' || r == '\n' {
			return '-'
		}
		return -1
	}, slug)

	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}
