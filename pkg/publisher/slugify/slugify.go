// Package slugify converts titles in any script into URL-friendly slugs.
// Non-Latin input (Bengali, Hindi, etc.) is transliterated to ASCII before
// normalization so every article gets a usable slug.
package slugify

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a string to a lowercase hyphenated slug: transliterate to
// ASCII, decompose and strip accents, replace whitespace with hyphens, and
// drop everything that is not [a-z0-9-].
func Slugify(s string) string {
	result := unidecode.Unidecode(s)

	// Decompose any remaining accented characters
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ = transform.String(t, result)

	result = strings.ToLower(result)
	result = strings.Join(strings.Fields(result), "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// WithSuffix appends a random 8-character disambiguating suffix, the
// authoring-path strategy for guaranteeing global slug uniqueness.
func WithSuffix(slug string) string {
	if slug == "" {
		slug = "untitled"
	}
	return slug + "-" + randomSuffix(8)
}

func randomSuffix(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// fixed marker rather than panicking in a request path.
		return strings.Repeat("x", n)
	}
	return hex.EncodeToString(buf)[:n]
}

// IsValid reports whether s is already a well-formed slug.
func IsValid(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	if strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}
