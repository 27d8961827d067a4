package publisher

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// excerptLimit is the default excerpt length in characters (runes).
const excerptLimit = 200

var stripPolicy = bluemonday.StrictPolicy()

// DeriveExcerpt returns the first ~200 characters of the body with markup
// stripped, used when the author supplies no excerpt.
func DeriveExcerpt(content string) string {
	plain := html.UnescapeString(stripPolicy.Sanitize(content))
	plain = strings.Join(strings.Fields(plain), " ")

	runes := []rune(plain)
	if len(runes) <= excerptLimit {
		return plain
	}
	return strings.TrimRight(string(runes[:excerptLimit]), " ") + "..."
}
