package webflow

import (
	"strings"
	"unicode"
)

var transliterations = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
	'Ä': "ae", 'Ö': "oe", 'Ü': "ue",
	'é': "e", 'è': "e", 'ê': "e", 'á': "a", 'à': "a", 'ó': "o", 'ç': "c",
}

// Slugify turns an item name into a URL slug the CMS accepts: lowercase
// ASCII, digits, and single hyphens. German umlauts transliterate instead of
// dropping.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphens

	for _, r := range strings.ToLower(name) {
		if t, ok := transliterations[r]; ok {
			b.WriteString(t)
			lastHyphen = false
			continue
		}
		if (r >= 'a' && r <= 'z') || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}
