// backend/src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictHTMLPolicy strips all HTML markup.
var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeHTMLStripTags removes every HTML tag using the strict policy.
func SanitizeHTMLStripTags(htmlInput string) string {
	return strictHTMLPolicy.Sanitize(htmlInput)
}

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This makes most spreadsheet software treat it as text.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 0 {
		firstChar := rune(trimmed[0])
		if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
			return "'" + s // Prepend to the original string 's', not 'trimmed' to preserve original spacing if intended
		}
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// CleanText prepares operator-entered free text for storage: HTML markup is
// stripped, escaped entities are folded back to plain characters, unprintable
// runes are dropped and surrounding whitespace is trimmed. The result stays
// plain text, so "Tour & merch" survives while "<script>" does not.
func CleanText(s string) string {
	return strings.TrimSpace(StripUnprintable(html.UnescapeString(SanitizeHTMLStripTags(s))))
}
