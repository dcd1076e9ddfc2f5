package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Tour & merch", CleanText("  Tour & merch  "))
	assert.Equal(t, "Vinyl repress", CleanText("<b>Vinyl</b> repress"))
	assert.Equal(t, "pressing & shipping", CleanText("<script>alert(1)</script>pressing & shipping"))
	assert.Equal(t, "NuitBlanche", CleanText("Nuit\x07Blanche"))
	assert.Equal(t, "", CleanText("   "))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A9)", SanitizeForFormulaInjection("=SUM(A1:A9)"))
	assert.Equal(t, "'-150", SanitizeForFormulaInjection("-150"))
	assert.Equal(t, "' @cmd", SanitizeForFormulaInjection(" @cmd"), "original spacing is preserved")
	assert.Equal(t, "Disques Nord", SanitizeForFormulaInjection("Disques Nord"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"), "common whitespace survives")
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x1bc"))
}
