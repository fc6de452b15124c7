package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess_ScenarioF(t *testing.T) {
	input := "eﬀort-\nlessly  has a ﬁle ."
	out := Process(input)
	assert.Contains(t, out, "effortlessly")
	assert.Contains(t, out, "file.")
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, " .")
}

func TestProcess_Idempotent(t *testing.T) {
	input := "Some   text-\nbreak with  double  spaces . And more ."
	once := Process(input)
	twice := Process(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeUnicode_IdempotentAndNFC(t *testing.T) {
	input := "näive ﬁle­"
	once := NormalizeUnicode(input, nil)
	twice := NormalizeUnicode(once, nil)
	assert.Equal(t, once, twice)
	assert.NotContains(t, once, "­")
}

func TestDehyphenate_PreservesCuratedProperName(t *testing.T) {
	input := "See Merleau-\nPonty for details."
	out := Dehyphenate(input, nil, nil)
	assert.Contains(t, out, "Merleau-Ponty")
}

func TestDehyphenate_PreservesCapitalizedNamePair(t *testing.T) {
	input := "Jean-\nPaul Sartre wrote extensively."
	out := Dehyphenate(input, nil, nil)
	assert.Contains(t, out, "Jean-Paul")
}

func TestDehyphenate_LeavesInlineHyphenAlone(t *testing.T) {
	input := "A well-known fact."
	out := Dehyphenate(input, nil, nil)
	assert.Equal(t, input, out)
}

func TestDehyphenate_RejoinsOrdinaryBreak(t *testing.T) {
	input := "This is a complex-\nity of language."
	out := Dehyphenate(input, nil, nil)
	assert.Contains(t, out, "complexity")
}

func TestJoinParagraphs_PreservesBlankLineBoundaries(t *testing.T) {
	input := "First paragraph line one\nline two.\n\nSecond paragraph."
	out := JoinParagraphs(input, nil)
	assert.Contains(t, out, "\n\n")
}

func TestNormalizeWhitespace_CollapsesAndStrips(t *testing.T) {
	input := "Hello  world .\nTrailing line   \n"
	out := NormalizeWhitespace(input, nil)
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, " .")
}

func TestProcessInstrumented_ReportsCounts(t *testing.T) {
	input := "eﬀort-\nlessly  has a ﬁle ."
	_, counts := ProcessInstrumented(input)
	assert.Greater(t, counts.UnicodeNormalizations, 0)
	assert.Greater(t, counts.Dehyphenations, 0)
}
