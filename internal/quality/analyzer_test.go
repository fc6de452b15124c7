package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholardoc/scholarocr/internal/types"
)

func TestAnalyzer_EmptyTextNotFlagged(t *testing.T) {
	a := NewAnalyzer(0.85)
	res := a.Analyze("", nil)
	assert.False(t, res.Flagged)
	assert.Equal(t, 1.0, res.SignalScores["garbled"])
}

func TestAnalyzer_CleanEnglishTextNotFlagged(t *testing.T) {
	a := NewAnalyzer(0.85)
	text := "The quick brown fox jumps over the lazy dog. "
	res := a.Analyze(text, nil)
	assert.False(t, res.Flagged)
	assert.GreaterOrEqual(t, res.Composite, 0.85)
}

func TestAnalyzer_GarbledTextFlagged(t *testing.T) {
	a := NewAnalyzer(0.85)
	text := "xqzjklw vbncmzx qwrtypsdfg hjklzxcv bnmqwerty asdfghjklzxcvbnm"
	res := a.Analyze(text, nil)
	assert.True(t, res.Flagged)
}

func TestAnalyzer_ConfidenceShortCircuitHighLiftsComposite(t *testing.T) {
	a := NewAnalyzer(0.85)
	conf := []types.TokenConfidence{
		{Text: "zzqx", Confidence: 99},
		{Text: "vbnm", Confidence: 98},
	}
	res := a.Analyze("zzqx vbnm", conf)
	assert.GreaterOrEqual(t, res.Composite, 0.9)
}

func TestAnalyzer_ConfidenceShortCircuitLowCapsComposite(t *testing.T) {
	a := NewAnalyzer(0.85)
	conf := []types.TokenConfidence{
		{Text: "the", Confidence: 5},
		{Text: "quick", Confidence: 5},
	}
	res := a.Analyze("the quick brown fox jumps over the lazy dog", conf)
	assert.LessOrEqual(t, res.Composite, 0.3)
}

func TestAnalyzer_GrayZone(t *testing.T) {
	a := NewAnalyzer(0.85)
	assert.True(t, isGrayZone(0.86, 0.85))
	assert.True(t, isGrayZone(0.81, 0.85))
	assert.False(t, isGrayZone(0.5, 0.85))
	_ = a
}

func TestRegexGarbledSignal_ExemptsPhilosophyVocab(t *testing.T) {
	s := NewRegexGarbledSignal(DefaultGarbledFloor)
	out := s.Score("Dasein and Geworfenheit are central to the analysis.", nil)
	assert.True(t, out.Pass)
}

func TestDictionaryCoverageSignal_KnownWordsScoreHigh(t *testing.T) {
	s := NewDictionaryCoverageSignal(nil, DefaultDictionaryFloor)
	out := s.Score("the world is a place of truth and reason", nil)
	assert.GreaterOrEqual(t, out.Score, 0.5)
}

func TestEngineConfidenceSignal_NoDataIsNeutral(t *testing.T) {
	s := NewEngineConfidenceSignal(DefaultConfidenceFloor)
	out := s.Score("", nil)
	assert.Equal(t, 0.5, out.Score)
	assert.True(t, out.Pass)
}

func TestEngineConfidenceSignal_WeightsByTokenLength(t *testing.T) {
	s := NewEngineConfidenceSignal(DefaultConfidenceFloor)
	conf := []types.TokenConfidence{
		{Text: "a", Confidence: 10},
		{Text: "philosophical", Confidence: 90},
	}
	out := s.Score("", conf)
	assert.Greater(t, out.Score, 0.5)
}
