package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholardoc/scholarocr/internal/types"
)

func TestComputeSignalDisagreements_AllPairs(t *testing.T) {
	scores := map[string]float64{"garbled": 0.9, "dictionary": 0.5, "confidence": 0.2}
	got := ComputeSignalDisagreements(scores)
	assert.Len(t, got, 3)
}

func TestHasDisagreement_AboveThreshold(t *testing.T) {
	d := []types.SignalDisagreement{{Signals: [2]string{"a", "b"}, Magnitude: 0.35}}
	assert.True(t, HasDisagreement(d))
}

func TestHasDisagreement_BelowThreshold(t *testing.T) {
	d := []types.SignalDisagreement{{Signals: [2]string{"a", "b"}, Magnitude: 0.1}}
	assert.False(t, HasDisagreement(d))
}

func TestClassifyStruggle_CharacterConfusion(t *testing.T) {
	scores := map[string]float64{"garbled": 0.5, "dictionary": 0.8}
	cats := ClassifyStruggle(scores, 0.6, 0.75, nil, types.EngineNone, nil)
	assert.Contains(t, cats, "character_confusion")
}

func TestClassifyStruggle_VocabularyMiss(t *testing.T) {
	scores := map[string]float64{"garbled": 0.8, "dictionary": 0.5}
	cats := ClassifyStruggle(scores, 0.6, 0.75, nil, types.EngineNone, nil)
	assert.Contains(t, cats, "vocabulary_miss")
}

func TestClassifyStruggle_GrayZone(t *testing.T) {
	scores := map[string]float64{"garbled": 0.9, "dictionary": 0.9}
	cats := ClassifyStruggle(scores, 0.74, 0.75, nil, types.EngineNone, nil)
	assert.Contains(t, cats, "gray_zone")
}

func TestClassifyStruggle_SuryaInsufficient(t *testing.T) {
	scores := map[string]float64{"garbled": 0.9, "dictionary": 0.9}
	low := 0.5
	cats := ClassifyStruggle(scores, 0.9, 0.75, nil, types.EngineB, &low)
	assert.Contains(t, cats, "surya_insufficient")
}

func TestCompositeWeights_WithConfidence(t *testing.T) {
	w := CompositeWeights(map[string]float64{"garbled": 1, "dictionary": 1, "confidence": 1})
	assert.Equal(t, 0.4, w["garbled"])
	assert.Equal(t, 0.3, w["confidence"])
}

func TestCompositeWeights_WithoutConfidence(t *testing.T) {
	w := CompositeWeights(map[string]float64{"garbled": 1, "dictionary": 1})
	assert.Equal(t, 0.55, w["garbled"])
	assert.Equal(t, 0.45, w["dictionary"])
}

func TestComputeEngineDiff_IdenticalTextHasSimilarityOne(t *testing.T) {
	diff := ComputeEngineDiff("the quick brown fox", "the quick brown fox")
	assert.Equal(t, 1.0, diff.Similarity)
}

func TestComputeEngineDiff_CompletelyDifferentTextLowSimilarity(t *testing.T) {
	diff := ComputeEngineDiff("alpha beta gamma", "delta epsilon zeta")
	assert.Less(t, diff.Similarity, 0.5)
}

func TestComputeEngineDiff_EmptyBothIsSimilarityOne(t *testing.T) {
	diff := ComputeEngineDiff("", "")
	assert.Equal(t, 1.0, diff.Similarity)
}
