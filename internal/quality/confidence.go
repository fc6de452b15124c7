package quality

import "github.com/scholardoc/scholarocr/internal/types"

// EngineConfidenceSignal scores Engine-A's own per-token confidence
// figures, weighting longer tokens more heavily (spec.md §4.1).
type EngineConfidenceSignal struct {
	floor float64
}

// NewEngineConfidenceSignal constructs the signal with its pass floor
// (the analyzer passes DefaultConfidenceFloor, 0.3).
func NewEngineConfidenceSignal(floor float64) *EngineConfidenceSignal {
	return &EngineConfidenceSignal{floor: floor}
}

func (s *EngineConfidenceSignal) Name() string { return "confidence" }

func (s *EngineConfidenceSignal) Score(_ string, confidence []types.TokenConfidence) types.SignalOutcome {
	var valid []types.TokenConfidence
	for _, t := range confidence {
		if t.Confidence > 0 && t.Text != "" {
			valid = append(valid, t)
		}
	}

	if len(valid) == 0 {
		return types.SignalOutcome{
			Score: 0.5, Pass: true,
			Details: map[string]interface{}{"word_count": 0, "reason": "no_data"},
		}
	}

	var weightedSum float64
	var totalWeight float64
	minConf := valid[0].Confidence
	var lowConf []string
	for _, t := range valid {
		weight := float64(len(t.Text))
		if weight < 1 {
			weight = 1
		}
		weightedSum += float64(t.Confidence) * weight
		totalWeight += weight
		if t.Confidence < minConf {
			minConf = t.Confidence
		}
		if t.Confidence < 30 && len(lowConf) < 20 {
			lowConf = append(lowConf, t.Text)
		}
	}

	meanConf := weightedSum / totalWeight
	normalized := meanConf / 100.0

	return types.SignalOutcome{
		Score: normalized,
		Pass:  normalized >= s.floor,
		Details: map[string]interface{}{
			"word_count":     len(valid),
			"mean_conf":       meanConf,
			"min_conf":        minConf,
			"low_conf_words":  lowConf,
		},
	}
}
