package quality

import (
	"github.com/pemistahl/lingua-go"

	"github.com/scholardoc/scholarocr/internal/types"
)

// Default floors and weights (spec.md §4.2).
const (
	DefaultConfidenceFloor = 0.3
	DefaultGarbledFloor    = 0.5
	DefaultDictionaryFloor = 0.4
	GrayZoneWidth          = 0.05

	confidenceShortCircuitHigh = 0.95
	confidenceShortCircuitLow  = 0.2
	shortCircuitLiftTo         = 0.9
	shortCircuitCapAt          = 0.3
)

var weightsAllThree = map[string]float64{"garbled": 0.4, "dictionary": 0.3, "confidence": 0.3}
var weightsTwo = map[string]float64{"garbled": 0.55, "dictionary": 0.45}

// Analyzer is the composite multi-signal quality analyzer (spec.md §4.2). It
// always runs regex-garbled and dictionary-coverage; engine-confidence runs
// only when per-token confidence data is supplied.
type Analyzer struct {
	garbled    *RegexGarbledSignal
	dictionary *DictionaryCoverageSignal
	confidence *EngineConfidenceSignal
	threshold  float64

	// detector backs DetectLanguage only; Analyze scores every language
	// against the single merged word list and does not consult it.
	detector lingua.LanguageDetector
}

// NewAnalyzer constructs the analyzer with the pipeline's quality threshold
// and default per-signal floors, plus a language detector over the five
// supported languages for DetectLanguage.
func NewAnalyzer(threshold float64) *Analyzer {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.French, lingua.German, lingua.Greek, lingua.Latin).
		WithPreloadedLanguageModels().
		Build()

	return &Analyzer{
		garbled:    NewRegexGarbledSignal(DefaultGarbledFloor),
		dictionary: NewDictionaryCoverageSignal(nil, DefaultDictionaryFloor),
		confidence: NewEngineConfidenceSignal(DefaultConfidenceFloor),
		threshold:  threshold,
		detector:   detector,
	}
}

// DetectLanguage reports the best-guess language of text among the five
// supported languages. Nothing else in the pipeline calls it: diagnostics'
// "language_confusion" category is derived from signal scores alone. It
// returns false if no language detector is configured or detection is
// inconclusive.
func (a *Analyzer) DetectLanguage(text string) (lingua.Language, bool) {
	if a.detector == nil {
		return 0, false
	}
	return a.detector.DetectLanguageOf(text)
}

// Analyze runs the composite analysis for one page's text, optionally with
// Engine-A per-token confidence data (spec.md §4.2).
func (a *Analyzer) Analyze(text string, confidence []types.TokenConfidence) types.QualityResult {
	garbledOut := a.garbled.Score(text, nil)
	dictOut := a.dictionary.Score(text, nil)

	scores := map[string]float64{
		"garbled":    garbledOut.Score,
		"dictionary": dictOut.Score,
	}
	details := map[string]map[string]interface{}{
		"garbled":    garbledOut.Details,
		"dictionary": dictOut.Details,
	}
	passed := map[string]bool{
		"garbled":    garbledOut.Pass,
		"dictionary": dictOut.Pass,
	}

	var meanConf *float64
	haveConfidence := len(confidence) > 0
	weights := weightsTwo
	if haveConfidence {
		confOut := a.confidence.Score(text, confidence)
		scores["confidence"] = confOut.Score
		details["confidence"] = confOut.Details
		passed["confidence"] = confOut.Pass
		weights = weightsAllThree
		c := confOut.Score
		meanConf = &c
	}

	var weighted, totalWeight float64
	for name, w := range weights {
		if _, ok := scores[name]; ok {
			weighted += scores[name] * w
			totalWeight += w
		}
	}
	composite := 0.0
	if totalWeight > 0 {
		composite = weighted / totalWeight
	}

	if haveConfidence {
		if scores["confidence"] > confidenceShortCircuitHigh && composite < shortCircuitLiftTo {
			composite = shortCircuitLiftTo
		}
		if scores["confidence"] < confidenceShortCircuitLow && composite > shortCircuitCapAt {
			composite = shortCircuitCapAt
		}
	}

	anyFloorFailed := false
	for _, ok := range passed {
		if !ok {
			anyFloorFailed = true
			break
		}
	}
	flagged := composite < a.threshold || anyFloorFailed

	return types.QualityResult{
		Composite:            composite,
		Flagged:               flagged,
		SignalScores:          scores,
		SignalDetails:         details,
		MeanEngineConfidence:  meanConf,
		GrayZone:              isGrayZone(composite, a.threshold),
	}
}

// AnalyzePages applies Analyze per page, yielding an aligned result list
// (spec.md §4.2's analyze_pages).
func (a *Analyzer) AnalyzePages(texts []string, confidences [][]types.TokenConfidence) []types.QualityResult {
	out := make([]types.QualityResult, len(texts))
	for i, t := range texts {
		var conf []types.TokenConfidence
		if confidences != nil && i < len(confidences) {
			conf = confidences[i]
		}
		out[i] = a.Analyze(t, conf)
	}
	return out
}

// isGrayZone reports whether composite falls within GrayZoneWidth of
// threshold on either side (spec.md §4.2, GLOSSARY "Gray zone").
func isGrayZone(composite, threshold float64) bool {
	diff := composite - threshold
	if diff < 0 {
		diff = -diff
	}
	return diff < GrayZoneWidth
}
