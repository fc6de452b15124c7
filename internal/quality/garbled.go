package quality

import (
	"regexp"
	"strings"

	"github.com/scholardoc/scholarocr/internal/quality/assets"
	"github.com/scholardoc/scholarocr/internal/types"
)

// garbledPattern is one of the four garbled-text detectors checked, in
// order, against a token that survived the stop-word/reference/vocabulary
// exemptions (spec.md §4.1).
type garbledPattern struct {
	name string
	re   *regexp.Regexp
}

var garbledPatterns = []garbledPattern{
	{"consonant_cluster", regexp.MustCompile(`(?i)[bcdfghjklmnpqrstvwxz]{6,}`)},
	{"symbol_run", regexp.MustCompile(`[^\w\s.,;:!?'"\-–—…*()]{3,}`)},
	{"weird_case", regexp.MustCompile(`\b[A-Z][a-z]+[A-Z][a-z]*\b`)},
	{"control_char", regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)},
}

const stripPunct = ".,;:!?()[]{}\"'-–—"

// RegexGarbledSignal flags tokens matching one of a handful of
// garbled-OCR heuristics, exempting known reference/citation shapes, short
// common words, and curated academic vocabulary.
type RegexGarbledSignal struct {
	floor float64
}

// NewRegexGarbledSignal constructs the signal with its pass floor (default
// 0.5 per spec.md §4.2's defaults table).
func NewRegexGarbledSignal(floor float64) *RegexGarbledSignal {
	return &RegexGarbledSignal{floor: floor}
}

func (s *RegexGarbledSignal) Name() string { return "garbled" }

func (s *RegexGarbledSignal) Score(text string, _ []types.TokenConfidence) types.SignalOutcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.SignalOutcome{Score: 1.0, Pass: true, Details: map[string]interface{}{"garbled_count": 0, "total": 0}}
	}

	words := strings.Fields(trimmed)
	total := 0
	garbled := 0
	var samples []string

	for _, raw := range words {
		word := strings.Trim(raw, stripPunct)
		lower := strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, ok := assets.ValidShort[lower]; ok {
			continue
		}
		if assets.IsValidReference(word) {
			continue
		}
		if _, ok := assets.PhilosophyVocab[lower]; ok {
			continue
		}

		total++
		if isGarbledToken(word, lower) {
			garbled++
			if len(samples) < 10 {
				samples = append(samples, word)
			}
		}
	}

	if total == 0 {
		return types.SignalOutcome{Score: 1.0, Pass: true, Details: map[string]interface{}{"garbled_count": 0, "total": 0}}
	}

	ratio := float64(garbled) / float64(total)
	score := 1.0 - ratio*2
	if score < 0 {
		score = 0
	}

	return types.SignalOutcome{
		Score: score,
		Pass:  score >= s.floor,
		Details: map[string]interface{}{
			"garbled_count":  garbled,
			"total":          total,
			"sample_issues":  samples,
		},
	}
}

func isGarbledToken(word, lower string) bool {
	if len(word) > 4 {
		alpha := 0
		for _, r := range word {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				alpha++
			}
		}
		if float64(alpha)/float64(len(word)) < 0.3 {
			return true
		}
	}

	hasGermanSuffix := false
	for _, suf := range assets.GermanSuffixes {
		if strings.HasSuffix(lower, suf) {
			hasGermanSuffix = true
			break
		}
	}

	for _, p := range garbledPatterns {
		if p.name == "consonant_cluster" && hasGermanSuffix {
			continue
		}
		if p.re.MatchString(word) {
			return true
		}
	}
	return false
}
