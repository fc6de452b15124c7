package quality

import (
	"strings"

	"github.com/scholardoc/scholarocr/internal/quality/assets"
	"github.com/scholardoc/scholarocr/internal/types"
)

var vowels = map[rune]bool{}

func init() {
	for _, r := range "aeiouyàáâãäåèéêëìíîïòóôõöùúûüæœ" {
		vowels[r] = true
	}
}

// DictionaryCoverageSignal scores text by the fraction of tokens found in
// (or structurally consistent with) a bundled word list (spec.md §4.1).
type DictionaryCoverageSignal struct {
	words map[string]struct{}
	floor float64
}

// NewDictionaryCoverageSignal constructs the signal over the bundled word
// list, merging extra vocabulary if given, with the supplied pass floor
// (the analyzer passes DefaultDictionaryFloor, 0.4).
func NewDictionaryCoverageSignal(extraVocab map[string]struct{}, floor float64) *DictionaryCoverageSignal {
	words := make(map[string]struct{}, len(assets.WordList())+len(extraVocab))
	for w := range assets.WordList() {
		words[w] = struct{}{}
	}
	for w := range extraVocab {
		words[w] = struct{}{}
	}
	return &DictionaryCoverageSignal{words: words, floor: floor}
}

func (s *DictionaryCoverageSignal) Name() string { return "dictionary" }

func (s *DictionaryCoverageSignal) Score(text string, _ []types.TokenConfidence) types.SignalOutcome {
	if strings.TrimSpace(text) == "" {
		return types.SignalOutcome{
			Score: 1.0, Pass: true,
			Details: map[string]interface{}{"known_count": 0, "unknown_structured": 0, "unknown_garbled": 0, "total": 0},
		}
	}

	var known, structured, garbled, total int
	for _, raw := range strings.Fields(text) {
		word := strings.Trim(raw, stripPunct)
		if len(word) < 3 || !containsLetter(word) {
			continue
		}
		total++
		lower := strings.ToLower(word)
		switch {
		case hasWord(s.words, lower):
			known++
		case isStructurallyValid(word):
			structured++
		default:
			garbled++
		}
	}

	if total == 0 {
		return types.SignalOutcome{
			Score: 1.0, Pass: true,
			Details: map[string]interface{}{"known_count": 0, "unknown_structured": 0, "unknown_garbled": 0, "total": 0},
		}
	}

	weighted := float64(known)*1.0 + float64(structured)*0.5
	score := weighted / float64(total)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	return types.SignalOutcome{
		Score: score,
		Pass:  score >= s.floor,
		Details: map[string]interface{}{
			"known_count":        known,
			"unknown_structured": structured,
			"unknown_garbled":    garbled,
			"total":              total,
		},
	}
}

func hasWord(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}

// isStructurallyValid reports whether word "looks like a real word" even if
// absent from the dictionary (spec.md §4.1's vowel-ratio and repeat-run
// checks).
func isStructurallyValid(word string) bool {
	lower := []rune(strings.ToLower(word))
	length := len(lower)
	if length < 2 {
		return true
	}

	vowelCount := 0
	for _, r := range lower {
		if vowels[r] {
			vowelCount++
		}
	}
	vowelRatio := float64(vowelCount) / float64(length)

	if vowelRatio < 0.1 && length > 3 {
		return false
	}
	if vowelRatio > 0.9 && length > 4 {
		return false
	}
	if hasRepeatRun(lower, 4) {
		return false
	}
	if hasAlternatingRun(lower, 3) {
		return false
	}
	if length > 6 {
		unique := make(map[rune]struct{}, length)
		for _, r := range lower {
			unique[r] = struct{}{}
		}
		if float64(len(unique))/float64(length) < 0.3 {
			return false
		}
	}
	return true
}

// hasRepeatRun reports whether lower contains the same rune repeated n or
// more times consecutively.
func hasRepeatRun(lower []rune, n int) bool {
	run := 1
	for i := 1; i < len(lower); i++ {
		if lower[i] == lower[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasAlternatingRun reports whether lower contains a two-char sequence
// repeated n or more times contiguously (e.g. "xzxzxz").
func hasAlternatingRun(lower []rune, n int) bool {
	span := 2 * n
	for i := 0; i+span <= len(lower); i++ {
		ok := true
		for j := 0; j < span-2; j++ {
			if lower[i+j] != lower[i+j+2] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
