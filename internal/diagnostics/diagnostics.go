// Package diagnostics builds the extended per-page diagnostics payload
// (spec.md §4.9, §6): signal breakdown, pairwise signal disagreement,
// struggle-category classification, and Engine-A/Engine-B word diffing.
// Grounded on original_source's diagnostics.py.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/scholardoc/scholarocr/internal/types"
)

// DisagreementThreshold is the pairwise signal-score gap above which two
// signals are considered to disagree (spec.md DIAG-03).
const DisagreementThreshold = 0.3

// GrayZoneWidth mirrors the quality analyzer's gray-zone width so struggle
// classification's gray_zone category uses the same boundary.
const GrayZoneWidth = 0.05

var weightsAllThree = map[string]float64{"garbled": 0.4, "dictionary": 0.3, "confidence": 0.3}
var weightsTwo = map[string]float64{"garbled": 0.55, "dictionary": 0.45}

// ComputeSignalDisagreements returns every pairwise (signal, signal)
// magnitude, independent of any threshold, so callers can apply their own.
func ComputeSignalDisagreements(signalScores map[string]float64) []types.SignalDisagreement {
	names := make([]string, 0, len(signalScores))
	for name := range signalScores {
		names = append(names, name)
	}
	sortStrings(names)

	var out []types.SignalDisagreement
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			magnitude := round4(absf(signalScores[a] - signalScores[b]))
			out = append(out, types.SignalDisagreement{Signals: [2]string{a, b}, Magnitude: magnitude})
		}
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round4(v float64) float64 {
	const scale = 10000
	return float64(int(v*scale+0.5)) / scale
}

// HasDisagreement reports whether any pairwise magnitude exceeds
// DisagreementThreshold.
func HasDisagreement(disagreements []types.SignalDisagreement) bool {
	for _, d := range disagreements {
		if d.Magnitude > DisagreementThreshold {
			return true
		}
	}
	return false
}

// ImageQuality is the optional --diagnostics-only scan-quality metrics
// bundle; nil when not computed.
type ImageQuality struct {
	DPI        *float64
	Contrast   float64
	BlurScore  float64
	SkewAngle  *float64
}

// ClassifyStruggle assigns every applicable struggle category to a page.
// All checks are independent; the result may contain any subset of the
// eight categories, including none (spec.md DIAG-06).
func ClassifyStruggle(signalScores map[string]float64, composite, threshold float64,
	imageQuality *ImageQuality, engine types.Engine, engineBScore *float64) []string {

	garbled, hasGarbled := signalScores["garbled"]
	if !hasGarbled {
		garbled = 1.0
	}
	dictionary, hasDictionary := signalScores["dictionary"]
	if !hasDictionary {
		dictionary = 1.0
	}
	confidence, hasConfidence := signalScores["confidence"]

	var categories []string

	switch {
	case imageQuality != nil:
		if imageQuality.BlurScore < 50 || imageQuality.Contrast < 0.1 {
			categories = append(categories, "bad_scan")
		}
	case hasConfidence && confidence < 0.3 && garbled < 0.4:
		categories = append(categories, "bad_scan")
	}

	if garbled < 0.7 && dictionary > 0.5 {
		categories = append(categories, "character_confusion")
	}

	if dictionary < 0.6 && garbled > 0.7 {
		categories = append(categories, "vocabulary_miss")
	}

	if hasConfidence && confidence > 0.7 && composite < threshold {
		categories = append(categories, "layout_error")
	}

	if dictionary < 0.4 && garbled > 0.4 && garbled < 0.7 {
		categories = append(categories, "language_confusion")
	}

	if hasConfidence {
		pairs := []float64{absf(garbled - confidence), absf(garbled - dictionary), absf(dictionary - confidence)}
		for _, p := range pairs {
			if p > DisagreementThreshold {
				categories = append(categories, "signal_disagreement")
				break
			}
		}
	} else if absf(garbled-dictionary) > DisagreementThreshold {
		categories = append(categories, "signal_disagreement")
	}

	if absf(composite-threshold) < GrayZoneWidth {
		categories = append(categories, "gray_zone")
	}

	if engine == types.EngineB && engineBScore != nil && *engineBScore < threshold {
		categories = append(categories, "surya_insufficient")
	}

	return categories
}

// CompositeWeights returns the weight set that was actually used to
// compute a page's composite score, inferred from which signals are
// present (spec.md §4.2).
func CompositeWeights(signalScores map[string]float64) map[string]float64 {
	if _, ok := signalScores["confidence"]; ok {
		return weightsAllThree
	}
	return weightsTwo
}

// BuildAlwaysDiagnostics constructs the always-captured subset of
// PageDiagnostics from a QualityResult, leaving diagnostics-gated fields
// (image quality, engine diff) unset (spec.md DIAG-02/03/06, grounded on
// build_always_diagnostics).
func BuildAlwaysDiagnostics(qr types.QualityResult, threshold float64) *types.PageDiagnostics {
	disagreements := ComputeSignalDisagreements(qr.SignalScores)
	categories := ClassifyStruggle(qr.SignalScores, qr.Composite, threshold, nil, types.EngineNone, nil)

	return &types.PageDiagnostics{
		SignalScores:          qr.SignalScores,
		SignalDetails:         qr.SignalDetails,
		CompositeWeights:      CompositeWeights(qr.SignalScores),
		SignalDisagreements:   disagreements,
		HasSignalDisagreement: HasDisagreement(disagreements),
		PostprocessCounts:     map[string]int{},
		StruggleCategories:    categories,
	}
}

// ComputeEngineDiff compares Engine-A and Engine-B text for the same page
// word by word, using a longest-common-subsequence alignment (spec.md
// DIAG-04, grounded on compute_engine_diff's difflib.SequenceMatcher
// usage). The result carries both texts and their similarity ratio; the
// insert/delete/replace spans are computed but not included in it.
func ComputeEngineDiff(engineAText, engineBText string) types.EngineDiff {
	wordsA := strings.Fields(engineAText)
	wordsB := strings.Fields(engineBText)

	ops := diffOpcodes(wordsA, wordsB)

	var additions, deletions []string
	var substitutions []map[string]string
	for _, op := range ops {
		switch op.tag {
		case opInsert:
			additions = append(additions, wordsB[op.j1:op.j2]...)
		case opDelete:
			deletions = append(deletions, wordsA[op.i1:op.i2]...)
		case opReplace:
			substitutions = append(substitutions, map[string]string{
				"old": strings.Join(wordsA[op.i1:op.i2], " "),
				"new": strings.Join(wordsB[op.j1:op.j2], " "),
			})
		}
	}

	return types.EngineDiff{
		EngineAText: engineAText,
		EngineBText: engineBText,
		Similarity:  similarityRatio(wordsA, wordsB),
	}
}

type opTag int

const (
	opEqual opTag = iota
	opInsert
	opDelete
	opReplace
)

type opcode struct {
	tag            opTag
	i1, i2, j1, j2 int
}

// diffOpcodes aligns a and b via a simple LCS-based diff, grouping runs of
// non-matching spans into insert/delete/replace opcodes the way
// difflib.SequenceMatcher.get_opcodes does.
func diffOpcodes(a, b []string) []opcode {
	m, n := len(a), len(b)
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []opcode
	i, j := 0, 0
	runDelStart, runInsStart := -1, -1
	flush := func() {
		if runDelStart == -1 && runInsStart == -1 {
			return
		}
		di1, di2 := runDelStart, i
		ji1, ji2 := runInsStart, j
		if runDelStart == -1 {
			di1, di2 = i, i
		}
		if runInsStart == -1 {
			ji1, ji2 = j, j
		}
		switch {
		case di1 < di2 && ji1 < ji2:
			ops = append(ops, opcode{opReplace, di1, di2, ji1, ji2})
		case di1 < di2:
			ops = append(ops, opcode{opDelete, di1, di2, ji1, ji2})
		case ji1 < ji2:
			ops = append(ops, opcode{opInsert, di1, di2, ji1, ji2})
		}
		runDelStart, runInsStart = -1, -1
	}

	for i < m && j < n {
		if a[i] == b[j] {
			flush()
			i++
			j++
			continue
		}
		if lcs[i+1][j] >= lcs[i][j+1] {
			if runDelStart == -1 {
				runDelStart = i
			}
			i++
		} else {
			if runInsStart == -1 {
				runInsStart = j
			}
			j++
		}
	}
	if i < m && runDelStart == -1 {
		runDelStart = i
	}
	if j < n && runInsStart == -1 {
		runInsStart = j
	}
	i, j = m, n
	flush()

	return ops
}

func similarityRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	matches := lcsLength(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(total)
}

func lcsLength(a, b []string) int {
	m, n := len(a), len(b)
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

// FormatDisagreement renders a disagreement for logging.
func FormatDisagreement(d types.SignalDisagreement) string {
	return fmt.Sprintf("%s/%s: %.4f", d.Signals[0], d.Signals[1], d.Magnitude)
}
