// Package quality implements the three independent OCR-quality signals and
// the composite analyzer that combines them (spec.md §4.1, §4.2).
package quality

import "github.com/scholardoc/scholarocr/internal/types"

// Signal is the shared contract across all quality signals: a pure function
// of a page's text (and, for the confidence signal, per-token OCR
// confidence) to a score in [0,1], a pass flag against the signal's own
// floor, and a free-form details map. No signal does I/O beyond reading its
// bundled, loaded-once resource.
type Signal interface {
	Name() string
	Score(text string, confidence []types.TokenConfidence) types.SignalOutcome
}
