// Package postprocess implements the OCR text post-processing pipeline:
// four idempotent transforms applied in a fixed order (spec.md §4.3).
package postprocess

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ligatures maps the five standard f-ligatures to their ASCII expansions.
// Expanded before NFC, which leaves them untouched.
var ligatures = map[string]string{
	"ﬀ": "ff",
	"ﬁ": "fi",
	"ﬂ": "fl",
	"ﬃ": "ffi",
	"ﬄ": "ffl",
}

const softHyphen = "­"

// hyphenatedNames is the curated set of compound proper names that keep
// their hyphen even when it falls at a line break.
var hyphenatedNames = map[string]struct{}{
	"merleau-ponty":   {},
	"sartre-beauvoir": {},
	"buber-rosenzweig": {},
}

var (
	lineBreakHyphen  = regexp.MustCompile(`(\w+)-\n(\w+)`)
	doubleNewline    = regexp.MustCompile(`\n\n+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?])`)
	multiSpace       = regexp.MustCompile(`  +`)
	trailingLineWS   = regexp.MustCompile(`[ \t]+(\n)`)
	trailingWS       = regexp.MustCompile(`[ \t]+$`)
)

// Counts tallies how many replacements each transform made, for the
// instrumented variant (spec.md §4.3).
type Counts struct {
	UnicodeNormalizations int
	Dehyphenations        int
	ParagraphJoins        int
	PunctuationFixes      int
}

// Process runs the four transforms in spec order: unicode normalization,
// dehyphenation, paragraph join, whitespace normalization. It is idempotent:
// Process(Process(t)) == Process(t).
func Process(text string) string {
	text = NormalizeUnicode(text, nil)
	text = Dehyphenate(text, nil, nil)
	text = JoinParagraphs(text, nil)
	text = NormalizeWhitespace(text, nil)
	return text
}

// ProcessInstrumented runs the same pipeline, also returning per-transform
// replacement counts.
func ProcessInstrumented(text string) (string, Counts) {
	var c Counts
	text = NormalizeUnicode(text, &c)
	text = Dehyphenate(text, nil, &c)
	text = JoinParagraphs(text, &c)
	text = NormalizeWhitespace(text, &c)
	return text, c
}

// NormalizeUnicode expands the five f-ligatures, removes soft hyphens, and
// NFC-normalizes text. Idempotent and NFC-preserving.
func NormalizeUnicode(text string, counts *Counts) string {
	total := 0
	for lig, repl := range ligatures {
		if counts != nil {
			total += strings.Count(text, lig)
		}
		text = strings.ReplaceAll(text, lig, repl)
	}
	if counts != nil {
		total += strings.Count(text, softHyphen)
	}
	text = strings.ReplaceAll(text, softHyphen, "")
	text = norm.NFC.String(text)
	if counts != nil {
		counts.UnicodeNormalizations += total
	}
	return text
}

// Dehyphenate rejoins line-break hyphens (`word-\nword`) unless the joined
// form is a known hyphenated proper name or both halves are capitalized.
// terms adds further lower-cased joined forms that keep their hyphen; nil
// adds none beyond hyphenatedNames (the bundled proper-name exceptions
// already cover the spec's "small curated set").
func Dehyphenate(text string, terms map[string]struct{}, counts *Counts) string {
	rejoinCount := 0
	result := lineBreakHyphen.ReplaceAllStringFunc(text, func(m string) string {
		sub := lineBreakHyphen.FindStringSubmatch(m)
		left, right := sub[1], sub[2]
		hyphenated := left + "-" + right

		if _, ok := hyphenatedNames[strings.ToLower(hyphenated)]; ok {
			return hyphenated
		}
		if _, ok := terms[strings.ToLower(hyphenated)]; ok {
			return hyphenated
		}
		if isUpper(left) && isUpper(right) {
			return hyphenated
		}
		rejoinCount++
		return left + right
	})
	if counts != nil {
		counts.Dehyphenations += rejoinCount
	}
	return result
}

func isUpper(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r >= 'A' && r <= 'Z'
}

// JoinParagraphs splits text on runs of two-or-more newlines into blocks,
// then within each block merges single-newline-joined lines with a space,
// except when the next line is indented (a nested paragraph) or the
// previous visible line is short and the next starts upper-case (a heading
// boundary).
func JoinParagraphs(text string, counts *Counts) string {
	joinCount := 0
	blocks := doubleNewline.Split(text, -1)
	resultBlocks := make([]string, 0, len(blocks))

	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) <= 1 {
			resultBlocks = append(resultBlocks, block)
			continue
		}

		var merged []string
		for i, line := range lines {
			stripped := strings.TrimRight(line, " \t\r")

			if line != "" && (line[0] == ' ' || line[0] == '\t') && i > 0 {
				merged = append(merged, "\n"+line)
				continue
			}

			if i > 0 && len(merged) > 0 {
				prev := strings.TrimRight(merged[len(merged)-1], " \t\r")
				prevVisible := strings.ReplaceAll(prev, "\n", "")
				if len(prevVisible) < 60 && stripped != "" && startsUpper(stripped) {
					merged = append(merged, "\n"+stripped)
					continue
				}
			}

			if i == 0 {
				merged = append(merged, stripped)
			} else {
				merged = append(merged, " "+stripped)
				joinCount++
			}
		}

		resultBlocks = append(resultBlocks, strings.Join(merged, ""))
	}

	if counts != nil {
		counts.ParagraphJoins += joinCount
	}
	return strings.Join(resultBlocks, "\n\n")
}

func startsUpper(s string) bool {
	r := []rune(s)[0]
	return r >= 'A' && r <= 'Z'
}

// NormalizeWhitespace drops whitespace before `. , ; : ! ?`, collapses runs
// of two-or-more spaces to one, and strips trailing whitespace per line.
func NormalizeWhitespace(text string, counts *Counts) string {
	if counts == nil {
		text = spaceBeforePunct.ReplaceAllString(text, "$1")
		text = multiSpace.ReplaceAllString(text, " ")
		text = trailingLineWS.ReplaceAllString(text, "$1")
		text = trailingWS.ReplaceAllString(text, "")
		return text
	}

	total := 0
	text, n := replaceAllCount(spaceBeforePunct, text, "$1")
	total += n
	text, n = replaceAllCount(multiSpace, text, " ")
	total += n
	text, n = replaceAllCount(trailingLineWS, text, "$1")
	total += n
	text, n = replaceAllCount(trailingWS, text, "")
	total += n
	counts.PunctuationFixes += total
	return text
}

func replaceAllCount(re *regexp.Regexp, text, repl string) (string, int) {
	n := 0
	out := re.ReplaceAllStringFunc(text, func(m string) string {
		n++
		return re.ReplaceAllString(m, repl)
	})
	return out, n
}
