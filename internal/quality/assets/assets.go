// Package assets bundles the quality signals' frozen, loaded-once resources:
// the multi-language stop-word and "valid reference" exception lists, the
// curated philosophy vocabulary, the dictionary word list, and the German
// compound-suffix exception list (spec.md §4.1).
package assets

import (
	"bufio"
	_ "embed"
	"regexp"
	"strings"
	"sync"
)

//go:embed wordlist.txt
var wordlistRaw string

var (
	wordlistOnce sync.Once
	wordlistSet  map[string]struct{}
)

// WordList returns the bundled dictionary word list, lower-cased, loaded
// once regardless of how many DictionaryCoverageSignal instances are constructed.
func WordList() map[string]struct{} {
	wordlistOnce.Do(func() {
		wordlistSet = make(map[string]struct{}, 4096)
		sc := bufio.NewScanner(strings.NewReader(wordlistRaw))
		for sc.Scan() {
			w := strings.ToLower(strings.TrimSpace(sc.Text()))
			if w == "" || strings.HasPrefix(w, "#") {
				continue
			}
			wordlistSet[w] = struct{}{}
		}
	})
	return wordlistSet
}

// ValidShort is the set of short tokens (length < 2 after punctuation
// stripping would otherwise be skipped anyway, but these common short
// function words across English/French/Latin are exempted even when they
// clear that length floor).
var ValidShort = toSet(
	"a", "i", "à", "y", "ô", "le", "la", "de", "du", "un", "en",
	"et", "ou", "au", "il", "je", "tu", "on", "ce", "se", "ne",
	"the", "of", "to", "in", "is", "it", "an", "as", "at", "be",
	"by", "or", "so", "we", "if", "my", "up", "no", "do",
	"ad", "ex", "ab",
)

// PhilosophyVocab is the curated multi-language vocabulary of terms that
// resemble garbled text under the regex signal's patterns but are
// legitimate academic/philosophical terminology (German, French, Greek
// transliterations). Frozen at load time.
var PhilosophyVocab = toSet(
	// German philosophy, general
	"wissenschaft", "grundlegung", "weltanschauung", "vorstellung",
	"bestimmung", "begrifflichkeit", "zusammenhang", "beziehung",
	"freiheit", "wahrheit", "sein", "seiende", "nichts", "wesen",
	"bedeutung", "sinn", "zweck", "grund", "ursache", "wirkung",
	"vorurteil", "bildung", "erfahrung", "geschichte", "natur", "kultur",
	"gesellschaft", "gemeinschaft", "freundschaft", "eigenschaft",
	"grundsätzlichkeit", "freundlichkeit", "möglichkeit", "notwendigkeit",
	"widerspruch", "gegensatz", "einheit", "vielheit", "allgemeinheit",
	"besonderheit", "einzelheit", "substanz", "subjekt", "objekt",
	"bewusstsein", "unbewusstes", "trieb", "wille", "macht",
	// Heidegger
	"erschlossenheit", "befindlichkeit", "geworfenheit", "eigentlichkeit",
	"uneigentlichkeit", "vorhandenheit", "zuhandenheit", "mitsein", "dasein",
	"zeitlichkeit", "geschichtlichkeit", "weltlichkeit", "sorge", "schuld",
	"entschlossenheit", "wiederholung", "augenblick", "vorlaufen",
	"gewesenheit", "gegenwärtigen", "gewärtigen", "verstehen", "auslegung",
	"rede", "gerede", "neugier", "zweideutigkeit", "verfallenheit",
	"angst", "furcht", "langeweile", "stimmung", "befindlich",
	"lichtung", "gestell", "ereignis", "kehre", "gelassenheit",
	"grundstimmung", "unverborgenheit", "seinsgeschichte",
	// Kant
	"vernunft", "verstand", "anschauung", "urteilskraft", "pflicht",
	"kategorisch", "imperativ", "transzendental", "apriorisch", "erkenntnis",
	"erscheinung", "noumenon", "ding", "einbildungskraft", "sinnlichkeit",
	"empfindung", "wahrnehmung",
	// Hegel
	"geist", "aufhebung", "dialektik", "synthese", "entfremdung",
	"selbstbewusstsein", "absolut", "vermittlung", "wirklichkeit",
	// Husserl
	"intentionalität", "epoché", "reduktion", "lebenswelt",
	"noesis", "noema", "konstitution", "evidenz",
	// French
	"autrement", "visage", "infini", "totalité", "altérité",
	"jouissance", "fécondité", "proximité", "responsabilité",
	"substitution", "signification", "conscience", "différence",
	"présence", "absence", "parole", "écriture", "discours",
	// Greek transliterations
	"aletheia", "phronesis", "episteme", "techne", "theoria", "praxis",
	"ousia", "eidos", "logos", "nous", "psyche", "pneuma",
	"arche", "telos", "dynamis", "energeia", "entelecheia",
	"eudaimonia", "arete", "sophia", "doxa",
)

// GermanSuffixes lists the compound-word endings that exempt a token from
// the consonant-cluster garbled check (spec.md §4.1).
var GermanSuffixes = []string{"keit", "heit", "ung", "schaft", "lich", "isch", "tum", "nis"}

// ValidReferencePatterns are the ~16 "looks like a legitimate reference, not
// garbled OCR" regexes checked before any garbled-pattern test runs
// (spec.md §4.1).
var ValidReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),                      // pure numbers
	regexp.MustCompile(`^\d{1,4}[-–—]+\d{1,4}$`),      // page ranges
	regexp.MustCompile(`(?i)^[ivxlcdm]+$`),            // roman numerals
	regexp.MustCompile(`^\d{4}$`),                     // year-like
	regexp.MustCompile(`^[A-Z]\d+$`),                  // figure refs: F1, T2
	regexp.MustCompile(`^\d+[a-z]?$`),                  // numbered items
	regexp.MustCompile(`(?i)^ISBN`),                    // ISBN prefix
	regexp.MustCompile(`^\d{1,3}\.\d`),                 // decimal numbers
	regexp.MustCompile(`^[A-Z]{2,4}\d`),                // codes: AE167, OB131
	regexp.MustCompile(`(?i)^pp?\.\s*\d`),              // page refs: p. 123
	regexp.MustCompile(`^\(\d+\)$`),                    // parenthetical: (1)
	regexp.MustCompile(`^\[\d+\]$`),                    // bracketed: [1]
	regexp.MustCompile(`^§\d`),                          // section symbol
	regexp.MustCompile(`^\d+[a-z]?[-–—]+\d+[a-z]?$`),    // complex ranges
	regexp.MustCompile(`^[\d][\d\-–—]+[\d]$`),           // ISBN/ID with dashes
	regexp.MustCompile(`^\d[\d.\-–—/]+\d$`),             // DOIs, dates, numeric IDs
}

// IsValidReference reports whether token matches any of ValidReferencePatterns.
func IsValidReference(token string) bool {
	for _, p := range ValidReferencePatterns {
		if p.MatchString(token) {
			return true
		}
	}
	return false
}

func toSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}
