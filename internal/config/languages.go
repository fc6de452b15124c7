package config

import (
	"fmt"

	"golang.org/x/text/language"
)

// engineALangs maps ISO 639-1 codes to Engine-A's (Tesseract) native
// three-letter language codes. Covers the five languages spec.md names
// (English, French, German, Greek, Latin); unknown codes are rejected
// before Phase-1 (spec.md §6).
var engineALangs = map[string]string{
	"en": "eng",
	"fr": "fra",
	"de": "deu",
	"el": "ell",
	"la": "lat",
}

// engineBLangs maps ISO 639-1 codes to Engine-B's native language codes.
// Engine-B's underlying model uses the bare ISO code directly.
var engineBLangs = map[string]string{
	"en": "en",
	"fr": "fr",
	"de": "de",
	"el": "el",
	"la": "la",
}

// validateTag rejects codes that are not well-formed BCP-47 language tags
// before the engine-specific lookup runs, with a clearer error than a bare
// map miss. Well-formed codes outside the maps (e.g. "eng" instead of "en")
// pass here and are rejected by the lookup.
func validateTag(code string) error {
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("malformed language tag %q: %w", code, err)
	}
	return nil
}

// ResolveEngineALanguages translates ISO 639-1 codes into Engine-A's native
// codes, or returns an error naming the first unknown code.
func ResolveEngineALanguages(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if err := validateTag(c); err != nil {
			return nil, err
		}
		native, ok := engineALangs[c]
		if !ok {
			return nil, fmt.Errorf("unknown language code for engine-a: %q", c)
		}
		out = append(out, native)
	}
	return out, nil
}

// ResolveEngineBLanguages translates ISO 639-1 codes into Engine-B's native
// codes, or returns an error naming the first unknown code.
func ResolveEngineBLanguages(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if err := validateTag(c); err != nil {
			return nil, err
		}
		native, ok := engineBLangs[c]
		if !ok {
			return nil, fmt.Errorf("unknown language code for engine-b: %q", c)
		}
		out = append(out, native)
	}
	return out, nil
}

// SupportedLanguages lists every ISO 639-1 code the pipeline recognizes.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(engineALangs))
	for c := range engineALangs {
		codes = append(codes, c)
	}
	return codes
}
