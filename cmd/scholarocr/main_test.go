package main

import "testing"

func TestSplitCSV(t *testing.T) {
	got := splitCSV("en, fr ,de")
	want := []string{"en", "fr", "de"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSplitCSV_Empty(t *testing.T) {
	if got := splitCSV("  "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestResolveInputFiles_MissingPathErrors(t *testing.T) {
	if _, err := resolveInputFiles([]string{"/does/not/exist.pdf"}); err == nil {
		t.Fatal("expected error for missing path")
	}
}
