package alerr

import (
	"strings"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"seo", "sep", 1},
		{"hero", "heros", 1},
		{"ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			got := levenshteinDistance(tt.s1, tt.s2)
			if got != tt.want {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestFindClosestMatch(t *testing.T) {
	slugs := []string{"seo", "hero-banner", "gallery", "call-to-action"}

	tests := []struct {
		input   string
		wantOk  bool
		wantVal string
	}{
		{"sep", true, "seo"},
		{"hero-baner", true, "hero-banner"},
		{"galery", true, "gallery"},
		{"newsletter", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := FindClosestMatch(tt.input, slugs)
			if ok != tt.wantOk {
				t.Fatalf("FindClosestMatch(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
			}
			if got != tt.wantVal {
				t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.wantVal)
			}
		})
	}
}

func TestSuggestFieldType(t *testing.T) {
	supported := []string{"text", "rich", "number", "boolean", "date", "select", "json", "media", "relation", "component"}

	tests := []struct {
		input string
		want  string
	}{
		{"string", "use type 'text'"},
		{"Integer", "use type 'number'"},
		{"image", "use type 'media'"},
		{"selct", "did you mean 'select'?"},
		{"geography", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SuggestFieldType(tt.input, supported); got != tt.want {
				t.Errorf("SuggestFieldType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewUnsupportedTypeError(t *testing.T) {
	err := NewUnsupportedTypeError("cover", "image", []string{"media"})

	if err.GetCode() != ErrUnsupportedType {
		t.Errorf("code = %v, want %v", err.GetCode(), ErrUnsupportedType)
	}
	if err.GetContext()["field"] != "cover" {
		t.Errorf("field context = %v, want cover", err.GetContext()["field"])
	}
	helps := err.Helps()
	if len(helps) != 1 || !strings.Contains(helps[0], "media") {
		t.Errorf("helps = %v, want a hint naming media", helps)
	}
}
