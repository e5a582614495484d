package validate

import (
	"strings"
	"testing"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// -----------------------------------------------------------------------------
// Identifier Tests
// -----------------------------------------------------------------------------

func TestSlug(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr alerr.Code
	}{
		{"simple", "post", ""},
		{"hyphenated", "blog-post", ""},
		{"digits", "hero2-banner", ""},
		{"empty", "", alerr.ErrRequiredValue},
		{"uppercase", "BlogPost", alerr.ErrInvalidSlug},
		{"underscore", "blog_post", alerr.ErrInvalidSlug},
		{"leading digit", "2post", alerr.ErrInvalidSlug},
		{"trailing hyphen", "post-", alerr.ErrInvalidSlug},
		{"double hyphen", "blog--post", alerr.ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Slug(tt.input)
			if got := alerr.GetErrorCode(err); got != tt.wantErr {
				t.Errorf("Slug(%q) code = %q, want %q (err: %v)", tt.input, got, tt.wantErr, err)
			}
		})
	}
}

func TestSlugSuggestion(t *testing.T) {
	err := Slug("BlogPost")
	e, ok := err.(*alerr.Error)
	if !ok {
		t.Fatalf("expected *alerr.Error, got %T", err)
	}
	if e.GetContext()["suggestion"] != "blog-post" {
		t.Errorf("suggestion = %v, want blog-post", e.GetContext()["suggestion"])
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr alerr.Code
	}{
		{"simple", "title", ""},
		{"snake", "meta_title", ""},
		{"digits", "seo2", ""},
		{"empty", "", alerr.ErrRequiredValue},
		{"camel", "metaTitle", alerr.ErrInvalidKey},
		{"hyphen", "meta-title", alerr.ErrInvalidKey},
		{"leading underscore", "_title", alerr.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Key(tt.input)
			if got := alerr.GetErrorCode(err); got != tt.wantErr {
				t.Errorf("Key(%q) code = %q, want %q (err: %v)", tt.input, got, tt.wantErr, err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Reserved Key Tests
// -----------------------------------------------------------------------------

func TestReservedKey(t *testing.T) {
	for _, key := range []string{"id", "created_at", "updated_at"} {
		for _, inComponent := range []bool{false, true} {
			if !alerr.Is(ReservedKey(key, inComponent), alerr.ErrReservedKey) {
				t.Errorf("ReservedKey(%q, %v) should be rejected", key, inComponent)
			}
		}
	}

	for _, key := range []string{"variant_id", "enabled"} {
		if ReservedKey(key, false) != nil {
			t.Errorf("ReservedKey(%q) should be allowed on models", key)
		}
		if !alerr.Is(ReservedKey(key, true), alerr.ErrReservedKey) {
			t.Errorf("ReservedKey(%q) should be rejected in components", key)
		}
	}

	if ReservedKey("title", true) != nil {
		t.Error("ordinary keys are never reserved")
	}
}

// -----------------------------------------------------------------------------
// Errors Collection Tests
// -----------------------------------------------------------------------------

func TestErrorsCollect(t *testing.T) {
	var errs Errors
	errs.Add("slug", alerr.ErrInvalidSlug, "bad slug")
	errs.AddErr("fields[0].key", ReservedKey("id", false))
	errs.AddErr("fields[1].key", nil)

	if len(errs) != 2 {
		t.Fatalf("len = %d, want 2", len(errs))
	}
	if !errs.Has("fields[0].key", alerr.ErrReservedKey) {
		t.Error("reserved key issue should keep its code")
	}

	msg := errs.Error()
	if !strings.HasPrefix(msg, "2 validation error(s):") {
		t.Errorf("unexpected header: %q", msg)
	}
	if !strings.Contains(msg, "fields[0].key: 'id' is a reserved system field") {
		t.Errorf("missing path: message pair in %q", msg)
	}
}

func TestErrorsMerge(t *testing.T) {
	var inner Errors
	inner.Add("options", alerr.ErrInvalidConfig, "options required")
	inner.Add("", alerr.ErrRequiredValue, "whole config missing")

	var outer Errors
	outer.Merge("fields[3].config", inner)

	want := []string{"fields[3].config.options", "fields[3].config"}
	got := outer.Paths()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToError(t *testing.T) {
	var errs Errors
	if errs.ToError() != nil {
		t.Error("empty collection should convert to nil")
	}
	errs.Add("x", alerr.ErrRequiredValue, "y")
	if errs.ToError() == nil {
		t.Error("non-empty collection should convert to an error")
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct{ prefix, path, want string }{
		{"", "slug", "slug"},
		{"fields[0]", "", "fields[0]"},
		{"fields", "[2]", "fields[2]"},
		{"fields[2]", "config", "fields[2].config"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.prefix, tt.path); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.prefix, tt.path, got, tt.want)
		}
	}
	if Index("fields", 2) != "fields[2]" {
		t.Error("Index formatting")
	}
}
