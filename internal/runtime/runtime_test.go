package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dop251/goja"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/source"
)

// ---------------------------------------------------------------------------
// ParseJSError
// ---------------------------------------------------------------------------

func TestParseJSError_GoCallbackPanic(t *testing.T) {
	vm := goja.New()

	vm.Set("failingFunc", func(ref string) string {
		if ref == "" {
			panic(vm.ToValue("missing ref"))
		}
		return "ok"
	})

	_, err := vm.RunString(`
var x = 1;
var y = 2;
failingFunc("");
`)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	info := ParseJSError(err)
	if info.Message != "missing ref" {
		t.Errorf("Message = %q, want %q", info.Message, "missing ref")
	}
	if info.Line != 4 {
		t.Errorf("Line = %d, want 4 (JS call site)", info.Line)
	}
	if info.Column <= 0 {
		t.Errorf("expected Column > 0, got %d", info.Column)
	}
}

func TestParseJSError_SyntaxError(t *testing.T) {
	vm := goja.New()

	_, err := vm.RunString(`var x = {;`)
	if err == nil {
		t.Fatal("expected syntax error, got nil")
	}

	info := ParseJSError(err)
	if info.Line <= 0 || info.Column <= 0 {
		t.Errorf("expected a position, got %d:%d", info.Line, info.Column)
	}
}

func TestParseJSError_Nil(t *testing.T) {
	if ParseJSError(nil) != nil {
		t.Error("ParseJSError(nil) should be nil")
	}
}

func TestGetSourceLine(t *testing.T) {
	code := "line 1\nline 2\nline 3"
	tests := []struct {
		line int
		want string
	}{
		{1, "line 1"},
		{3, "line 3"},
		{0, ""},
		{4, ""},
	}
	for _, tt := range tests {
		if got := GetSourceLine(code, tt.line); got != tt.want {
			t.Errorf("GetSourceLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Sandbox
// ---------------------------------------------------------------------------

func TestSandbox_EvalDisabled(t *testing.T) {
	sb := NewSandbox()
	err := sb.Run(`eval("1 + 1")`)
	if !alerr.Is(err, alerr.ErrJSExecution) {
		t.Fatalf("expected %s, got %v", alerr.ErrJSExecution, err)
	}
}

func TestSandbox_Timeout(t *testing.T) {
	sb := NewSandbox()
	sb.SetTimeout(50 * time.Millisecond)

	err := sb.Run(`while (true) {}`)
	if !alerr.Is(err, alerr.ErrJSTimeout) {
		t.Fatalf("expected %s, got %v", alerr.ErrJSTimeout, err)
	}

	// The runtime is usable again after an interrupt.
	if err := sb.Run(`var ok = 1;`); err != nil {
		t.Errorf("Run() after timeout error = %v", err)
	}
}

func TestSandbox_DeterministicRandom(t *testing.T) {
	first := NewSandbox()
	second := NewSandbox()
	code := `function r() { return Math.random(); }`
	if err := first.Run(code); err != nil {
		t.Fatal(err)
	}
	if err := second.Run(code); err != nil {
		t.Fatal(err)
	}

	a, _ := first.Call(context.Background(), "r", first.Function("r"))
	b, _ := second.Call(context.Background(), "r", second.Function("r"))
	if a != b {
		t.Errorf("Math.random differs across sandboxes: %v vs %v", a, b)
	}
}

func TestSandbox_ErrorLocation(t *testing.T) {
	sb := NewSandbox()
	err := sb.Run("var a = 1;\nthrow new Error('bad hook');\n")
	if err == nil {
		t.Fatal("expected error")
	}
	ctx := err.(*alerr.Error).GetContext()
	if ctx["line"] != 2 {
		t.Errorf("line = %v, want 2", ctx["line"])
	}
	if ctx["js_message"] != "bad hook" {
		t.Errorf("js_message = %v, want %q", ctx["js_message"], "bad hook")
	}
}

// ---------------------------------------------------------------------------
// Hooks
// ---------------------------------------------------------------------------

const hookScript = `
function load() {
	return {
		models: [
			{ slug: "post", fields: [{ key: "title", type: "text" }] },
			{ id: 9, slug: "tag", definition: '{"slug":"tag","fields":[{"key":"name","type":"text"}]}' },
			'{"slug":"page","fields":[{"key":"body","type":"rich"}]}'
		],
		components: [
			{ slug: "seo", fields: [{ key: "meta_title", type: "text" }] }
		]
	};
}

function mapModel(row) {
	if (row.slug === "legacy") {
		throw new Error("legacy rows are not supported");
	}
	return { slug: row.slug, name: row.slug.toUpperCase(), fields: row.fields };
}
`

func TestHooks_Read(t *testing.T) {
	h, err := NewHooks(hookScript)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}
	if !h.HasLoader() || !h.HasMapper() {
		t.Fatalf("HasLoader=%v HasMapper=%v", h.HasLoader(), h.HasMapper())
	}

	raw, err := h.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(raw.Models) != 3 || len(raw.Components) != 1 {
		t.Fatalf("got %d models, %d components", len(raw.Models), len(raw.Components))
	}
	if raw.Models[1].ID != "9" || raw.Models[1].Slug != "tag" {
		t.Errorf("stored row = %+v", raw.Models[1])
	}

	entries, err := source.Decode(raw.Models)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	models, err := source.Models(entries)
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	for i, want := range []string{"post", "tag", "page"} {
		if models[i].Slug != want {
			t.Errorf("models[%d].Slug = %q, want %q", i, models[i].Slug, want)
		}
	}
}

func TestHooks_MapModel(t *testing.T) {
	h, err := NewHooks(hookScript)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}

	out, err := h.MapModel(context.Background(), map[string]any{"slug": "post", "fields": []any{}})
	if err != nil {
		t.Fatalf("MapModel() error = %v", err)
	}
	if out["name"] != "POST" {
		t.Errorf("name = %v, want POST", out["name"])
	}

	// No mapComponent defined: identity.
	row := map[string]any{"slug": "seo"}
	same, err := h.MapComponent(context.Background(), row)
	if err != nil || same["slug"] != "seo" {
		t.Errorf("MapComponent() = %v, %v", same, err)
	}
}

func TestHooks_MapperThrows(t *testing.T) {
	h, err := NewHooks(hookScript)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}

	_, err = h.MapModel(context.Background(), map[string]any{"slug": "legacy"})
	if !alerr.Is(err, alerr.ErrMapperFailed) {
		t.Fatalf("expected %s, got %v", alerr.ErrMapperFailed, err)
	}
}

func TestHooks_MapperMustReturnObject(t *testing.T) {
	h, err := NewHooks(`function mapModel(row) { return 42; }`)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}
	if _, err := h.MapModel(context.Background(), map[string]any{}); !alerr.Is(err, alerr.ErrMapperFailed) {
		t.Errorf("expected %s, got %v", alerr.ErrMapperFailed, err)
	}
}

func TestHooks_NoFunctions(t *testing.T) {
	if _, err := NewHooks(`var x = 1;`); !alerr.Is(err, alerr.ErrJSExecution) {
		t.Errorf("expected %s, got %v", alerr.ErrJSExecution, err)
	}
}

func TestHooks_ReadWithoutLoader(t *testing.T) {
	h, err := NewHooks(`function mapModel(row) { return row; }`)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}
	if _, err := h.Read(context.Background()); !alerr.Is(err, alerr.ErrMissingSource) {
		t.Errorf("expected %s, got %v", alerr.ErrMissingSource, err)
	}
}

func TestHooks_LoadBadShape(t *testing.T) {
	h, err := NewHooks(`function load() { return { models: "nope" }; }`)
	if err != nil {
		t.Fatalf("NewHooks() error = %v", err)
	}
	if _, err := h.Read(context.Background()); !alerr.Is(err, alerr.ErrMapperFailed) {
		t.Errorf("expected %s, got %v", alerr.ErrMapperFailed, err)
	}
}

func TestLoadHooks_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.js")
	if err := os.WriteFile(path, []byte(`function load() { return { models: [] }; }`), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := LoadHooks(path, time.Second, nil)
	if err != nil {
		t.Fatalf("LoadHooks() error = %v", err)
	}
	raw, err := h.Read(context.Background())
	if err != nil || len(raw.Models) != 0 {
		t.Errorf("Read() = %+v, %v", raw, err)
	}

	if _, err := LoadHooks(filepath.Join(t.TempDir(), "missing.js"), 0, nil); !alerr.Is(err, alerr.ErrJSExecution) {
		t.Errorf("expected %s for missing file, got %v", alerr.ErrJSExecution, err)
	}
}
