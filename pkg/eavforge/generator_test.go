package eavforge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/external"
	"github.com/hlop3z/eavforge/internal/runtime"
	"github.com/hlop3z/eavforge/internal/source"
	"github.com/hlop3z/eavforge/internal/sqlgen"
	"github.com/hlop3z/eavforge/internal/testutil"
)

// captureLogger records Printf calls.
type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func mustGenerate(t *testing.T, opts ...Option) *Result {
	t.Helper()
	gen, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Stage() != StageDone {
		t.Errorf("Stage() = %s, want done", gen.Stage())
	}
	return res
}

func tableNames(res *Result) []string {
	names := make([]string, len(res.Tables))
	for i, tb := range res.Tables {
		names[i] = tb.Name
	}
	return names
}

func blogOptions(t *testing.T) []Option {
	t.Helper()
	defs := testutil.LoadDefinitions(t, "testdata/definitions/blog.json")
	return []Option{
		WithDefinitions(defs.Models, defs.Components),
		WithI18n(true, "en", "de"),
		WithExternal(external.Source{
			Path:    testutil.FixturePath(t, "testdata/external/auth.prisma"),
			Include: []string{"User", "Media"},
		}),
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func TestNewRequiresOneSource(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrMissingSource) {
		t.Errorf("expected ErrMissingSource, got %v", err)
	}
	testutil.AssertError(t, err, alerr.ErrMissingSource)

	_, err = New(
		WithDefinitions(nil, nil),
		WithLoaderFunc(func(context.Context) (*source.Raw, error) { return &source.Raw{}, nil }),
	)
	if !errors.Is(err, ErrConflictingSources) {
		t.Errorf("expected ErrConflictingSources, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	gen, err := New(WithDefinitions(nil, nil))
	testutil.Must(t, err)

	cfg := gen.Config()
	testutil.AssertEqual(t, cfg.Output, DefaultOutput)
	testutil.AssertEqual(t, cfg.Datasource.Provider, "postgresql")
	testutil.AssertEqual(t, cfg.Datasource.URL, `env("DATABASE_URL")`)
	testutil.AssertEqual(t, cfg.Client.Provider, DefaultClientProvider)
	testutil.AssertEqual(t, gen.Stage(), StageIdle)
}

// -----------------------------------------------------------------------------
// Full pipeline
// -----------------------------------------------------------------------------

func TestGenerateBlog(t *testing.T) {
	res := mustGenerate(t, blogOptions(t)...)

	wantTables := []string{
		"User", "Media",
		"Post", "PostTranslation", "PostCategory", "PostPost", "PostSeo", "PostSeoTranslation",
		"Category",
		"Page", "PageSection",
	}
	if got := tableNames(res); !slices.Equal(got, wantTables) {
		t.Fatalf("tables = %v\nwant     %v", got, wantTables)
	}
	if !slices.Equal(res.Models, []string{"post", "category", "page"}) {
		t.Errorf("models = %v", res.Models)
	}

	kinds := map[string]string{}
	for _, tb := range res.Tables {
		kinds[tb.Name] = tb.Kind
	}
	testutil.AssertEqual(t, kinds["User"], "external")
	testutil.AssertEqual(t, kinds["PostPost"], "junction")
	testutil.AssertEqual(t, kinds["PostSeoTranslation"], "component-translation")
	testutil.AssertEqual(t, kinds["PageSection"], "component")

	// The external Media table turns multi-valued media into a list relation.
	post := res.Schema.Table("Post")
	if g := post.GetColumn("gallery"); g == nil || g.Type != "Media" || !g.List {
		t.Errorf("gallery = %+v", g)
	}
	if c := post.GetColumn("cover_id"); c == nil || !c.Optional {
		t.Errorf("cover_id = %+v", c)
	}
	if post.HasColumn("title") {
		t.Error("translatable title must live on PostTranslation")
	}
	if post.HasColumn("reading_time") {
		t.Error("derived field must be excluded")
	}

	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if len(res.ModelWarnings["post"]) != 1 || !strings.Contains(res.ModelWarnings["post"][0], "reading_time") {
		t.Errorf("post warnings = %v", res.ModelWarnings["post"])
	}
	pageWarn := res.ModelWarnings["page"]
	if len(pageWarn) != 1 || !strings.Contains(pageWarn[0], "banner") || !strings.Contains(pageWarn[0], "hero") {
		t.Errorf("page warnings = %v", pageWarn)
	}

	if !strings.HasPrefix(res.Text, "datasource db {") {
		t.Errorf("text does not start with the datasource block:\n%s", res.Text)
	}
	if !strings.Contains(res.Text, "model PostSeoTranslation {") {
		t.Error("text is missing PostSeoTranslation")
	}
	if res.Fingerprint == nil || res.Fingerprint.Models() != len(wantTables) {
		t.Errorf("fingerprint = %+v", res.Fingerprint)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := mustGenerate(t, blogOptions(t)...)
	b := mustGenerate(t, blogOptions(t)...)
	if a.Text != b.Text {
		t.Error("two runs over the same input rendered different text")
	}
	if a.Fingerprint.Root != b.Fingerprint.Root {
		t.Error("two runs over the same input produced different fingerprints")
	}
}

// Rendering a schema and parsing it back recovers every table and column
// with the same optionality and list-ness.
func TestRenderParseRoundTrip(t *testing.T) {
	res := mustGenerate(t, blogOptions(t)...)

	parsed := external.Parse(res.Text)
	if len(parsed) != len(res.Schema.Tables) {
		t.Fatalf("parsed %d tables, want %d", len(parsed), len(res.Schema.Tables))
	}
	for i, want := range res.Schema.Tables {
		got := parsed[i]
		if got.Name != want.Name {
			t.Fatalf("table[%d] = %s, want %s", i, got.Name, want.Name)
		}
		if len(got.Columns) != len(want.Columns) {
			t.Errorf("%s: %d columns, want %d", want.Name, len(got.Columns), len(want.Columns))
			continue
		}
		for j, wc := range want.Columns {
			gc := got.Columns[j]
			wantOptional := wc.Optional && !wc.List
			if gc.Name != wc.Name || gc.List != wc.List || gc.Optional != wantOptional {
				t.Errorf("%s.%s: got {%s list=%v opt=%v}, want {%s list=%v opt=%v}",
					want.Name, wc.Name, gc.Name, gc.List, gc.Optional, wc.Name, wc.List, wantOptional)
			}
		}
	}
}

func TestGeneratorOrder(t *testing.T) {
	res := mustGenerate(t,
		WithDefinitions(nil, nil),
		WithGenerators(ast.Generator{Name: "zod", Provider: "zod-prisma-types"}),
		WithDatasource(ast.Datasource{Provider: "sqlite", URL: "file:./dev.db"}),
	)
	client := strings.Index(res.Text, "generator client {")
	zod := strings.Index(res.Text, "generator zod {")
	if client < 0 || zod < client {
		t.Errorf("client generator must come first:\n%s", res.Text)
	}
	if !strings.Contains(res.Text, `"file:./dev.db"`) {
		t.Errorf("literal url must be quoted:\n%s", res.Text)
	}
}

// -----------------------------------------------------------------------------
// Bookkeeping
// -----------------------------------------------------------------------------

func TestSelfReferentialJunctionEmittedOnce(t *testing.T) {
	res := mustGenerate(t, WithDefinitions([]map[string]any{{
		"slug": "post",
		"fields": []any{
			map[string]any{"key": "related", "type": "relation",
				"config": map[string]any{"relationType": "manyToMany", "targetModel": "post"}},
			map[string]any{"key": "similar", "type": "relation",
				"config": map[string]any{"relationType": "manyToMany", "targetModel": "post"}},
		},
	}}, nil))

	if got := tableNames(res); !slices.Equal(got, []string{"Post", "PostPost"}) {
		t.Errorf("tables = %v", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

// A later table with an existing name replaces the earlier one in place.
// This mirrors long-standing behavior and is flagged with a warning.
func TestTableNameCollisionLastWriteWins(t *testing.T) {
	res := mustGenerate(t, WithDefinitions(
		[]map[string]any{
			{"slug": "post", "fields": []any{
				map[string]any{"key": "title", "type": "text"},
				map[string]any{"key": "seo", "type": "component", "config": map[string]any{"slug": "seo"}},
			}},
			{"slug": "post-seo", "fields": []any{
				map[string]any{"key": "label", "type": "text"},
			}},
		},
		[]map[string]any{
			{"slug": "seo", "fields": []any{map[string]any{"key": "meta_title", "type": "text"}}},
		},
	))

	if got := tableNames(res); !slices.Equal(got, []string{"Post", "PostSeo"}) {
		t.Fatalf("tables = %v", got)
	}
	if res.Tables[1].Kind != "base" || res.Tables[1].Model != "post-seo" {
		t.Errorf("PostSeo = %+v, want the post-seo base table", res.Tables[1])
	}
	if !res.Schema.Table("PostSeo").HasColumn("label") {
		t.Error("the later table must win")
	}
	if len(res.ModelWarnings["post-seo"]) != 1 || !strings.Contains(res.ModelWarnings["post-seo"][0], "replaces") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExternalCollision(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "legacy.prisma")
	testutil.WriteFile(t, path, "model Tag {\n  id String @id\n}\n")

	res := mustGenerate(t,
		WithDefinitions([]map[string]any{{
			"slug": "tag", "fields": []any{map[string]any{"key": "name", "type": "text"}},
		}}, nil),
		WithExternal(external.Source{Path: path}),
	)
	if got := tableNames(res); !slices.Equal(got, []string{"Tag"}) {
		t.Fatalf("tables = %v", got)
	}
	if res.Tables[0].Kind != "base" {
		t.Errorf("Tag kind = %s, want base", res.Tables[0].Kind)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestUnreadableExternalIsAWarning(t *testing.T) {
	res := mustGenerate(t,
		WithDefinitions(nil, nil),
		WithExternal(external.Source{Path: filepath.Join(testutil.TempDir(t), "missing.prisma")}),
	)
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "missing.prisma") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExternalLoaderOverride(t *testing.T) {
	var loaded []string
	res := mustGenerate(t,
		WithDefinitions(nil, nil),
		WithExternal(external.Source{Path: "accounts.prisma"}),
		WithExternalLoader(func(path string) ([]*ast.Table, error) {
			loaded = append(loaded, path)
			return []*ast.Table{{Name: "Account", Columns: []*ast.Column{ast.IDColumn()}}}, nil
		}),
	)
	if !slices.Equal(loaded, []string{"accounts.prisma"}) {
		t.Errorf("loaded = %v", loaded)
	}
	if got := tableNames(res); !slices.Equal(got, []string{"Account"}) {
		t.Fatalf("tables = %v", got)
	}
	testutil.AssertEqual(t, res.Tables[0].Kind, "external")
}

// -----------------------------------------------------------------------------
// Failures
// -----------------------------------------------------------------------------

func TestInvalidDefinitionFailsRead(t *testing.T) {
	gen, err := New(WithDefinitions([]map[string]any{{
		"slug": "post", "fields": []any{map[string]any{"key": "id", "type": "text"}},
	}}, nil))
	testutil.Must(t, err)

	_, err = gen.Generate(context.Background())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	testutil.AssertEqual(t, se.Stage, StageReadingSource)
	testutil.AssertEqual(t, se.Code(), alerr.ErrDefinitionInvalid)
	testutil.AssertEqual(t, gen.Stage(), StageFailed)
	testutil.AssertErrorContains(t, err, "reserved")
}

func TestFieldShadowingGeneratedColumnFailsCompile(t *testing.T) {
	gen, err := New(WithDefinitions([]map[string]any{{
		"slug": "post",
		"fields": []any{
			map[string]any{"key": "title", "type": "text"},
			map[string]any{"key": "lang", "type": "text"},
		},
	}}, nil), WithI18n(true))
	testutil.Must(t, err)

	_, err = gen.Generate(context.Background())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	testutil.AssertEqual(t, se.Stage, StageCompilingModels)
	testutil.AssertEqual(t, se.Code(), alerr.ErrReservedKey)
	testutil.AssertErrorContains(t, err, "fields[1].key")
}

func TestMapperFailureAborts(t *testing.T) {
	gen, err := New(
		WithDefinitions([]map[string]any{{"slug": "post", "fields": []any{}}}, nil),
		WithMapper(source.MapFuncs{Model: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("unsupported legacy row")
		}}),
	)
	testutil.Must(t, err)

	_, err = gen.Generate(context.Background())
	if !errors.Is(err, ErrMapperFailed) {
		t.Fatalf("expected ErrMapperFailed, got %v", err)
	}
	var se *StageError
	if errors.As(err, &se) && se.Stage != StageApplyingMapper {
		t.Errorf("stage = %s, want applying mapper", se.Stage)
	}
}

func TestLoaderErrorFailsRead(t *testing.T) {
	gen, err := New(WithLoaderFunc(func(context.Context) (*source.Raw, error) {
		return nil, errors.New("connection refused")
	}))
	testutil.Must(t, err)

	_, err = gen.Generate(context.Background())
	testutil.AssertError(t, err, alerr.ErrSourceRead)
}

// -----------------------------------------------------------------------------
// Sources and hooks
// -----------------------------------------------------------------------------

func TestGenerateFromSQLite(t *testing.T) {
	db, url := testutil.SetupSQLite(t)
	testutil.SeedDefinitions(t, db, sqlgen.SQLite, "cms_models",
		testutil.Row{ID: 2, Slug: "tag", Definition: `{"slug":"tag","fields":[{"key":"name","type":"text","required":true,"translatable":false}]}`},
		testutil.Row{ID: 1, Slug: "post", Definition: `{"slug":"post","fields":[{"key":"title","type":"text"}]}`},
	)

	reader, err := source.Open(url, "cms_models", "")
	testutil.Must(t, err)
	defer reader.Close()

	res := mustGenerate(t, WithReader(reader))
	if !slices.Equal(res.Models, []string{"post", "tag"}) {
		t.Errorf("models = %v", res.Models)
	}
	tag := res.Schema.Table("Tag")
	if c := tag.GetColumn("name"); c == nil || c.Optional || c.Type != "String" {
		t.Errorf("Tag.name = %+v", c)
	}
}

func TestMalformedStoredRow(t *testing.T) {
	db, url := testutil.SetupSQLite(t)
	testutil.SeedDefinitions(t, db, sqlgen.SQLite, "cms_models",
		testutil.Row{ID: 4, Slug: "broken", Definition: `{"slug":`},
	)
	reader, err := source.Open(url, "cms_models", "")
	testutil.Must(t, err)
	defer reader.Close()

	gen, err := New(WithReader(reader))
	testutil.Must(t, err)
	_, err = gen.Generate(context.Background())
	testutil.AssertError(t, err, alerr.ErrDefinitionParse)
	testutil.AssertErrorContains(t, err, "broken")
}

func TestHookScriptLoaderAndMapper(t *testing.T) {
	hooks, err := runtime.NewHooks(`
function load() {
	return { models: [{ slug: "article", attributes: [{ name: "headline", kind: "text" }] }] };
}
function mapModel(row) {
	var fields = [];
	for (var i = 0; i < row.attributes.length; i++) {
		fields.push({ key: row.attributes[i].name, type: row.attributes[i].kind });
	}
	return { slug: row.slug, fields: fields };
}
`)
	testutil.Must(t, err)

	res := mustGenerate(t, WithLoader(hooks), WithMapper(hooks))
	article := res.Schema.Table("Article")
	if article == nil || !article.HasColumn("headline") {
		t.Fatalf("Article = %+v", article)
	}
}

func TestLogger(t *testing.T) {
	logger := &captureLogger{}
	mustGenerate(t, WithDefinitions(nil, nil), WithLogger(logger))

	joined := strings.Join(logger.lines, "\n")
	for _, want := range []string{"stage: compiling models", "generated 0 tables"} {
		if !strings.Contains(joined, want) {
			t.Errorf("log is missing %q:\n%s", want, joined)
		}
	}
}

// -----------------------------------------------------------------------------
// Write
// -----------------------------------------------------------------------------

func TestWrite(t *testing.T) {
	out := filepath.Join(testutil.TempDir(t), "nested", "prisma", "schema.prisma")
	defs := testutil.LoadDefinitions(t, "testdata/definitions/blog.json")

	gen, err := New(WithDefinitions(defs.Models, defs.Components), WithOutput(out))
	testutil.Must(t, err)

	res, err := gen.Write(context.Background())
	testutil.Must(t, err)

	data, err := os.ReadFile(out)
	written := testutil.MustValue(t, data, err)
	if string(written) != res.Text {
		t.Error("written file differs from the generated text")
	}
}

func TestWriteFailure(t *testing.T) {
	dir := testutil.TempDir(t)
	blocker := filepath.Join(dir, "blocker")
	testutil.WriteFile(t, blocker, "not a directory")

	gen, err := New(WithDefinitions(nil, nil), WithOutput(filepath.Join(blocker, "schema.prisma")))
	testutil.Must(t, err)

	_, err = gen.Write(context.Background())
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	testutil.AssertError(t, err, alerr.ErrWriteOutput)
}

func TestValidate(t *testing.T) {
	defs := testutil.LoadDefinitions(t, "testdata/definitions/blog.json")
	gen, err := New(WithDefinitions(defs.Models, defs.Components))
	testutil.Must(t, err)

	res, err := gen.Validate(context.Background())
	testutil.Must(t, err)
	if !slices.Equal(res.Models, []string{"post", "category", "page"}) {
		t.Errorf("models = %v", res.Models)
	}
	if !slices.Equal(res.Components, []string{"seo", "card"}) {
		t.Errorf("components = %v", res.Components)
	}
	if res.Text != "" || len(res.Tables) != 0 {
		t.Error("validate must not compile or render")
	}
	testutil.AssertEqual(t, gen.Stage(), StageDone)
}
