package eavforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/compiler"
	"github.com/hlop3z/eavforge/internal/definition"
	"github.com/hlop3z/eavforge/internal/external"
	"github.com/hlop3z/eavforge/internal/fingerprint"
	"github.com/hlop3z/eavforge/internal/render"
	"github.com/hlop3z/eavforge/internal/source"
)

// Generator compiles definitions into a schema.
//
// A Generator runs one generation at a time; concurrent calls to Generate
// on the same instance must be serialized by the caller.
//
// Example:
//
//	gen, err := eavforge.New(
//	    eavforge.WithReader(reader),
//	    eavforge.WithI18n(true, "en", "de"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := gen.Write(ctx)
type Generator struct {
	config *Config
	stage  Stage
}

// Table describes one emitted table.
type Table struct {
	Name  string
	Kind  string // base, translation, component, component-translation, junction, external
	Model string // Originating model slug, "" for external tables
}

// Result is the outcome of one generation run.
type Result struct {
	// Text is the rendered schema.
	Text string

	// Schema is the structure Text was rendered from.
	Schema *ast.Schema

	// Models lists generated model slugs in source order.
	Models []string

	// Components lists the component slugs read, in source order.
	Components []string

	// Tables describes every emitted table in output order.
	Tables []Table

	// Warnings collects every non-fatal problem in the order found.
	Warnings []string

	// ModelWarnings groups warnings by originating model slug.
	ModelWarnings map[string][]string

	// Fingerprint hashes Text per block with a merkle root.
	Fingerprint *fingerprint.Fingerprint
}

// New creates a Generator with the given options.
//
// Exactly one of WithReader, WithDefinitions or WithLoader must be given.
func New(opts ...Option) (*Generator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	n := 0
	for _, set := range []bool{cfg.Reader != nil, cfg.Direct != nil, cfg.Loader != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: %w", ErrMissingSource,
			alerr.New(alerr.ErrMissingSource, "no definition source configured").
				WithHelp("configure one of: source (database), models (inline), hooks.load"))
	case n > 1:
		return nil, fmt.Errorf("%w: %w", ErrConflictingSources,
			alerr.New(alerr.ErrConfigInvalid, "more than one definition source configured").
				WithHelp("configure exactly one of: source (database), models (inline), hooks.load"))
	}

	if cfg.ExternalLoader == nil {
		cfg.ExternalLoader = external.ParseFile
	}
	cfg.Naming = cfg.Naming.WithDefaults()

	return &Generator{config: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config {
	return g.config
}

// Stage returns the stage the last run reached.
func (g *Generator) Stage() Stage {
	return g.stage
}

// Generate runs the whole pipeline and returns the rendered schema.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	return g.newRun().execute(ctx)
}

// Validate reads, maps and validates every definition without compiling.
// The result carries only Models and Components.
func (g *Generator) Validate(ctx context.Context) (*Result, error) {
	r := g.newRun()
	r.enter(StageReadingSource)
	models, _, err := r.read(ctx)
	if err != nil {
		return r.fail(err)
	}
	for _, m := range models {
		r.res.Models = append(r.res.Models, m.Slug)
	}
	r.enter(StageDone)
	return r.res, nil
}

func (g *Generator) newRun() *run {
	g.stage = StageIdle
	return &run{
		cfg:       g.config,
		gen:       g,
		index:     map[string]int{},
		origin:    map[string]string{},
		junctions: map[string]bool{},
		res:       &Result{ModelWarnings: map[string][]string{}},
	}
}

// Write generates the schema and persists it to the configured output,
// creating parent directories.
func (g *Generator) Write(ctx context.Context) (*Result, error) {
	res, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if err := WriteFile(g.config.Output, res.Text); err != nil {
		g.stage = StageFailed
		return nil, &StageError{Stage: StageWriting, Err: err}
	}
	g.logf("wrote %s (%d bytes)", g.config.Output, len(res.Text))
	return res, nil
}

// WriteFile writes text to path, creating parent directories.
func WriteFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return alerr.Wrap(alerr.ErrWriteOutput, err, "failed to create output directory").
				WithFile(path, 0)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return alerr.Wrap(alerr.ErrWriteOutput, err, "failed to create output file").
			WithFile(path, 0)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return alerr.Wrap(alerr.ErrWriteOutput, err, "failed to write output file").
			WithFile(path, 0)
	}
	if err := f.Close(); err != nil {
		return alerr.Wrap(alerr.ErrWriteOutput, err, "failed to close output file").
			WithFile(path, 0)
	}
	return nil
}

func (g *Generator) logf(format string, v ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Printf(format, v...)
	}
}

// -----------------------------------------------------------------------------
// One run
// -----------------------------------------------------------------------------

// run holds the accumulators private to one Generate call.
type run struct {
	cfg *Config
	gen *Generator
	res *Result

	tables    []*ast.Table
	kinds     []Table
	index     map[string]int    // Table name -> position in tables
	origin    map[string]string // Table name -> description of who emitted it
	junctions map[string]bool   // Junction names already emitted
	external  map[string]bool
}

func (r *run) enter(s Stage) {
	r.gen.stage = s
	r.gen.logf("stage: %s", s)
}

func (r *run) fail(err error) (*Result, error) {
	stage := r.gen.stage
	r.gen.stage = StageFailed
	r.gen.logf("stage: failed during %s: %v", stage, err)
	return nil, &StageError{Stage: stage, Err: err}
}

func (r *run) warn(model, msg string) {
	r.res.Warnings = append(r.res.Warnings, msg)
	if model != "" {
		r.res.ModelWarnings[model] = append(r.res.ModelWarnings[model], msg)
	}
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	// External tables first, so relations and the media special case see them.
	r.enter(StageLoadingExternalModels)
	ext := external.Merge(r.cfg.External, r.cfg.ExternalLoader)
	for _, w := range ext.Warnings {
		r.warn("", w)
	}
	r.external = ext.Names()
	for _, t := range ext.Tables {
		r.place(t, Table{Name: t.Name, Kind: compiler.KindExternal.String()}, "external models")
	}

	r.enter(StageReadingSource)
	models, components, err := r.read(ctx)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StageCompilingModels)
	cctx := &compiler.Context{
		Naming:     r.cfg.Naming,
		I18n:       r.cfg.I18n,
		ABTesting:  r.cfg.ABTesting,
		External:   r.external,
		Components: make(map[string]*definition.Component, len(components)),
	}
	for _, c := range components {
		cctx.Components[c.Slug] = c
	}

	compiled := make([]*compiler.Compiled, 0, len(models))
	for _, m := range models {
		out, err := compiler.CompileModel(m, cctx)
		if err != nil {
			if e, ok := err.(*alerr.Error); ok {
				e.WithModel(m.Slug)
			}
			return r.fail(err)
		}
		compiled = append(compiled, out)
		r.res.Models = append(r.res.Models, m.Slug)
	}

	r.enter(StageEmittingDerivedTables)
	for _, out := range compiled {
		for _, w := range out.Warnings {
			r.warn(out.Model, w)
		}
		for _, e := range out.Tables {
			if e.Kind == compiler.KindJunction {
				if r.junctions[e.Table.Name] {
					r.gen.logf("junction %s already emitted; skipped for model %s", e.Table.Name, out.Model)
					continue
				}
				r.junctions[e.Table.Name] = true
			}
			r.place(e.Table, Table{Name: e.Table.Name, Kind: e.Kind.String(), Model: out.Model},
				fmt.Sprintf("model '%s'", out.Model))
		}
	}
	for _, t := range r.tables {
		if err := t.Validate(); err != nil {
			return r.fail(err)
		}
	}

	r.enter(StageSerializing)
	gens := make([]ast.Generator, 0, len(r.cfg.Generators)+1)
	gens = append(gens, r.cfg.Client)
	gens = append(gens, r.cfg.Generators...)
	schema := &ast.Schema{
		Datasource: r.cfg.Datasource,
		Generators: gens,
		Tables:     r.tables,
	}
	r.res.Schema = schema
	r.res.Text = render.Schema(schema)
	r.res.Tables = r.kinds

	fp, err := fingerprint.Compute(r.res.Text)
	if err != nil {
		return r.fail(err)
	}
	r.res.Fingerprint = fp

	r.enter(StageDone)
	r.gen.logf("generated %d tables from %d models, %d warnings", len(r.tables), len(r.res.Models), len(r.res.Warnings))
	return r.res, nil
}

// place appends t, or replaces an earlier table of the same name in place.
// The replacement is kept for compatibility and recorded as a warning.
func (r *run) place(t *ast.Table, info Table, by string) {
	if i, ok := r.index[t.Name]; ok {
		r.warn(info.Model, fmt.Sprintf("table '%s' from %s replaces the table of the same name from %s",
			t.Name, by, r.origin[t.Name]))
		r.tables[i] = t
		r.kinds[i] = info
		r.origin[t.Name] = by
		return
	}
	r.index[t.Name] = len(r.tables)
	r.origin[t.Name] = by
	r.tables = append(r.tables, t)
	r.kinds = append(r.kinds, info)
	r.gen.logf("table %s (%s) from %s", t.Name, info.Kind, by)
}

// read fetches, maps and validates all definitions. Mapper failures are
// reported under StageApplyingMapper; everything else under StageReadingSource.
func (r *run) read(ctx context.Context) ([]*definition.Model, []*definition.Component, error) {
	reader := r.cfg.Reader
	switch {
	case r.cfg.Direct != nil:
		reader = r.cfg.Direct
	case r.cfg.Loader != nil:
		reader = r.cfg.Loader
	}

	raw, err := reader.Read(ctx)
	if err != nil {
		if !alerr.HasCode(err) {
			err = alerr.Wrap(alerr.ErrSourceRead, err, "failed to read definitions")
		}
		return nil, nil, err
	}
	if raw == nil {
		raw = &source.Raw{}
	}
	r.gen.logf("read %d model rows, %d component rows", len(raw.Models), len(raw.Components))

	modelEntries, err := source.Decode(raw.Models)
	if err != nil {
		return nil, nil, err
	}
	componentEntries, err := source.Decode(raw.Components)
	if err != nil {
		return nil, nil, err
	}

	if r.cfg.Mapper != nil {
		r.enter(StageApplyingMapper)
		if modelEntries, err = source.Apply(ctx, modelEntries, r.cfg.Mapper.MapModel); err != nil {
			return nil, nil, err
		}
		if componentEntries, err = source.Apply(ctx, componentEntries, r.cfg.Mapper.MapComponent); err != nil {
			return nil, nil, err
		}
		r.enter(StageReadingSource)
	}

	components, err := source.Components(componentEntries)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range components {
		r.res.Components = append(r.res.Components, c.Slug)
	}
	models, err := source.Models(modelEntries)
	if err != nil {
		return nil, nil, err
	}
	return models, components, nil
}
