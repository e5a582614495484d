package compiler

import (
	"fmt"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/definition"
)

// TableKind tells where an emitted table came from.
type TableKind int

const (
	KindBase TableKind = iota
	KindTranslation
	KindComponent
	KindComponentTranslation
	KindJunction
	KindExternal
)

// String returns the string representation of a TableKind.
func (k TableKind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindTranslation:
		return "translation"
	case KindComponent:
		return "component"
	case KindComponentTranslation:
		return "component-translation"
	case KindJunction:
		return "junction"
	case KindExternal:
		return "external"
	}
	return "unknown"
}

// Emitted is a table together with its origin.
type Emitted struct {
	Table *ast.Table
	Kind  TableKind
	Model string // Slug of the model that produced it, "" for external tables
}

// Compiled is everything one model contributes to the schema.
type Compiled struct {
	Model    string
	Tables   []Emitted // Base, translation, then component and junction tables in field order
	Warnings []string
}

// BuildModel builds the base table of a model and, when i18n applies and
// the model has translatable fields, its translation table.
//
// Component fields become reference columns only; their tables are built by
// CompileModel. Component fields naming an unknown component are skipped.
func BuildModel(m *definition.Model, ctx *Context) ([]*ast.Table, error) {
	r := ctx.Naming
	i18n := m.I18nEnabled(ctx.I18n)
	name := r.Table(m.Slug)

	base := &ast.Table{Name: name}
	base.AddColumns(ast.IDColumn())
	cols := newFieldColumns(base, m.Slug, "")

	// field key -> column name on the base table
	onBase := map[string]string{}
	for _, key := range []string{"id", "created_at", "updated_at"} {
		onBase[key] = r.Column(key)
	}

	translatable := false
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Derived {
			continue
		}
		if i18n && f.IsTranslatable() {
			translatable = true
			continue
		}
		if c := f.Component(); c != nil {
			if _, ok := ctx.Component(c.Slug); !ok {
				continue
			}
		}
		fieldCols, err := TranslateField(name, f, ctx)
		if err != nil {
			return nil, alerr.Wrap(alerr.GetErrorCode(err), err, "failed to translate field").
				WithModel(m.Slug).
				WithField(f.Key)
		}
		if err := cols.field(i, f, fieldCols); err != nil {
			return nil, err
		}
		onBase[f.Key] = fieldCols[0].Name
	}
	if err := cols.generated(ast.Timestamps(r.Column)...); err != nil {
		return nil, err
	}

	if col, ok := onBase[m.SortField()]; ok && m.SortField() != "" {
		base.AddIndex(col)
	}
	status, hasStatus := onBase["status"]
	published, hasPublished := onBase["published_at"]
	if hasStatus && hasPublished {
		base.AddIndex(status, published)
	}

	if !translatable {
		return []*ast.Table{base}, nil
	}

	if err := cols.generated(translationsColumn(r.Translation(name), ctx)); err != nil {
		return nil, err
	}
	trans, err := buildTranslationTable(name, m.Fields, m.Slug, "", ctx)
	if err != nil {
		return nil, err
	}
	return []*ast.Table{base, trans}, nil
}

// CompileModel builds every table a model contributes, in output order, and
// collects the non-fatal problems found along the way.
func CompileModel(m *definition.Model, ctx *Context) (*Compiled, error) {
	tables, err := BuildModel(m, ctx)
	if err != nil {
		return nil, err
	}

	out := &Compiled{Model: m.Slug}
	out.add(tables[0], KindBase)
	if len(tables) > 1 {
		out.add(tables[1], KindTranslation)
	}
	base := tables[0].Name
	i18n := m.I18nEnabled(ctx.I18n)

	if sortFieldMoved(m, i18n) {
		out.warnf("sort field '%s' of model '%s' is not stored on table '%s'; index skipped", m.SortField(), m.Slug, base)
	}
	if key := statusIndexMoved(m, i18n); key != "" {
		out.warnf("field '%s' of model '%s' is stored on the translation table; (status, published_at) index skipped", key, m.Slug)
	}

	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Derived {
			out.warnf("field '%s' on model '%s' is derived and was excluded", f.Key, m.Slug)
			continue
		}

		switch {
		case f.Type == definition.TypeComponent:
			if err := out.addComponent(m, base, f, i18n, ctx); err != nil {
				return nil, err
			}
		case NeedsJunctionTable(f):
			out.add(BuildJunctionTable(base, f, ctx), KindJunction)
		}
	}
	return out, nil
}

func (c *Compiled) addComponent(m *definition.Model, base string, f *definition.Field, i18n bool, ctx *Context) error {
	cfg := f.Component()
	comp, ok := ctx.Component(cfg.Slug)
	if !ok {
		msg := fmt.Sprintf("component '%s' referenced by field '%s' on model '%s' was not found; field skipped",
			cfg.Slug, f.Key, m.Slug)
		if hint := alerr.SuggestSimilar(cfg.Slug, ctx.ComponentSlugs()); hint != "" {
			msg += " (" + hint + ")"
		}
		c.Warnings = append(c.Warnings, msg)
		return nil
	}

	table, err := BuildComponentTable(base, f.Key, comp, cfg, i18n, ctx)
	if err != nil {
		return alerr.Wrap(alerr.GetErrorCode(err), err, "failed to build component table").
			WithModel(m.Slug).
			WithComponent(comp.Slug).
			WithField(f.Key)
	}
	c.add(table, KindComponent)

	trans, err := BuildComponentTranslationTable(table.Name, comp, i18n, ctx)
	if err != nil {
		return alerr.Wrap(alerr.GetErrorCode(err), err, "failed to build component translation table").
			WithModel(m.Slug).
			WithComponent(comp.Slug)
	}
	if trans != nil {
		c.add(trans, KindComponentTranslation)
	}

	for i := range comp.Fields {
		cf := &comp.Fields[i]
		if cf.Derived {
			c.warnf("field '%s' of component '%s' (model '%s') is derived and was excluded", cf.Key, comp.Slug, m.Slug)
			continue
		}
		if NeedsJunctionTable(cf) {
			c.add(BuildJunctionTable(table.Name, cf, ctx), KindJunction)
		}
	}
	return nil
}

func (c *Compiled) add(t *ast.Table, kind TableKind) {
	c.Tables = append(c.Tables, Emitted{Table: t, Kind: kind, Model: c.Model})
}

func (c *Compiled) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// sortFieldMoved reports whether the sort field lives off the base table:
// it is derived or translatable under i18n.
func sortFieldMoved(m *definition.Model, i18n bool) bool {
	sf := m.SortField()
	if sf == "" {
		return false
	}
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Key != sf {
			continue
		}
		return f.Derived || (i18n && f.IsTranslatable())
	}
	return false
}

// statusIndexMoved returns the key of the first of status and published_at
// that lives on the translation table while the other field exists, or "".
func statusIndexMoved(m *definition.Model, i18n bool) string {
	if !i18n {
		return ""
	}
	var present, moved []string
	for _, key := range []string{"status", "published_at"} {
		for i := range m.Fields {
			f := &m.Fields[i]
			if f.Key != key || f.Derived {
				continue
			}
			present = append(present, key)
			if f.IsTranslatable() {
				moved = append(moved, key)
			}
		}
	}
	if len(present) < 2 || len(moved) == 0 {
		return ""
	}
	return moved[0]
}
