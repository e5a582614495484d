package compiler

import (
	"fmt"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/definition"
)

// BuildComponentTable builds the table holding a component embedded in the
// parent table under key. A non-repeatable component gets a unique parent
// key, which makes it one-to-one. A repeatable one gets an order column.
// With i18n, translatable fields are left for BuildComponentTranslationTable.
func BuildComponentTable(parent, key string, comp *definition.Component, cfg *definition.ComponentConfig, i18n bool, ctx *Context) (*ast.Table, error) {
	r := ctx.Naming
	name := ComponentTableName(parent, key, ctx)
	parentFK := r.ForeignKey(parent)

	t := &ast.Table{Name: name}
	cols := newFieldColumns(t, "", comp.Slug)
	t.AddColumns(
		ast.IDColumn(),
		&ast.Column{Name: parentFK, Type: ast.TypeString, Unique: !cfg.Repeatable},
	)
	if cfg.Repeatable {
		t.AddColumns(&ast.Column{Name: r.Column("order"), Type: ast.TypeInt, Default: "0"})
	}
	if cfg.ABTestingOr(ctx.ABTesting) {
		t.AddColumns(
			&ast.Column{Name: r.Column("variant_id"), Type: ast.TypeString, Optional: true},
			&ast.Column{Name: r.Column("enabled"), Type: ast.TypeBoolean, Optional: true},
		)
	}

	for i := range comp.Fields {
		f := &comp.Fields[i]
		if f.Derived || (i18n && f.IsTranslatable()) {
			continue
		}
		fieldCols, err := TranslateField(name, f, ctx)
		if err != nil {
			return nil, err
		}
		if err := cols.field(i, f, fieldCols); err != nil {
			return nil, err
		}
	}

	generated := append(ast.Timestamps(r.Column), &ast.Column{
		Name: r.RelationField(parent),
		Type: parent,
		Relation: &ast.Relation{
			Fields:     []string{parentFK},
			References: []string{"id"},
			OnDelete:   ast.ActionCascade,
		},
	})
	if i18n && comp.HasTranslatable() {
		generated = append(generated, translationsColumn(r.Translation(name), ctx))
	}
	if err := cols.generated(generated...); err != nil {
		return nil, err
	}
	return t, nil
}

// BuildComponentTranslationTable builds the per-language table for the
// translatable fields of a component table. It returns nil when there is
// nothing to translate.
func BuildComponentTranslationTable(componentTable string, comp *definition.Component, i18n bool, ctx *Context) (*ast.Table, error) {
	if !i18n || !comp.HasTranslatable() {
		return nil, nil
	}
	return buildTranslationTable(componentTable, comp.Fields, "", comp.Slug, ctx)
}

// buildTranslationTable builds the translation table of owner holding the
// translatable subset of fields. At most one row exists per owner row and
// language. model and comp name the definition the fields come from.
func buildTranslationTable(owner string, fields []definition.Field, model, comp string, ctx *Context) (*ast.Table, error) {
	r := ctx.Naming
	name := r.Translation(owner)
	fk := r.ForeignKey(owner)
	lang := r.Column("lang")

	t := &ast.Table{Name: name, Map: r.Physical(name)}
	cols := newFieldColumns(t, model, comp)
	t.AddColumns(
		ast.IDColumn(),
		&ast.Column{Name: fk, Type: ast.TypeString},
		&ast.Column{Name: lang, Type: ast.TypeString},
	)
	for i := range fields {
		f := &fields[i]
		if f.Derived || !f.IsTranslatable() {
			continue
		}
		fieldCols, err := TranslateField(name, f, ctx)
		if err != nil {
			return nil, err
		}
		if err := cols.field(i, f, fieldCols); err != nil {
			return nil, err
		}
	}
	err := cols.generated(&ast.Column{
		Name: r.RelationField(owner),
		Type: owner,
		Relation: &ast.Relation{
			Fields:     []string{fk},
			References: []string{"id"},
			OnDelete:   ast.ActionCascade,
		},
	})
	if err != nil {
		return nil, err
	}
	t.AddUnique(fk, lang)
	return t, nil
}

func translationsColumn(table string, ctx *Context) *ast.Column {
	return &ast.Column{Name: ctx.Naming.Column("translations"), Type: table, List: true}
}

// fieldColumns appends columns to a table while remembering which field
// produced each one, so field keys cannot shadow generated columns.
type fieldColumns struct {
	t     *ast.Table
	owner map[string]fieldRef // column name -> producing field
	model string
	comp  string
}

type fieldRef struct {
	index int
	key   string
}

func newFieldColumns(t *ast.Table, model, comp string) *fieldColumns {
	return &fieldColumns{t: t, owner: map[string]fieldRef{}, model: model, comp: comp}
}

// field appends the columns of fields[i].
func (fc *fieldColumns) field(i int, f *definition.Field, cols []*ast.Column) error {
	for _, c := range cols {
		if prev, ok := fc.owner[c.Name]; ok {
			return fc.collision(alerr.Newf(alerr.ErrDuplicateKey,
				"field '%s' maps to column '%s' on table '%s', already used by field '%s'",
				f.Key, c.Name, fc.t.Name, prev.key), i, f.Key)
		}
		if fc.t.HasColumn(c.Name) {
			return fc.generatedCollision(c.Name, fieldRef{i, f.Key})
		}
		fc.owner[c.Name] = fieldRef{i, f.Key}
	}
	fc.t.AddColumns(cols...)
	return nil
}

// generated appends columns the compiler adds on its own.
func (fc *fieldColumns) generated(cols ...*ast.Column) error {
	for _, c := range cols {
		if ref, ok := fc.owner[c.Name]; ok {
			return fc.generatedCollision(c.Name, ref)
		}
	}
	fc.t.AddColumns(cols...)
	return nil
}

func (fc *fieldColumns) generatedCollision(column string, ref fieldRef) error {
	return fc.collision(alerr.Newf(alerr.ErrReservedKey,
		"field key '%s' collides with the generated column '%s' on table '%s'",
		ref.key, column, fc.t.Name), ref.index, ref.key)
}

func (fc *fieldColumns) collision(e *alerr.Error, i int, key string) error {
	e.WithField(key).With("path", fmt.Sprintf("fields[%d].key", i)).WithTable(fc.t.Name)
	if fc.model != "" {
		e.WithModel(fc.model)
	}
	if fc.comp != "" {
		e.WithComponent(fc.comp)
	}
	return e.WithHelp("rename the field")
}
