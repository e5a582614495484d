package compiler

import (
	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/definition"
	"github.com/hlop3z/eavforge/internal/strutil"
)

// TranslateField maps one field of the table named owner to its output
// columns. Every supported type yields exactly one column. An unsupported
// type is an error, never a guessed column.
func TranslateField(owner string, f *definition.Field, ctx *Context) ([]*ast.Column, error) {
	col := &ast.Column{
		Name:       ctx.col(f.Key),
		Optional:   !f.Required,
		Validation: f.Validation,
	}

	switch f.Type {
	case definition.TypeText, definition.TypeRich:
		col.Type = ast.TypeString

	case definition.TypeNumber:
		col.Type = ast.TypeFloat
		if c, ok := f.Config.(*definition.NumberConfig); ok && c.IsInteger() {
			col.Type = ast.TypeInt
		}

	case definition.TypeBoolean:
		col.Type = ast.TypeBoolean

	case definition.TypeDate:
		col.Type = ast.TypeDateTime

	case definition.TypeSelect:
		col.Type = ast.TypeString
		if c, ok := f.Config.(*definition.SelectConfig); ok && c.Multiple {
			col.List = true
		}

	case definition.TypeJSON:
		col.Type = ast.TypeJSON

	case definition.TypeMedia:
		translateMedia(col, f, ctx)

	case definition.TypeRelation:
		if err := translateRelation(col, f, ctx); err != nil {
			return nil, err
		}

	case definition.TypeComponent:
		c := f.Component()
		if c == nil {
			return nil, alerr.New(alerr.ErrUnresolvedRef, "component field has no component slug").
				WithField(f.Key)
		}
		col.Type = ComponentTableName(owner, f.Key, ctx)
		col.List = c.Repeatable
		col.Optional = !c.Repeatable
		col.Validation = nil

	default:
		return nil, alerr.NewUnsupportedTypeError(f.Key, string(f.Type), definition.FieldTypeNames()).
			WithTable(owner)
	}

	if col.List {
		col.Optional = false
	}
	return []*ast.Column{col}, nil
}

// translateMedia stores a media reference as an id, a list of ids, or a
// list relation when an external Media table is known.
func translateMedia(col *ast.Column, f *definition.Field, ctx *Context) {
	multiple := false
	if c := f.Media(); c != nil {
		multiple = c.Multiple
	}

	switch {
	case multiple && ctx.HasExternal(MediaTable):
		col.Type = MediaTable
		col.List = true
	case multiple:
		col.Type = ast.TypeString
		col.List = true
	default:
		col.Name = ctx.Naming.IDColumn(f.Key)
		col.Type = ast.TypeString
	}
}

// translateRelation emits an id column for to-one relations and a list
// edge for to-many relations. Junction tables are built separately.
func translateRelation(col *ast.Column, f *definition.Field, ctx *Context) error {
	c := f.Relation()
	if c == nil {
		return alerr.New(alerr.ErrUnresolvedRef, "relation field has no target").
			WithField(f.Key)
	}
	col.Validation = nil

	switch c.RelationType {
	case definition.OneToOne, definition.ManyToOne:
		col.Name = ctx.Naming.IDColumn(f.Key)
		col.Type = ast.TypeString
		col.Unique = c.RelationType == definition.OneToOne
	case definition.OneToMany, definition.ManyToMany:
		col.Type = ctx.TargetTable(c.TargetModel)
		col.List = true
	default:
		return alerr.New(alerr.ErrUnsupportedType, "unsupported relation type").
			WithField(f.Key).
			With("relationType", string(c.RelationType))
	}
	return nil
}

// ComponentTableName names the table holding a component embedded under key.
// Example: ("Post", "sections") -> "PostSection"
func ComponentTableName(owner, key string, ctx *Context) string {
	return ctx.Naming.Join(owner, strutil.Singularize(key))
}
