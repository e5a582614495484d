package compiler

import (
	"github.com/hlop3z/eavforge/internal/ast"
	"github.com/hlop3z/eavforge/internal/definition"
	"github.com/hlop3z/eavforge/internal/strutil"
)

// NeedsJunctionTable reports whether a field materializes as a junction table.
func NeedsJunctionTable(f *definition.Field) bool {
	if f.Type != definition.TypeRelation {
		return false
	}
	c := f.Relation()
	return c != nil && c.RelationType == definition.ManyToMany
}

// JunctionTableName names the junction between owner and the field's target.
func JunctionTableName(owner string, f *definition.Field, ctx *Context) string {
	return ctx.Naming.Join(owner, ctx.TargetTable(f.Relation().TargetModel))
}

// BuildJunctionTable builds the many-to-many table between owner and the
// field's target. Deleting a target always removes its junction rows; the
// owner side follows the field's cascade policy.
//
// When owner and target are the same table, the target side is prefixed
// with "related_" and both edges get distinct relation names.
func BuildJunctionTable(owner string, f *definition.Field, ctx *Context) *ast.Table {
	rel := f.Relation()
	target := ctx.TargetTable(rel.TargetModel)
	r := ctx.Naming
	self := owner == target

	ownerFK := r.ForeignKey(owner)
	ownerEdge := r.RelationField(owner)
	targetFK := r.ForeignKey(target)
	targetEdge := r.RelationField(target)
	if self {
		targetFK = r.Column("related_" + strutil.ToSnakeCase(target) + "_id")
		targetEdge = r.Column("related_" + strutil.ToSnakeCase(target))
	}

	ownerDelete := ast.ActionRestrict
	if rel.CascadePolicy() == definition.CascadeDelete {
		ownerDelete = ast.ActionCascade
	}

	t := &ast.Table{Name: JunctionTableName(owner, f, ctx)}
	t.AddColumns(
		ast.IDColumn(),
		&ast.Column{Name: ownerFK, Type: ast.TypeString},
		&ast.Column{Name: targetFK, Type: ast.TypeString},
		&ast.Column{Name: r.Column("order"), Type: ast.TypeInt, Optional: true},
		ast.CreatedAt(r.Column),
		&ast.Column{
			Name: ownerEdge,
			Type: owner,
			Relation: &ast.Relation{
				Fields:     []string{ownerFK},
				References: []string{"id"},
				OnDelete:   ownerDelete,
			},
		},
		&ast.Column{
			Name: targetEdge,
			Type: target,
			Relation: &ast.Relation{
				Fields:     []string{targetFK},
				References: []string{"id"},
				OnDelete:   ast.ActionCascade,
			},
		},
	)
	if self {
		t.Columns[5].Relation.Name = t.Name + "Owner"
		t.Columns[6].Relation.Name = t.Name + "Related"
	}

	t.AddUnique(ownerFK, targetFK)
	t.AddIndex(ownerFK)
	t.AddIndex(targetFK)
	return t
}
