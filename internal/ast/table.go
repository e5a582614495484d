package ast

import (
	"fmt"
	"regexp"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/definition"
)

// Scalar column types of the target format.
const (
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeInt      = "Int"
	TypeBigInt   = "BigInt"
	TypeFloat    = "Float"
	TypeDecimal  = "Decimal"
	TypeDateTime = "DateTime"
	TypeJSON     = "Json"
	TypeBytes    = "Bytes"
)

var scalarTypes = map[string]bool{
	TypeString: true, TypeBoolean: true, TypeInt: true, TypeBigInt: true,
	TypeFloat: true, TypeDecimal: true, TypeDateTime: true, TypeJSON: true, TypeBytes: true,
}

// IsScalarType reports whether t is a built-in scalar rather than a table reference.
func IsScalarType(t string) bool {
	return scalarTypes[t]
}

// Referential actions used in relation wiring.
const (
	ActionCascade  = "Cascade"
	ActionRestrict = "Restrict"
	ActionSetNull  = "SetNull"
	ActionNoAction = "NoAction"
)

// identifierPattern matches names the target format accepts for tables and columns.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateIdentifier checks a table or column name.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return alerr.New(alerr.ErrSchemaInvalid,
			fmt.Sprintf("invalid identifier %q; must match [A-Za-z][A-Za-z0-9_]*", name))
	}
	return nil
}

// -----------------------------------------------------------------------------
// Table
// -----------------------------------------------------------------------------

// Table is one output model block.
type Table struct {
	Name    string
	Columns []*Column
	Indexes [][]string // Each entry is one @@index column set
	Uniques [][]string // Each entry is one @@unique column set
	Map     string     // Physical table name override, "" for none
}

// GetColumn returns the column with the given name, or nil if not found.
func (t *Table) GetColumn(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// HasColumn returns true if the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.GetColumn(name) != nil
}

// AddColumns appends columns in order.
func (t *Table) AddColumns(cols ...*Column) {
	t.Columns = append(t.Columns, cols...)
}

// AddIndex appends an index over the given columns.
func (t *Table) AddIndex(cols ...string) {
	t.Indexes = append(t.Indexes, cols)
}

// AddUnique appends a unique constraint over the given columns.
func (t *Table) AddUnique(cols ...string) {
	t.Uniques = append(t.Uniques, cols)
}

// IDColumn returns the identity column, or nil if none.
func (t *Table) IDColumn() *Column {
	for _, col := range t.Columns {
		if col.ID {
			return col
		}
	}
	return nil
}

// Validate checks that the table is well-formed: a valid name, at least one
// column, unique column names, and index/unique sets naming real columns.
func (t *Table) Validate() error {
	if t.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "table name is required")
	}
	if err := ValidateIdentifier(t.Name); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return alerr.New(alerr.ErrSchemaInvalid, "table must have at least one column").
			WithTable(t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if err := col.Validate(); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid column").
				WithTable(t.Name).
				With("column", col.Name)
		}
		if seen[col.Name] {
			return alerr.New(alerr.ErrSchemaInvalid, "duplicate column name").
				WithTable(t.Name).
				With("column", col.Name)
		}
		seen[col.Name] = true
	}

	for _, set := range append(append([][]string{}, t.Indexes...), t.Uniques...) {
		if len(set) == 0 {
			return alerr.New(alerr.ErrSchemaInvalid, "index must have at least one column").
				WithTable(t.Name)
		}
		for _, name := range set {
			if !seen[name] {
				return alerr.New(alerr.ErrSchemaInvalid, "index references unknown column").
					WithTable(t.Name).
					With("column", name)
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Column
// -----------------------------------------------------------------------------

// Column is one field line inside a table block.
type Column struct {
	Name string
	Type string // Scalar type or referenced table name

	// Modifiers. List wins over Optional when both are set.
	Optional bool
	List     bool

	// Attributes
	ID        bool      // @id
	Unique    bool      // @unique
	UpdatedAt bool      // @updatedAt
	Default   string    // @default(...) body, raw: "cuid()", "now()", "0", "\"draft\""
	Relation  *Relation // @relation(...)
	Map       string    // @map("...") physical column name

	// Echoed into a comment for downstream validators, never enforced.
	Validation *definition.Validation
}

// IsRelation reports whether the column is a relation edge rather than stored data.
func (c *Column) IsRelation() bool {
	return c.Relation != nil || !IsScalarType(c.Type)
}

// Validate checks the column name and type.
func (c *Column) Validate() error {
	if c.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "column name is required")
	}
	if err := ValidateIdentifier(c.Name); err != nil {
		return err
	}
	if c.Type == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "column type is required")
	}
	if c.List && c.Optional {
		return alerr.New(alerr.ErrSchemaInvalid, "list columns cannot be optional")
	}
	if c.Relation != nil && len(c.Relation.Fields) != len(c.Relation.References) {
		return alerr.New(alerr.ErrSchemaInvalid, "relation field count must match reference count")
	}
	return nil
}

// Relation wires a relation column to stored foreign key columns.
type Relation struct {
	Name       string   // Disambiguates multiple relations between the same tables
	Fields     []string // Columns on this table
	References []string // Columns on the referenced table
	OnDelete   string   // Referential action, "" for the format default
	OnUpdate   string
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// IDColumn returns the identity column every generated table starts with.
func IDColumn() *Column {
	return &Column{Name: "id", Type: TypeString, ID: true, Default: "cuid()"}
}

// Timestamps returns the created_at/updated_at pair, named under the
// given column-case function.
func Timestamps(column func(string) string) []*Column {
	return []*Column{
		{Name: column("created_at"), Type: TypeDateTime, Default: "now()"},
		{Name: column("updated_at"), Type: TypeDateTime, UpdatedAt: true},
	}
}

// CreatedAt returns only the creation timestamp column.
func CreatedAt(column func(string) string) *Column {
	return &Column{Name: column("created_at"), Type: TypeDateTime, Default: "now()"}
}
