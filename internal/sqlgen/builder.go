// Package sqlgen provides dialect-aware SQL building helpers for reading
// and seeding definition rows, to avoid string concatenation at call sites.
package sqlgen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// Dialect represents a supported SQL database dialect.
type Dialect int

const (
	// Postgres represents PostgreSQL dialect.
	Postgres Dialect = iota
	// SQLite represents SQLite dialect.
	SQLite
	// MySQL represents MySQL/MariaDB dialect.
	MySQL
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case MySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

// tableNamePattern matches plain or schema-qualified table names.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTableName checks that a configured table name is a plain
// identifier, optionally schema-qualified.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return alerr.New(alerr.ErrConfigInvalid,
			"invalid table name; must match [A-Za-z_][A-Za-z0-9_]* with an optional schema prefix").
			With("table", name)
	}
	return nil
}

// Builder provides fluent SQL construction with dialect awareness.
type Builder struct {
	dialect Dialect
	buf     strings.Builder
}

// New creates a new Builder for the specified dialect.
func New(dialect Dialect) *Builder {
	return &Builder{
		dialect: dialect,
	}
}

// Dialect returns the dialect of this builder.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// ----------------------------------------------------------------------------
// Query Helpers
// ----------------------------------------------------------------------------

// Select appends "SELECT <cols>" with quoted column names.
func (b *Builder) Select(cols ...string) *Builder {
	b.buf.WriteString("SELECT ")
	b.buf.WriteString(b.columns(cols))
	return b
}

// From appends " FROM <table>". A schema-qualified name is quoted per part.
func (b *Builder) From(table string) *Builder {
	b.buf.WriteString(" FROM ")
	b.buf.WriteString(b.qualified(table))
	return b
}

// OrderBy appends " ORDER BY <cols>".
func (b *Builder) OrderBy(cols ...string) *Builder {
	b.buf.WriteString(" ORDER BY ")
	b.buf.WriteString(b.columns(cols))
	return b
}

// ----------------------------------------------------------------------------
// DDL Helpers
// ----------------------------------------------------------------------------

// ColumnDef is one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// CreateTable appends "CREATE TABLE <name> (<defs>)".
func (b *Builder) CreateTable(name string, defs ...ColumnDef) *Builder {
	b.buf.WriteString("CREATE TABLE ")
	b.buf.WriteString(b.qualified(name))
	b.buf.WriteString(" (")
	for i, d := range defs {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.buf.WriteString(QuoteIdent(b.dialect, d.Name))
		b.buf.WriteString(" ")
		b.buf.WriteString(d.Type)
		if d.PrimaryKey {
			b.buf.WriteString(" PRIMARY KEY")
		}
		if d.NotNull {
			b.buf.WriteString(" NOT NULL")
		}
	}
	b.buf.WriteString(")")
	return b
}

// InsertInto appends "INSERT INTO <table> (<cols>) VALUES (<placeholders>)".
func (b *Builder) InsertInto(table string, cols ...string) *Builder {
	b.buf.WriteString("INSERT INTO ")
	b.buf.WriteString(b.qualified(table))
	b.buf.WriteString(" (")
	b.buf.WriteString(b.columns(cols))
	b.buf.WriteString(") VALUES (")
	b.buf.WriteString(Placeholders(b.dialect, len(cols)))
	b.buf.WriteString(")")
	return b
}

// String returns the accumulated SQL string.
func (b *Builder) String() string {
	return b.buf.String()
}

// Reset clears the buffer so the builder can be reused.
func (b *Builder) Reset() *Builder {
	b.buf.Reset()
	return b
}

func (b *Builder) columns(cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = QuoteIdent(b.dialect, col)
	}
	return strings.Join(parts, ", ")
}

func (b *Builder) qualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(b.dialect, p)
	}
	return strings.Join(parts, ".")
}

// ----------------------------------------------------------------------------
// Standalone Helpers
// ----------------------------------------------------------------------------

// QuoteIdent returns the identifier quoted according to the dialect.
// PostgreSQL and SQLite use double quotes, MySQL uses backticks.
func QuoteIdent(dialect Dialect, s string) string {
	if dialect == MySQL {
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	}
	escaped := strings.ReplaceAll(s, `"`, `""`)
	return `"` + escaped + `"`
}

// Placeholder returns the n-th (1-based) bind placeholder.
// PostgreSQL uses $n, SQLite and MySQL use ?.
func Placeholder(dialect Dialect, n int) string {
	if dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Placeholders returns a comma-separated list of placeholders for the given count.
func Placeholders(dialect Dialect, n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = Placeholder(dialect, i+1)
	}
	return strings.Join(parts, ", ")
}
