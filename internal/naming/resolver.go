package naming

import (
	"strings"

	"github.com/hlop3z/eavforge/internal/strutil"
)

// Resolver bundles the naming settings of one generation run.
type Resolver struct {
	Tables             Convention // Convention for table names (default PascalCase)
	Columns            Convention // Convention for column names (default snake_case)
	Prefix             string     // Optional table name prefix
	TranslationPattern string     // Pattern containing ${identifier}
}

// DefaultResolver returns the PascalCase tables / snake_case columns resolver.
func DefaultResolver() Resolver {
	return Resolver{
		Tables:             PascalCase,
		Columns:            SnakeCase,
		TranslationPattern: DefaultTranslationPattern,
	}
}

// WithDefaults fills unset fields from DefaultResolver.
func (r Resolver) WithDefaults() Resolver {
	d := DefaultResolver()
	if r.Tables == "" {
		r.Tables = d.Tables
	}
	if r.Columns == "" {
		r.Columns = d.Columns
	}
	if r.TranslationPattern == "" {
		r.TranslationPattern = d.TranslationPattern
	}
	return r
}

// Table resolves a model slug to its table name.
func (r Resolver) Table(slug string) string {
	return ToTableName(slug, r.Tables, r.Prefix)
}

// Column resolves a field key or synthesized column name.
func (r Resolver) Column(name string) string {
	return ToColumnCase(name, r.Columns)
}

// Translation resolves the translation table of tableName.
func (r Resolver) Translation(tableName string) string {
	return ToTranslationTableName(tableName, r.TranslationPattern, r.Tables)
}

// Join concatenates table name parts under the table convention.
func (r Resolver) Join(parts ...string) string {
	return Join(r.Tables, parts...)
}

// ForeignKey returns the column pointing at tableName ("PostSeo" -> "post_seo_id").
func (r Resolver) ForeignKey(tableName string) string {
	return r.Column(strutil.ToSnakeCase(tableName) + "_id")
}

// RelationField returns the relation column naming tableName ("PostSeo" -> "post_seo").
func (r Resolver) RelationField(tableName string) string {
	return r.Column(strutil.ToSnakeCase(tableName))
}

// IDColumn returns the column holding a scalar reference for a field key.
// Keys already ending in "_id" are kept as they are.
func (r Resolver) IDColumn(key string) string {
	if strings.HasSuffix(key, "_id") {
		return r.Column(key)
	}
	return r.Column(key + "_id")
}

// Physical returns the snake_case storage name of a table.
func (r Resolver) Physical(tableName string) string {
	return strutil.ToSnakeCase(tableName)
}
