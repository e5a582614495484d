// Package naming maps slugs and identifiers to table and column names under
// a naming convention. Every function is pure.
package naming

import (
	"fmt"
	"strings"

	"github.com/hlop3z/eavforge/internal/strutil"
)

// Convention is a casing policy applied to synthesized names.
type Convention string

const (
	PascalCase Convention = "PascalCase"
	CamelCase  Convention = "camelCase"
	SnakeCase  Convention = "snake_case"
)

// IdentifierPlaceholder is substituted with the owning table name in
// translation table patterns.
const IdentifierPlaceholder = "${identifier}"

// DefaultTranslationPattern names a translation table after its owner.
const DefaultTranslationPattern = IdentifierPlaceholder + "Translation"

// ParseConvention accepts the canonical spelling and a few common aliases.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pascalcase", "pascal":
		return PascalCase, nil
	case "camelcase", "camel":
		return CamelCase, nil
	case "snake_case", "snakecase", "snake":
		return SnakeCase, nil
	}
	return "", fmt.Errorf("unknown naming convention %q (want PascalCase, camelCase or snake_case)", s)
}

// Apply converts s to the convention. An empty convention leaves s untouched.
func (c Convention) Apply(s string) string {
	switch c {
	case PascalCase:
		return strutil.ToPascalCase(s)
	case CamelCase:
		return strutil.ToCamelCase(s)
	case SnakeCase:
		return strutil.ToSnakeCase(s)
	}
	return s
}

// ToTableName converts a model slug into a table name, prepending prefix when set.
// Example: ToTableName("blog-post", PascalCase, "cms") -> "CmsBlogPost"
func ToTableName(slug string, conv Convention, prefix string) string {
	if prefix != "" {
		return Join(conv, prefix, slug)
	}
	return conv.Apply(slug)
}

// ToColumnCase converts a field key or synthesized column name to the convention.
func ToColumnCase(s string, conv Convention) string {
	return conv.Apply(s)
}

// ToTranslationTableName substitutes tableName into pattern. For snake_case
// the result is re-cased so "post_seo" + "${identifier}Translation" yields
// "post_seo_translation".
func ToTranslationTableName(tableName, pattern string, conv Convention) string {
	if pattern == "" {
		pattern = DefaultTranslationPattern
	}
	name := strings.ReplaceAll(pattern, IdentifierPlaceholder, tableName)
	if conv == SnakeCase {
		return strutil.ToSnakeCase(name)
	}
	return name
}

// Join concatenates already-cased or raw parts under the convention.
// Example: Join(PascalCase, "Post", "category") -> "PostCategory"
// Example: Join(SnakeCase, "post", "category") -> "post_category"
func Join(conv Convention, parts ...string) string {
	switch conv {
	case SnakeCase:
		snake := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strutil.ToSnakeCase(p); s != "" {
				snake = append(snake, s)
			}
		}
		return strings.Join(snake, "_")
	case CamelCase:
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(strutil.ToPascalCase(p))
		}
		return strutil.ToCamelCase(b.String())
	case PascalCase:
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(strutil.ToPascalCase(p))
		}
		return b.String()
	}
	return strings.Join(parts, "")
}
