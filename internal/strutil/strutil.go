// Package strutil provides the string primitives behind every synthesized
// table and column name: case conversion, singularization, and quoting.
// Only ASCII letters, digits, hyphens and underscores are considered.
package strutil

import (
	"strings"
)

// -----------------------------------------------------------------------------
// Case Conversion
// -----------------------------------------------------------------------------

// isBoundary reports whether r separates words.
func isBoundary(r byte) bool {
	return r == '-' || r == '_' || r == ' '
}

func isUpper(r byte) bool { return r >= 'A' && r <= 'Z' }
func isLower(r byte) bool { return r >= 'a' && r <= 'z' }

func toUpper(r byte) byte {
	if isLower(r) {
		return r - 'a' + 'A'
	}
	return r
}

func toLower(r byte) byte {
	if isUpper(r) {
		return r - 'A' + 'a'
	}
	return r
}

// ToPascalCase converts a string to PascalCase.
// Hyphens and underscores are word boundaries; the first letter of every word
// is capitalized and the rest of the word is kept as written, so already
// cased names survive concatenation ("PostSeo_item" -> "PostSeoItem").
// Examples: blog-post -> BlogPost, meta_title -> MetaTitle
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s))

	capitalizeNext := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isBoundary(c) {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteByte(toUpper(c))
			capitalizeNext = false
		} else {
			result.WriteByte(c)
		}
	}

	return result.String()
}

// ToCamelCase converts a string to camelCase.
// Examples: blog-post -> blogPost, PostSeo -> postSeo
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return ""
	}
	return string(toLower(pascal[0])) + pascal[1:]
}

// ToSnakeCase converts a string to snake_case by inserting an underscore
// before each uppercase letter and lowercasing it. Hyphens and spaces become
// underscores and runs of underscores collapse to one.
// Examples: PostSeo -> post_seo, blog-post -> blog_post, postSeoId -> post_seo_id
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s) + 4)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUpper(c):
			if i > 0 {
				result.WriteByte('_')
			}
			result.WriteByte(toLower(c))
		case isBoundary(c):
			result.WriteByte('_')
		default:
			result.WriteByte(c)
		}
	}

	out := result.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// Singularize strips one trailing "s".
// It is intentionally naive: "items" -> "item", "gallery" -> "gallery".
func Singularize(s string) string {
	if len(s) > 1 && s[len(s)-1] == 's' {
		return s[:len(s)-1]
	}
	return s
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------


// PadRight pads s with spaces up to width.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Quote renders s as a double-quoted string literal, escaping backslashes
// and embedded quotes.
func Quote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
