package alerr

import (
	"fmt"
	"strings"
)

// fieldTypeAliases maps type names commonly used by other content tools to
// the field kind that covers them.
var fieldTypeAliases = map[string]string{
	"string":    "text",
	"varchar":   "text",
	"textarea":  "text",
	"markdown":  "rich",
	"richtext":  "rich",
	"html":      "rich",
	"int":       "number",
	"integer":   "number",
	"float":     "number",
	"decimal":   "number",
	"bool":      "boolean",
	"checkbox":  "boolean",
	"datetime":  "date",
	"timestamp": "date",
	"enum":      "select",
	"dropdown":  "select",
	"object":    "json",
	"image":     "media",
	"file":      "media",
	"asset":     "media",
	"reference": "relation",
	"ref":       "relation",
	"group":     "component",
	"block":     "component",
}

// SuggestFieldType suggests the supported field kind for a type name.
// Returns empty string if no suggestion is available.
func SuggestFieldType(typeName string, supported []string) string {
	lower := strings.ToLower(strings.TrimSpace(typeName))

	if kind, ok := fieldTypeAliases[lower]; ok {
		return fmt.Sprintf("use type '%s'", kind)
	}
	return SuggestSimilar(lower, supported)
}

// NewUnsupportedTypeError creates an error for a field kind the translator cannot handle.
func NewUnsupportedTypeError(fieldKey, typeName string, supported []string) *Error {
	e := New(ErrUnsupportedType, fmt.Sprintf("unsupported field type %q", typeName)).
		WithField(fieldKey).
		With("type", typeName)
	if hint := SuggestFieldType(typeName, supported); hint != "" {
		e.WithHelp(hint)
	}
	return e
}
