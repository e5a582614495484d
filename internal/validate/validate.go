// Package validate provides the rule checks and path-attributed error
// collection used when validating model and component definitions.
// Every violated rule is reported, never just the first.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// -----------------------------------------------------------------------------
// Reserved Keys
// -----------------------------------------------------------------------------

// systemKeys are columns every generated table already owns.
var systemKeys = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// componentKeys are columns reserved for A/B testing inside component tables.
var componentKeys = map[string]bool{
	"variant_id": true,
	"enabled":    true,
}

// IsSystemKey reports whether key is reserved on every table.
func IsSystemKey(key string) bool {
	return systemKeys[key]
}

// IsComponentKey reports whether key is reserved inside components.
func IsComponentKey(key string) bool {
	return componentKeys[key]
}

// ReservedKey returns an error if key may not be declared by the owner.
// inComponent additionally bans the A/B testing keys.
func ReservedKey(key string, inComponent bool) error {
	if IsSystemKey(key) {
		return alerr.New(alerr.ErrReservedKey, fmt.Sprintf("'%s' is a reserved system field", key)).
			With("key", key)
	}
	if inComponent && IsComponentKey(key) {
		return alerr.New(alerr.ErrReservedKey, fmt.Sprintf("'%s' is reserved for A/B testing inside components", key)).
			With("key", key)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Identifier Patterns
// -----------------------------------------------------------------------------

// slugRegex matches lowercase-hyphen slugs: "post", "blog-post", "hero2-banner".
var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// keyRegex matches lowercase field keys: "title", "meta_title", "seo2".
var keyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsSlug reports whether s is a valid slug.
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// IsKey reports whether s is a valid field key.
func IsKey(s string) bool {
	return keyRegex.MatchString(s)
}

// Slug validates a model or component slug.
func Slug(s string) error {
	if s == "" {
		return alerr.New(alerr.ErrRequiredValue, "slug is required")
	}
	if !IsSlug(s) {
		err := alerr.New(alerr.ErrInvalidSlug, "slug must be lowercase letters, digits and hyphens").
			With("got", s)
		if suggestion := toSlug(s); suggestion != s && IsSlug(suggestion) {
			err.With("suggestion", suggestion)
		}
		return err
	}
	return nil
}

// Key validates a field key.
func Key(s string) error {
	if s == "" {
		return alerr.New(alerr.ErrRequiredValue, "key is required")
	}
	if !IsKey(s) {
		err := alerr.New(alerr.ErrInvalidKey, "key must start with a lowercase letter and contain only lowercase letters, digits and underscores").
			With("got", s)
		if suggestion := toKey(s); suggestion != s && IsKey(suggestion) {
			err.With("suggestion", suggestion)
		}
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Batch Validation
// -----------------------------------------------------------------------------

// Issue is one violated rule, attributed to a path inside the definition.
type Issue struct {
	Path    string     // Dotted path such as "fields[2].config.options"
	Code    alerr.Code // Rule that was violated
	Message string     // Human-readable explanation
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Errors collects every issue found while validating one definition.
type Errors []Issue

// Error returns all issues as a formatted string.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation error(s):", len(ve)))
	for i, issue := range ve {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, issue.String()))
	}
	return sb.String()
}

// HasErrors returns true if there are any issues in the collection.
func (ve Errors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends an issue.
func (ve *Errors) Add(path string, code alerr.Code, msg string) {
	*ve = append(*ve, Issue{Path: path, Code: code, Message: msg})
}

// Addf appends an issue with a formatted message.
func (ve *Errors) Addf(path string, code alerr.Code, format string, args ...any) {
	ve.Add(path, code, fmt.Sprintf(format, args...))
}

// AddErr appends err under path if it is not nil. Coded errors keep their code.
func (ve *Errors) AddErr(path string, err error) {
	if err == nil {
		return
	}
	code := alerr.GetErrorCode(err)
	if code == "" {
		code = alerr.ErrDefinitionInvalid
	}
	msg := err.Error()
	if e, ok := err.(*alerr.Error); ok {
		msg = e.GetMessage()
	}
	ve.Add(path, code, msg)
}

// Merge adds all issues from other, prefixing their paths.
func (ve *Errors) Merge(prefix string, other Errors) {
	for _, issue := range other {
		issue.Path = JoinPath(prefix, issue.Path)
		*ve = append(*ve, issue)
	}
}

// Paths returns the path of every issue in order.
func (ve Errors) Paths() []string {
	paths := make([]string, len(ve))
	for i, issue := range ve {
		paths[i] = issue.Path
	}
	return paths
}

// Has reports whether an issue with the given path and code was recorded.
func (ve Errors) Has(path string, code alerr.Code) bool {
	for _, issue := range ve {
		if issue.Path == path && issue.Code == code {
			return true
		}
	}
	return false
}

// ToError returns nil if no issues, or the collection itself otherwise.
func (ve Errors) ToError() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// JoinPath joins two path segments with a dot, handling index segments.
func JoinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	case strings.HasPrefix(path, "["):
		return prefix + path
	}
	return prefix + "." + path
}

// Index formats an indexed path segment: Index("fields", 2) -> "fields[2]".
func Index(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// toKey builds a key suggestion from an arbitrary string.
func toKey(s string) string {
	return normalize(s, '_')
}

// toSlug builds a slug suggestion from an arbitrary string.
func toSlug(s string) string {
	return normalize(s, '-')
}

// normalize lowercases s, splits camelCase, and joins words with sep.
func normalize(s string, sep byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte(sep)
			}
			b.WriteByte(c - 'A' + 'a')
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
		case c == '-' || c == '_' || c == ' ':
			b.WriteByte(sep)
		}
	}

	out := b.String()
	double := string([]byte{sep, sep})
	for strings.Contains(out, double) {
		out = strings.ReplaceAll(out, double, string(sep))
	}
	return strings.Trim(out, string(sep))
}
