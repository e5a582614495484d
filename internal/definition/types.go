// Package definition holds the model and component definitions that drive
// schema generation. Definitions are decoded from raw JSON or maps, validated
// once, and read-only afterwards. Keys a definition does not know about are
// kept in Extra maps so they round-trip without affecting output.
package definition

import "encoding/json"

// Extra holds passthrough keys that generation never reads.
type Extra map[string]json.RawMessage

// FieldType is the kind of a field.
type FieldType string

// Supported field types.
const (
	TypeText      FieldType = "text"
	TypeRich      FieldType = "rich"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeSelect    FieldType = "select"
	TypeJSON      FieldType = "json"
	TypeMedia     FieldType = "media"
	TypeRelation  FieldType = "relation"
	TypeComponent FieldType = "component"
)

// FieldTypes lists every supported type in declaration order.
var FieldTypes = []FieldType{
	TypeText, TypeRich, TypeNumber, TypeBoolean, TypeDate,
	TypeSelect, TypeJSON, TypeMedia, TypeRelation, TypeComponent,
}

// FieldTypeNames returns the supported type names as strings.
func FieldTypeNames() []string {
	names := make([]string, len(FieldTypes))
	for i, t := range FieldTypes {
		names[i] = string(t)
	}
	return names
}

// Valid reports whether t is a supported field type.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RelationType is the cardinality of a relation field.
type RelationType string

const (
	OneToOne   RelationType = "oneToOne"
	ManyToOne  RelationType = "manyToOne"
	OneToMany  RelationType = "oneToMany"
	ManyToMany RelationType = "manyToMany"
)

// Valid reports whether r is a known relation type.
func (r RelationType) Valid() bool {
	switch r {
	case OneToOne, ManyToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// Cascade is the delete policy of a relation.
type Cascade string

const (
	CascadeRestrict Cascade = "restrict"
	CascadeDelete   Cascade = "cascade"
	CascadeSetNull  Cascade = "setNull"
)

// Valid reports whether c is a known policy. Empty means restrict.
func (c Cascade) Valid() bool {
	switch c {
	case "", CascadeRestrict, CascadeDelete, CascadeSetNull:
		return true
	}
	return false
}

// Model is a top-level content type.
type Model struct {
	Slug     string    `json:"slug"`
	Name     string    `json:"name,omitempty"`
	Fields   []Field   `json:"fields"`
	Settings *Settings `json:"settings,omitempty"`
	Extra    Extra     `json:"-"`
}

// Settings are optional per-model generation settings.
type Settings struct {
	EnableI18n *bool  `json:"enableI18n,omitempty"`
	SortField  string `json:"sortField,omitempty"`
	Extra      Extra  `json:"-"`
}

// I18nEnabled reports whether the model opts into translations given the
// global switch. A model can only opt out.
func (m *Model) I18nEnabled(global bool) bool {
	if !global {
		return false
	}
	if m.Settings == nil || m.Settings.EnableI18n == nil {
		return true
	}
	return *m.Settings.EnableI18n
}

// SortField returns the configured sort field or "".
func (m *Model) SortField() string {
	if m.Settings == nil {
		return ""
	}
	return m.Settings.SortField
}

// HasField reports whether a field with the given key exists.
func (m *Model) HasField(key string) bool {
	return hasField(m.Fields, key)
}

// Component is a reusable field group embedded into models.
type Component struct {
	Slug   string  `json:"slug"`
	Name   string  `json:"name,omitempty"`
	Fields []Field `json:"fields"`
	Extra  Extra   `json:"-"`
}

// HasTranslatable reports whether any field would move to a translation table.
func (c *Component) HasTranslatable() bool {
	for _, f := range c.Fields {
		if !f.Derived && f.IsTranslatable() {
			return true
		}
	}
	return false
}

// Field is one attribute of a model or component.
type Field struct {
	Key          string      `json:"key"`
	Label        string      `json:"label,omitempty"`
	Type         FieldType   `json:"type"`
	Required     bool        `json:"required,omitempty"`
	Translatable *bool       `json:"translatable,omitempty"`
	Derived      bool        `json:"derived,omitempty"`
	Config       FieldConfig `json:"config,omitempty"`
	Validation   *Validation `json:"validation,omitempty"`
	Extra        Extra       `json:"-"`
}

// IsTranslatable reports whether the field holds per-language content.
// Relation and component fields never do. Content fields default to true.
func (f *Field) IsTranslatable() bool {
	if f.Type == TypeRelation || f.Type == TypeComponent {
		return false
	}
	if f.Translatable == nil {
		return true
	}
	return *f.Translatable
}

// Relation returns the relation config, or nil for other types.
func (f *Field) Relation() *RelationConfig {
	c, _ := f.Config.(*RelationConfig)
	return c
}

// Component returns the component config, or nil for other types.
func (f *Field) Component() *ComponentConfig {
	c, _ := f.Config.(*ComponentConfig)
	return c
}

// Media returns the media config, or nil for other types.
func (f *Field) Media() *MediaConfig {
	c, _ := f.Config.(*MediaConfig)
	return c
}

func hasField(fields []Field, key string) bool {
	for i := range fields {
		if fields[i].Key == key {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Field configs
// -----------------------------------------------------------------------------

// FieldConfig is the type-specific configuration of a field.
// Exactly one implementation exists per FieldType.
type FieldConfig interface {
	FieldType() FieldType
}

type TextConfig struct {
	Multiline bool  `json:"multiline,omitempty"`
	Extra     Extra `json:"-"`
}

type RichConfig struct {
	Extra Extra `json:"-"`
}

// NumberConfig selects an integer column when Format is "integer".
type NumberConfig struct {
	Format string `json:"format,omitempty"`
	Extra  Extra  `json:"-"`
}

// IsInteger reports whether the number is stored as an integer.
func (c *NumberConfig) IsInteger() bool {
	return c != nil && c.Format == "integer"
}

type BooleanConfig struct {
	Extra Extra `json:"-"`
}

type DateConfig struct {
	Extra Extra `json:"-"`
}

type SelectConfig struct {
	Options  []Option `json:"options"`
	Multiple bool     `json:"multiple,omitempty"`
	Extra    Extra    `json:"-"`
}

// Option is one select choice. A bare string decodes to Value and Label.
type Option struct {
	Value string
	Label string
	short bool
}

type JSONConfig struct {
	Extra Extra `json:"-"`
}

type MediaConfig struct {
	Multiple     bool     `json:"multiple,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	Extra        Extra    `json:"-"`
}

type RelationConfig struct {
	RelationType RelationType `json:"relationType"`
	TargetModel  string       `json:"targetModel"`
	DisplayField string       `json:"displayField,omitempty"`
	Cascade      Cascade      `json:"cascade,omitempty"`
	Extra        Extra        `json:"-"`
}

// CascadePolicy returns the effective policy, defaulting to restrict.
func (c *RelationConfig) CascadePolicy() Cascade {
	if c.Cascade == "" {
		return CascadeRestrict
	}
	return c.Cascade
}

type ComponentConfig struct {
	Slug       string            `json:"slug"`
	Repeatable bool              `json:"repeatable,omitempty"`
	Context    *ComponentContext `json:"context,omitempty"`
	Extra      Extra             `json:"-"`
}

// ABTesting reports whether the embedding enables A/B testing columns.
func (c *ComponentConfig) ABTesting() bool {
	return c.ABTestingOr(false)
}

// ABTestingOr is like ABTesting but falls back to def when the embedding
// does not say either way.
func (c *ComponentConfig) ABTestingOr(def bool) bool {
	if c.Context == nil || c.Context.ABTesting == nil {
		return def
	}
	return c.Context.ABTesting.Enabled
}

type ComponentContext struct {
	ABTesting *ABTesting `json:"abTesting,omitempty"`
	Extra     Extra      `json:"-"`
}

type ABTesting struct {
	Enabled bool  `json:"enabled"`
	Extra   Extra `json:"-"`
}

func (*TextConfig) FieldType() FieldType      { return TypeText }
func (*RichConfig) FieldType() FieldType      { return TypeRich }
func (*NumberConfig) FieldType() FieldType    { return TypeNumber }
func (*BooleanConfig) FieldType() FieldType   { return TypeBoolean }
func (*DateConfig) FieldType() FieldType      { return TypeDate }
func (*SelectConfig) FieldType() FieldType    { return TypeSelect }
func (*JSONConfig) FieldType() FieldType      { return TypeJSON }
func (*MediaConfig) FieldType() FieldType     { return TypeMedia }
func (*RelationConfig) FieldType() FieldType  { return TypeRelation }
func (*ComponentConfig) FieldType() FieldType { return TypeComponent }

// Validation is declarative validation metadata. It is never enforced here,
// only echoed into schema comments.
type Validation struct {
	Email     bool     `json:"email,omitempty"`
	URL       bool     `json:"url,omitempty"`
	UUID      bool     `json:"uuid,omitempty"`
	CUID      bool     `json:"cuid,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Int       bool     `json:"int,omitempty"`
	Positive  bool     `json:"positive,omitempty"`
	Negative  bool     `json:"negative,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`
	Custom    string   `json:"custom,omitempty"`
	Extra     Extra    `json:"-"`
}
