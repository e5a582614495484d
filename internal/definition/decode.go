package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/validate"
)

// ParseModel decodes and validates a model definition from JSON.
// Malformed JSON is an ErrDefinitionParse error. Structural and rule
// violations are collected into one ErrDefinitionInvalid error whose cause
// is a validate.Errors listing every issue.
func ParseModel(data []byte) (*Model, error) {
	m, errs, err := DecodeModel(data)
	if err != nil {
		return nil, err
	}
	errs = append(errs, ValidateModel(m)...)
	if errs.HasErrors() {
		return nil, invalid("model", m.Slug, errs)
	}
	return m, nil
}

// ParseComponent decodes and validates a component definition from JSON.
func ParseComponent(data []byte) (*Component, error) {
	c, errs, err := DecodeComponent(data)
	if err != nil {
		return nil, err
	}
	errs = append(errs, ValidateComponent(c)...)
	if errs.HasErrors() {
		return nil, invalid("component", c.Slug, errs)
	}
	return c, nil
}

// ModelFromMap decodes and validates a model given as a generic map, such
// as one produced by a YAML decoder or a JS hook.
func ModelFromMap(raw map[string]any) (*Model, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrDefinitionParse, err, "model definition is not JSON-encodable")
	}
	return ParseModel(data)
}

// ComponentFromMap decodes and validates a component given as a generic map.
func ComponentFromMap(raw map[string]any) (*Component, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrDefinitionParse, err, "component definition is not JSON-encodable")
	}
	return ParseComponent(data)
}

func invalid(kind, slug string, errs validate.Errors) error {
	e := alerr.Wrap(alerr.ErrDefinitionInvalid, errs, fmt.Sprintf("%s definition is invalid", kind))
	if slug != "" {
		e.With(kind, slug)
	}
	e.With("issues", len(errs))
	return e
}

// DecodeModel decodes a model without running rule validation. Shape
// problems (wrong JSON types, missing config) are returned as issues.
func DecodeModel(data []byte) (*Model, validate.Errors, error) {
	var d decoder
	obj, err := parseObject(data)
	if err != nil {
		return nil, nil, err
	}

	m := &Model{}
	m.Slug = d.str("slug", obj, "slug")
	m.Name = d.str("name", obj, "name")
	m.Fields = d.fields(obj)
	if raw := take(obj, "settings"); raw != nil {
		m.Settings = d.settings("settings", raw)
	}
	m.Extra = extra(obj)
	return m, d.errs, nil
}

// DecodeComponent decodes a component without running rule validation.
func DecodeComponent(data []byte) (*Component, validate.Errors, error) {
	var d decoder
	obj, err := parseObject(data)
	if err != nil {
		return nil, nil, err
	}

	c := &Component{}
	c.Slug = d.str("slug", obj, "slug")
	c.Name = d.str("name", obj, "name")
	c.Fields = d.fields(obj)
	c.Extra = extra(obj)
	return c, d.errs, nil
}

func parseObject(data []byte) (object, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, alerr.Wrap(alerr.ErrDefinitionParse, err, "definition is not valid JSON")
	}
	if obj == nil {
		return nil, alerr.New(alerr.ErrDefinitionParse, "definition must be a JSON object")
	}
	return obj, nil
}

// -----------------------------------------------------------------------------
// Decoder
// -----------------------------------------------------------------------------

// object is a JSON object whose known keys are taken one by one. Whatever
// remains afterwards is passthrough metadata.
type object map[string]json.RawMessage

type decoder struct {
	errs validate.Errors
}

// take removes key from obj and returns its raw value. JSON null counts as absent.
func take(obj object, key string) json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	delete(obj, key)
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func extra(obj object) Extra {
	if len(obj) == 0 {
		return nil
	}
	return Extra(obj)
}

func (d *decoder) mismatch(path, want string) {
	d.errs.Addf(path, alerr.ErrTypeMismatch, "expected %s", want)
}

func (d *decoder) object(path string, raw json.RawMessage) (object, bool) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		d.mismatch(path, "an object")
		return nil, false
	}
	return obj, true
}

func (d *decoder) str(path string, obj object, key string) string {
	raw := take(obj, key)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.mismatch(path, "a string")
	}
	return s
}

func (d *decoder) boolean(path string, obj object, key string) bool {
	p := d.boolPtr(path, obj, key)
	return p != nil && *p
}

func (d *decoder) boolPtr(path string, obj object, key string) *bool {
	raw := take(obj, key)
	if raw == nil {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		d.mismatch(path, "a boolean")
		return nil
	}
	return &b
}

func (d *decoder) float(path string, obj object, key string) *float64 {
	raw := take(obj, key)
	if raw == nil {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		d.mismatch(path, "a number")
		return nil
	}
	return &f
}

func (d *decoder) integer(path string, obj object, key string) *int {
	f := d.float(path, obj, key)
	if f == nil {
		return nil
	}
	if *f != math.Trunc(*f) {
		d.mismatch(path, "an integer")
		return nil
	}
	n := int(*f)
	return &n
}

func (d *decoder) strings(path string, obj object, key string) []string {
	raw := take(obj, key)
	if raw == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		d.mismatch(path, "a list of strings")
		return nil
	}
	return out
}

func (d *decoder) fields(obj object) []Field {
	raw := take(obj, "fields")
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.mismatch("fields", "a list")
		return nil
	}
	fields := make([]Field, 0, len(items))
	for i, item := range items {
		fields = append(fields, d.field(validate.Index("fields", i), item))
	}
	return fields
}

func (d *decoder) field(path string, raw json.RawMessage) Field {
	var f Field
	obj, ok := d.object(path, raw)
	if !ok {
		return f
	}
	at := func(key string) string { return validate.JoinPath(path, key) }

	f.Key = d.str(at("key"), obj, "key")
	f.Label = d.str(at("label"), obj, "label")
	f.Type = FieldType(d.str(at("type"), obj, "type"))
	f.Required = d.boolean(at("required"), obj, "required")
	f.Translatable = d.boolPtr(at("translatable"), obj, "translatable")
	f.Derived = d.boolean(at("derived"), obj, "derived")
	f.Config = d.config(at("config"), f.Type, take(obj, "config"))
	if v := take(obj, "validation"); v != nil {
		f.Validation = d.validation(at("validation"), v)
	}
	f.Extra = extra(obj)
	return f
}

func (d *decoder) settings(path string, raw json.RawMessage) *Settings {
	obj, ok := d.object(path, raw)
	if !ok {
		return nil
	}
	s := &Settings{}
	s.EnableI18n = d.boolPtr(validate.JoinPath(path, "enableI18n"), obj, "enableI18n")
	s.SortField = d.str(validate.JoinPath(path, "sortField"), obj, "sortField")
	s.Extra = extra(obj)
	return s
}

// config decodes the type-specific config. An absent config decodes to the
// zero variant; rule validation reports the variants that need content.
// Unknown types yield nil and are reported by rule validation.
func (d *decoder) config(path string, typ FieldType, raw json.RawMessage) FieldConfig {
	if !typ.Valid() {
		return nil
	}
	obj := object{}
	if raw != nil {
		var ok bool
		if obj, ok = d.object(path, raw); !ok {
			return nil
		}
	}
	at := func(key string) string { return validate.JoinPath(path, key) }

	switch typ {
	case TypeText:
		c := &TextConfig{Multiline: d.boolean(at("multiline"), obj, "multiline")}
		c.Extra = extra(obj)
		return c
	case TypeRich:
		return &RichConfig{Extra: extra(obj)}
	case TypeNumber:
		c := &NumberConfig{Format: d.str(at("format"), obj, "format")}
		c.Extra = extra(obj)
		return c
	case TypeBoolean:
		return &BooleanConfig{Extra: extra(obj)}
	case TypeDate:
		return &DateConfig{Extra: extra(obj)}
	case TypeSelect:
		c := &SelectConfig{}
		c.Options = d.options(at("options"), take(obj, "options"))
		c.Multiple = d.boolean(at("multiple"), obj, "multiple")
		c.Extra = extra(obj)
		return c
	case TypeJSON:
		return &JSONConfig{Extra: extra(obj)}
	case TypeMedia:
		c := &MediaConfig{}
		c.Multiple = d.boolean(at("multiple"), obj, "multiple")
		c.AllowedTypes = d.strings(at("allowedTypes"), obj, "allowedTypes")
		c.Extra = extra(obj)
		return c
	case TypeRelation:
		c := &RelationConfig{}
		c.RelationType = RelationType(d.str(at("relationType"), obj, "relationType"))
		c.TargetModel = d.str(at("targetModel"), obj, "targetModel")
		c.DisplayField = d.str(at("displayField"), obj, "displayField")
		c.Cascade = Cascade(d.str(at("cascade"), obj, "cascade"))
		c.Extra = extra(obj)
		return c
	case TypeComponent:
		c := &ComponentConfig{}
		c.Slug = d.str(at("slug"), obj, "slug")
		c.Repeatable = d.boolean(at("repeatable"), obj, "repeatable")
		if ctx := take(obj, "context"); ctx != nil {
			c.Context = d.context(at("context"), ctx)
		}
		c.Extra = extra(obj)
		return c
	}
	return nil
}

func (d *decoder) options(path string, raw json.RawMessage) []Option {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.mismatch(path, "a list")
		return nil
	}
	opts := make([]Option, 0, len(items))
	for i, item := range items {
		var o Option
		if err := json.Unmarshal(item, &o); err != nil {
			d.mismatch(validate.Index(path, i), "a string or {value, label} object")
			continue
		}
		opts = append(opts, o)
	}
	return opts
}

func (d *decoder) context(path string, raw json.RawMessage) *ComponentContext {
	obj, ok := d.object(path, raw)
	if !ok {
		return nil
	}
	ctx := &ComponentContext{}
	if ab := take(obj, "abTesting"); ab != nil {
		abPath := validate.JoinPath(path, "abTesting")
		if abObj, ok := d.object(abPath, ab); ok {
			ctx.ABTesting = &ABTesting{
				Enabled: d.boolean(validate.JoinPath(abPath, "enabled"), abObj, "enabled"),
			}
			ctx.ABTesting.Extra = extra(abObj)
		}
	}
	ctx.Extra = extra(obj)
	return ctx
}

func (d *decoder) validation(path string, raw json.RawMessage) *Validation {
	obj, ok := d.object(path, raw)
	if !ok {
		return nil
	}
	at := func(key string) string { return validate.JoinPath(path, key) }

	v := &Validation{}
	v.Email = d.boolean(at("email"), obj, "email")
	v.URL = d.boolean(at("url"), obj, "url")
	v.UUID = d.boolean(at("uuid"), obj, "uuid")
	v.CUID = d.boolean(at("cuid"), obj, "cuid")
	v.MinLength = d.integer(at("minLength"), obj, "minLength")
	v.MaxLength = d.integer(at("maxLength"), obj, "maxLength")
	v.Pattern = d.str(at("pattern"), obj, "pattern")
	v.Min = d.float(at("min"), obj, "min")
	v.Max = d.float(at("max"), obj, "max")
	v.Int = d.boolean(at("int"), obj, "int")
	v.Positive = d.boolean(at("positive"), obj, "positive")
	v.Negative = d.boolean(at("negative"), obj, "negative")
	v.MinItems = d.integer(at("minItems"), obj, "minItems")
	v.MaxItems = d.integer(at("maxItems"), obj, "maxItems")
	v.Custom = d.str(at("custom"), obj, "custom")
	v.Extra = extra(obj)
	return v
}
