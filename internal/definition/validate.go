package definition

import (
	"fmt"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/validate"
)

// ValidateModel checks every rule on a decoded model and returns all issues.
func ValidateModel(m *Model) validate.Errors {
	var errs validate.Errors
	errs.AddErr("slug", validate.Slug(m.Slug))
	validateFields(&errs, m.Fields, false)

	if m.Settings != nil && m.Settings.SortField != "" {
		sf := m.Settings.SortField
		if !m.HasField(sf) && !validate.IsSystemKey(sf) {
			errs.Addf("settings.sortField", alerr.ErrInvalidSetting,
				"sort field '%s' is not a declared field", sf)
		}
	}
	return errs
}

// ValidateComponent checks every rule on a decoded component.
func ValidateComponent(c *Component) validate.Errors {
	var errs validate.Errors
	errs.AddErr("slug", validate.Slug(c.Slug))
	validateFields(&errs, c.Fields, true)
	return errs
}

func validateFields(errs *validate.Errors, fields []Field, inComponent bool) {
	if len(fields) == 0 {
		errs.Add("fields", alerr.ErrRequiredValue, "at least one field is required")
		return
	}

	seen := make(map[string]int, len(fields))
	for i := range fields {
		f := &fields[i]
		path := validate.Index("fields", i)
		keyPath := validate.JoinPath(path, "key")

		if err := validate.Key(f.Key); err != nil {
			errs.AddErr(keyPath, err)
		} else if err := validate.ReservedKey(f.Key, inComponent); err != nil {
			errs.AddErr(keyPath, err)
		} else if first, dup := seen[f.Key]; dup {
			errs.Addf(keyPath, alerr.ErrDuplicateKey, "duplicate key '%s' (first declared at fields[%d])", f.Key, first)
		} else {
			seen[f.Key] = i
		}

		validateField(errs, path, f, inComponent)
	}
}

func validateField(errs *validate.Errors, path string, f *Field, inComponent bool) {
	at := func(key string) string { return validate.JoinPath(path, key) }

	if f.Type == "" {
		errs.Add(at("type"), alerr.ErrRequiredValue, "type is required")
		return
	}
	if !f.Type.Valid() {
		msg := fmt.Sprintf("unknown field type '%s'", f.Type)
		if s := alerr.SuggestFieldType(string(f.Type), FieldTypeNames()); s != "" {
			msg += " (" + s + ")"
		}
		errs.Add(at("type"), alerr.ErrInvalidType, msg)
		return
	}

	if f.Config == nil {
		switch f.Type {
		case TypeRelation:
			errs.Add(at("config"), alerr.ErrInvalidConfig, "relation fields require relationType and targetModel")
		case TypeSelect:
			errs.Add(at("config.options"), alerr.ErrInvalidConfig, "select fields require a non-empty options list")
		case TypeComponent:
			errs.Add(at("config.slug"), alerr.ErrInvalidConfig, "component fields require a component slug")
		}
	} else if f.Config.FieldType() != f.Type {
		errs.Addf(at("config"), alerr.ErrInvalidConfig,
			"config is for type '%s' but field type is '%s'", f.Config.FieldType(), f.Type)
		return
	}

	switch c := f.Config.(type) {
	case *RelationConfig:
		validateRelation(errs, at("config"), c)
	case *SelectConfig:
		if len(c.Options) == 0 {
			errs.Add(at("config.options"), alerr.ErrInvalidConfig, "select fields require a non-empty options list")
		}
	case *NumberConfig:
		if c.Format != "" && c.Format != "integer" && c.Format != "float" {
			errs.Addf(at("config.format"), alerr.ErrInvalidConfig, "number format must be 'integer' or 'float', got '%s'", c.Format)
		}
	case *ComponentConfig:
		if inComponent {
			errs.Add(at("type"), alerr.ErrInvalidType, "components cannot embed other components")
		}
		if c.Slug == "" {
			errs.Add(at("config.slug"), alerr.ErrInvalidConfig, "component fields require a component slug")
		} else {
			errs.AddErr(at("config.slug"), validate.Slug(c.Slug))
		}
	}

	if f.Validation != nil {
		validateRules(errs, at("validation"), f.Validation)
	}
}

func validateRelation(errs *validate.Errors, path string, c *RelationConfig) {
	at := func(key string) string { return validate.JoinPath(path, key) }

	switch {
	case c.RelationType == "":
		errs.Add(at("relationType"), alerr.ErrRequiredValue, "relationType is required")
	case !c.RelationType.Valid():
		errs.Addf(at("relationType"), alerr.ErrInvalidConfig,
			"relationType must be one of oneToOne, manyToOne, oneToMany, manyToMany, got '%s'", c.RelationType)
	}
	if c.TargetModel == "" {
		errs.Add(at("targetModel"), alerr.ErrRequiredValue, "targetModel is required")
	}
	if !c.Cascade.Valid() {
		errs.Addf(at("cascade"), alerr.ErrInvalidConfig,
			"cascade must be one of restrict, cascade, setNull, got '%s'", c.Cascade)
	}
}

func validateRules(errs *validate.Errors, path string, v *Validation) {
	at := func(key string) string { return validate.JoinPath(path, key) }

	for _, n := range []struct {
		key string
		val *int
	}{
		{"minLength", v.MinLength},
		{"maxLength", v.MaxLength},
		{"minItems", v.MinItems},
		{"maxItems", v.MaxItems},
	} {
		if n.val != nil && *n.val < 0 {
			errs.Addf(at(n.key), alerr.ErrInvalidConfig, "%s must not be negative", n.key)
		}
	}
	if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
		errs.Add(at("minLength"), alerr.ErrInvalidConfig, "minLength is greater than maxLength")
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		errs.Add(at("min"), alerr.ErrInvalidConfig, "min is greater than max")
	}
	if v.Positive && v.Negative {
		errs.Add(at("positive"), alerr.ErrInvalidConfig, "positive and negative are mutually exclusive")
	}
}
