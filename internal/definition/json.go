package definition

import (
	"encoding/json"
	"fmt"
)

// withExtra marshals v and folds in passthrough keys. Known keys win.
func withExtra(v any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := m[k]; !ok {
			m[k] = raw
		}
	}
	return json.Marshal(m)
}

func (m Model) MarshalJSON() ([]byte, error) {
	type plain Model
	return withExtra(plain(m), m.Extra)
}

func (s Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	return withExtra(plain(s), s.Extra)
}

func (c Component) MarshalJSON() ([]byte, error) {
	type plain Component
	return withExtra(plain(c), c.Extra)
}

func (f Field) MarshalJSON() ([]byte, error) {
	type plain Field
	return withExtra(plain(f), f.Extra)
}

func (v Validation) MarshalJSON() ([]byte, error) {
	type plain Validation
	return withExtra(plain(v), v.Extra)
}

func (c TextConfig) MarshalJSON() ([]byte, error) {
	type plain TextConfig
	return withExtra(plain(c), c.Extra)
}

func (c RichConfig) MarshalJSON() ([]byte, error) {
	return withExtra(struct{}{}, c.Extra)
}

func (c NumberConfig) MarshalJSON() ([]byte, error) {
	type plain NumberConfig
	return withExtra(plain(c), c.Extra)
}

func (c BooleanConfig) MarshalJSON() ([]byte, error) {
	return withExtra(struct{}{}, c.Extra)
}

func (c DateConfig) MarshalJSON() ([]byte, error) {
	return withExtra(struct{}{}, c.Extra)
}

func (c SelectConfig) MarshalJSON() ([]byte, error) {
	type plain SelectConfig
	return withExtra(plain(c), c.Extra)
}

func (c JSONConfig) MarshalJSON() ([]byte, error) {
	return withExtra(struct{}{}, c.Extra)
}

func (c MediaConfig) MarshalJSON() ([]byte, error) {
	type plain MediaConfig
	return withExtra(plain(c), c.Extra)
}

func (c RelationConfig) MarshalJSON() ([]byte, error) {
	type plain RelationConfig
	return withExtra(plain(c), c.Extra)
}

func (c ComponentConfig) MarshalJSON() ([]byte, error) {
	type plain ComponentConfig
	return withExtra(plain(c), c.Extra)
}

func (c ComponentContext) MarshalJSON() ([]byte, error) {
	type plain ComponentContext
	return withExtra(plain(c), c.Extra)
}

func (a ABTesting) MarshalJSON() ([]byte, error) {
	type plain ABTesting
	return withExtra(plain(a), a.Extra)
}

// UnmarshalJSON accepts either "value" or {"value": ..., "label": ...}.
func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = Option{Value: s, Label: s, short: true}
		return nil
	}
	var obj struct {
		Value *string `json:"value"`
		Label string  `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Value == nil {
		return fmt.Errorf("option requires a value")
	}
	*o = Option{Value: *obj.Value, Label: obj.Label}
	return nil
}

// MarshalJSON writes the option back in the form it was read.
func (o Option) MarshalJSON() ([]byte, error) {
	if o.short {
		return json.Marshal(o.Value)
	}
	return json.Marshal(struct {
		Value string `json:"value"`
		Label string `json:"label,omitempty"`
	}{o.Value, o.Label})
}
