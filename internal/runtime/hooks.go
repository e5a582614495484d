package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/source"
)

// Hook function names looked up in the script's global scope.
const (
	HookLoad         = "load"
	HookMapModel     = "mapModel"
	HookMapComponent = "mapComponent"
)

// Hooks holds the functions a hook script defines. Any subset may be present.
type Hooks struct {
	sb           *Sandbox
	load         goja.Callable
	mapModel     goja.Callable
	mapComponent goja.Callable
}

// LoadHooks evaluates the script at path and collects its hook functions.
func LoadHooks(path string, timeout time.Duration, logger Logger) (*Hooks, error) {
	sb := NewSandbox()
	sb.SetTimeout(timeout)
	sb.SetLogger(logger)
	if err := sb.RunFile(path); err != nil {
		return nil, err
	}
	return collect(sb)
}

// NewHooks evaluates code directly.
func NewHooks(code string) (*Hooks, error) {
	sb := NewSandbox()
	if err := sb.Run(code); err != nil {
		return nil, err
	}
	return collect(sb)
}

func collect(sb *Sandbox) (*Hooks, error) {
	h := &Hooks{
		sb:           sb,
		load:         sb.Function(HookLoad),
		mapModel:     sb.Function(HookMapModel),
		mapComponent: sb.Function(HookMapComponent),
	}
	if h.load == nil && h.mapModel == nil && h.mapComponent == nil {
		e := alerr.New(alerr.ErrJSExecution, "hook script defines none of load, mapModel, mapComponent").
			WithHelp("declare at least one of: function load(), function mapModel(row), function mapComponent(row)")
		if sb.file != "" {
			e.WithFile(sb.file, 0)
		}
		return nil, e
	}
	return h, nil
}

// SetTimeout changes the per-call timeout.
func (h *Hooks) SetTimeout(d time.Duration) {
	h.sb.SetTimeout(d)
}

// HasLoader reports whether the script defines load().
func (h *Hooks) HasLoader() bool { return h.load != nil }

// HasMapper reports whether the script defines either mapper.
func (h *Hooks) HasMapper() bool { return h.mapModel != nil || h.mapComponent != nil }

// Read calls load() and converts its {models, components} result to rows.
// Entries may be definition objects, JSON strings, or stored rows shaped
// {id, slug, definition}.
func (h *Hooks) Read(ctx context.Context) (*source.Raw, error) {
	if h.load == nil {
		return nil, alerr.New(alerr.ErrMissingSource, "hook script does not define load()")
	}

	v, err := h.sb.Call(ctx, HookLoad, h.load)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrMapperFailed, err, "load hook failed")
	}

	out, ok := v.(map[string]any)
	if !ok {
		return nil, alerr.Newf(alerr.ErrMapperFailed, "load() must return an object with a models array, got %T", v)
	}

	raw := &source.Raw{}
	if raw.Models, err = rowsFrom(out["models"], "models"); err != nil {
		return nil, err
	}
	if raw.Components, err = rowsFrom(out["components"], "components"); err != nil {
		return nil, err
	}
	return raw, nil
}

func rowsFrom(v any, name string) ([]source.Row, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, alerr.Newf(alerr.ErrMapperFailed, "load() result %s must be an array, got %T", name, v)
	}

	rows := make([]source.Row, 0, len(items))
	for i, item := range items {
		id := fmt.Sprint(i + 1)
		switch it := item.(type) {
		case string:
			rows = append(rows, source.Row{ID: id, Definition: []byte(it)})
		case map[string]any:
			row, err := rowFromObject(id, it)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		default:
			return nil, alerr.Newf(alerr.ErrMapperFailed, "load() result %s[%d] must be an object or JSON string, got %T", name, i, item)
		}
	}
	return rows, nil
}

func rowFromObject(id string, obj map[string]any) (source.Row, error) {
	slug, _ := obj["slug"].(string)

	// A stored row: definition holds the payload, other keys are metadata.
	if def, ok := obj["definition"]; ok {
		if rid, ok := obj["id"]; ok {
			id = fmt.Sprint(rid)
		}
		switch d := def.(type) {
		case string:
			return source.Row{ID: id, Slug: slug, Definition: []byte(d)}, nil
		default:
			data, err := json.Marshal(d)
			if err != nil {
				return source.Row{}, alerr.Wrap(alerr.ErrDefinitionParse, err, "row definition is not JSON-encodable").WithRow(id, slug)
			}
			return source.Row{ID: id, Slug: slug, Definition: data}, nil
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return source.Row{}, alerr.Wrap(alerr.ErrDefinitionParse, err, "definition is not JSON-encodable").WithRow(id, slug)
	}
	return source.Row{ID: id, Slug: slug, Definition: data}, nil
}

// MapModel passes row through mapModel(row), or returns it unchanged.
func (h *Hooks) MapModel(ctx context.Context, row map[string]any) (map[string]any, error) {
	return h.apply(ctx, HookMapModel, h.mapModel, row)
}

// MapComponent passes row through mapComponent(row), or returns it unchanged.
func (h *Hooks) MapComponent(ctx context.Context, row map[string]any) (map[string]any, error) {
	return h.apply(ctx, HookMapComponent, h.mapComponent, row)
}

func (h *Hooks) apply(ctx context.Context, name string, fn goja.Callable, row map[string]any) (map[string]any, error) {
	if fn == nil {
		return row, nil
	}

	v, err := h.sb.Call(ctx, name, fn, row)
	if err != nil {
		return nil, alerr.Wrapf(alerr.ErrMapperFailed, err, "%s hook failed", name).With("hook", name)
	}
	if v == nil {
		return row, nil
	}

	out, ok := v.(map[string]any)
	if !ok {
		return nil, alerr.Newf(alerr.ErrMapperFailed, "%s() must return an object, got %T", name, v).With("hook", name)
	}
	return out, nil
}

var (
	_ source.Reader = (*Hooks)(nil)
	_ source.Mapper = (*Hooks)(nil)
)
