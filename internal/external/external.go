// Package external loads table definitions from pre-existing schema files
// so generated relations can point at them. External tables always come
// before generated ones in the output.
package external

import (
	"fmt"
	"slices"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/ast"
)

// Source is one external schema file with optional name filters.
type Source struct {
	Path    string   `yaml:"path" toml:"path" json:"path"`
	Include []string `yaml:"include,omitempty" toml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Filter applies Include, then Exclude, by exact table name.
func (s Source) Filter(tables []*ast.Table) []*ast.Table {
	out := make([]*ast.Table, 0, len(tables))
	for _, t := range tables {
		if len(s.Include) > 0 && !slices.Contains(s.Include, t.Name) {
			continue
		}
		if slices.Contains(s.Exclude, t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LoadFunc loads the tables of one schema file.
type LoadFunc func(path string) ([]*ast.Table, error)

// Result is the outcome of merging all sources.
type Result struct {
	Tables   []*ast.Table
	Warnings []string
}

// Names returns the set of loaded table names.
func (r *Result) Names() map[string]bool {
	names := make(map[string]bool, len(r.Tables))
	for _, t := range r.Tables {
		names[t.Name] = true
	}
	return names
}

// Merge loads every source in order and concatenates the filtered tables.
// A source that fails to load contributes nothing and adds a warning.
// A nil load uses ParseFile.
func Merge(sources []Source, load LoadFunc) *Result {
	if load == nil {
		load = ParseFile
	}
	res := &Result{}
	for _, src := range sources {
		tables, err := load(src.Path)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("external models from '%s' were skipped: %s", src.Path, message(err)))
			continue
		}
		res.Tables = append(res.Tables, src.Filter(tables)...)
	}
	return res
}

func message(err error) string {
	if e, ok := err.(*alerr.Error); ok && e.GetCause() != nil {
		return e.GetMessage() + ": " + e.GetCause().Error()
	}
	return err.Error()
}

// ParseSources normalizes the accepted config shapes: a path string, a
// descriptor map, or a list mixing both.
func ParseSources(v any) ([]Source, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []Source{{Path: val}}, nil
	case Source:
		return []Source{val}, nil
	case []Source:
		return val, nil
	case []string:
		out := make([]Source, len(val))
		for i, p := range val {
			out[i] = Source{Path: p}
		}
		return out, nil
	case map[string]any:
		s, err := sourceFromMap(val)
		if err != nil {
			return nil, err
		}
		return []Source{s}, nil
	case []any:
		var out []Source
		for i, item := range val {
			srcs, err := ParseSources(item)
			if err != nil {
				return nil, alerr.Wrapf(alerr.ErrConfigInvalid, err, "invalid externalModels entry %d", i)
			}
			out = append(out, srcs...)
		}
		return out, nil
	}
	return nil, alerr.New(alerr.ErrConfigInvalid, "externalModels must be a path, a {path, include, exclude} object, or a list of those").
		With("got", fmt.Sprintf("%T", v))
}

func sourceFromMap(m map[string]any) (Source, error) {
	var s Source
	path, ok := m["path"].(string)
	if !ok || path == "" {
		return s, alerr.New(alerr.ErrConfigInvalid, "external model descriptor requires a path")
	}
	s.Path = path

	var err error
	if s.Include, err = stringList(m["include"], "include"); err != nil {
		return s, err
	}
	if s.Exclude, err = stringList(m["exclude"], "exclude"); err != nil {
		return s, err
	}
	return s, nil
}

func stringList(v any, key string) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, alerr.Newf(alerr.ErrConfigInvalid, "%s entries must be strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, alerr.Newf(alerr.ErrConfigInvalid, "%s must be a list of table names", key)
}
