// Package ast defines the in-memory schema produced by compilation: a
// datasource, generator blocks, and tables made of columns. It is the only
// input the serializer sees and the only output the external-schema parser
// produces.
package ast

import (
	"slices"
	"strings"
)

// Datasource is the connection block of a schema.
type Datasource struct {
	Provider  string // "postgresql", "mysql", "sqlite", ...
	URL       string // Literal URL or env("VAR") reference
	DirectURL string // Optional secondary URL, same rules as URL
}

// IsEnvReference reports whether a URL is an env("VAR") expression, which
// renders unquoted.
func IsEnvReference(url string) bool {
	return strings.HasPrefix(url, "env(") && strings.HasSuffix(url, ")")
}

// Generator is a code generator block.
type Generator struct {
	Name     string
	Provider string
	Output   string
	Config   map[string]any // Free-form entries, rendered in key order
}

// ConfigKeys returns the generator config keys sorted.
func (g Generator) ConfigKeys() []string {
	keys := make([]string, 0, len(g.Config))
	for k := range g.Config {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Schema is a complete output schema.
type Schema struct {
	Datasource Datasource
	Generators []Generator
	Tables     []*Table
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TableNames returns all table names in order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}
