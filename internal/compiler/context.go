// Package compiler turns validated model and component definitions into
// output tables. Every builder here is pure and deterministic: the same
// definition translated twice yields identical columns.
package compiler

import (
	"github.com/hlop3z/eavforge/internal/definition"
	"github.com/hlop3z/eavforge/internal/naming"
)

// MediaTable is the external table name that turns multi-valued media
// fields into list relations.
const MediaTable = "Media"

// Context carries the read-only inputs shared by every builder in one run.
type Context struct {
	Naming     naming.Resolver
	I18n       bool                             // Global i18n switch
	ABTesting  bool                             // Default for embeddings without an abTesting context
	External   map[string]bool                  // Names of externally defined tables
	Components map[string]*definition.Component // Component definitions by slug
}

// NewContext returns a context with default naming and empty lookups.
func NewContext() *Context {
	return &Context{
		Naming:     naming.DefaultResolver(),
		External:   map[string]bool{},
		Components: map[string]*definition.Component{},
	}
}

// HasExternal reports whether name is an externally defined table.
func (c *Context) HasExternal(name string) bool {
	return c.External[name]
}

// Component looks up a component by slug.
func (c *Context) Component(slug string) (*definition.Component, bool) {
	comp, ok := c.Components[slug]
	return comp, ok
}

// ComponentSlugs returns the known component slugs, for suggestions.
func (c *Context) ComponentSlugs() []string {
	slugs := make([]string, 0, len(c.Components))
	for slug := range c.Components {
		slugs = append(slugs, slug)
	}
	return slugs
}

// TargetTable resolves a relation target to a table name. A target that
// names an external table is used verbatim.
func (c *Context) TargetTable(target string) string {
	if c.HasExternal(target) {
		return target
	}
	return c.Naming.Table(target)
}

// col is shorthand for column casing.
func (c *Context) col(name string) string {
	return c.Naming.Column(name)
}
