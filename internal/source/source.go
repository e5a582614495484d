// Package source reads raw model and component definitions from one of
// the supported inputs (a SQL table, in-memory objects, or a loader
// function) and turns them into validated definitions.
package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hlop3z/eavforge/internal/alerr"
	"github.com/hlop3z/eavforge/internal/definition"
)

// Row is one stored definition: its identity plus the JSON payload.
type Row struct {
	ID         string
	Slug       string
	Definition []byte
}

// Raw holds every row fetched in one read.
type Raw struct {
	Models     []Row
	Components []Row
}

// Reader fetches all definition rows in a single batch.
type Reader interface {
	Read(ctx context.Context) (*Raw, error)
}

// LoadFunc adapts a function to Reader.
type LoadFunc func(ctx context.Context) (*Raw, error)

// Read calls f.
func (f LoadFunc) Read(ctx context.Context) (*Raw, error) {
	return f(ctx)
}

// Direct serves definitions given in memory, such as inline config entries.
type Direct struct {
	Models     []map[string]any
	Components []map[string]any
}

// Read encodes every object as a row. Row ids are 1-based positions.
func (d Direct) Read(context.Context) (*Raw, error) {
	models, err := rowsFromMaps(d.Models)
	if err != nil {
		return nil, err
	}
	components, err := rowsFromMaps(d.Components)
	if err != nil {
		return nil, err
	}
	return &Raw{Models: models, Components: components}, nil
}

func rowsFromMaps(objs []map[string]any) ([]Row, error) {
	rows := make([]Row, 0, len(objs))
	for i, obj := range objs {
		id := fmt.Sprint(i + 1)
		slug, _ := obj["slug"].(string)
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrDefinitionParse, err, "definition is not JSON-encodable").
				WithRow(id, slug)
		}
		rows = append(rows, Row{ID: id, Slug: slug, Definition: data})
	}
	return rows, nil
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

// Entry is a row decoded into a generic object, ready for mapping.
type Entry struct {
	ID   string
	Slug string
	Data map[string]any
}

// Decode parses each row's JSON payload. A malformed payload fails the
// whole read and names the offending row.
func Decode(rows []Row) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		var data map[string]any
		if err := json.Unmarshal(row.Definition, &data); err != nil {
			return nil, alerr.Wrap(alerr.ErrDefinitionParse, err, "stored definition is not valid JSON").
				WithRow(row.ID, row.Slug)
		}
		if data == nil {
			return nil, alerr.New(alerr.ErrDefinitionParse, "stored definition must be a JSON object").
				WithRow(row.ID, row.Slug)
		}
		// The row's slug column fills a payload that omits it.
		if _, ok := data["slug"]; !ok && row.Slug != "" {
			data["slug"] = row.Slug
		}
		entries = append(entries, Entry{ID: row.ID, Slug: row.Slug, Data: data})
	}
	return entries, nil
}

// Models validates entries as model definitions. Slugs must be unique.
func Models(entries []Entry) ([]*definition.Model, error) {
	out := make([]*definition.Model, 0, len(entries))
	seen := map[string]string{}
	for _, e := range entries {
		m, err := definition.ModelFromMap(e.Data)
		if err != nil {
			return nil, withRow(err, e)
		}
		if prev, dup := seen[m.Slug]; dup {
			return nil, alerr.Newf(alerr.ErrDuplicateSlug, "model slug '%s' is defined more than once", m.Slug).
				WithRow(e.ID, m.Slug).
				WithNote("first defined in row " + prev)
		}
		seen[m.Slug] = e.ID
		out = append(out, m)
	}
	return out, nil
}

// Components validates entries as component definitions. Slugs must be unique.
func Components(entries []Entry) ([]*definition.Component, error) {
	out := make([]*definition.Component, 0, len(entries))
	seen := map[string]string{}
	for _, e := range entries {
		c, err := definition.ComponentFromMap(e.Data)
		if err != nil {
			return nil, withRow(err, e)
		}
		if prev, dup := seen[c.Slug]; dup {
			return nil, alerr.Newf(alerr.ErrDuplicateSlug, "component slug '%s' is defined more than once", c.Slug).
				WithRow(e.ID, c.Slug).
				WithNote("first defined in row " + prev)
		}
		seen[c.Slug] = e.ID
		out = append(out, c)
	}
	return out, nil
}

func withRow(err error, e Entry) error {
	if ae, ok := err.(*alerr.Error); ok {
		return ae.WithRow(e.ID, e.Slug)
	}
	return alerr.Wrap(alerr.ErrDefinitionInvalid, err, "invalid definition").WithRow(e.ID, e.Slug)
}
