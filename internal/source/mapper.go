package source

import (
	"context"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// Mapper reshapes decoded rows before validation. A nil result keeps the
// row unchanged.
type Mapper interface {
	MapModel(ctx context.Context, row map[string]any) (map[string]any, error)
	MapComponent(ctx context.Context, row map[string]any) (map[string]any, error)
}

// MapFuncs adapts plain functions to Mapper. Either may be nil.
type MapFuncs struct {
	Model     func(ctx context.Context, row map[string]any) (map[string]any, error)
	Component func(ctx context.Context, row map[string]any) (map[string]any, error)
}

// MapModel calls f.Model when set.
func (f MapFuncs) MapModel(ctx context.Context, row map[string]any) (map[string]any, error) {
	if f.Model == nil {
		return row, nil
	}
	return f.Model(ctx, row)
}

// MapComponent calls f.Component when set.
func (f MapFuncs) MapComponent(ctx context.Context, row map[string]any) (map[string]any, error) {
	if f.Component == nil {
		return row, nil
	}
	return f.Component(ctx, row)
}

// Apply runs fn over every entry in order. The first failure stops the
// pass and is reported with the row identity.
func Apply(ctx context.Context, entries []Entry, fn func(context.Context, map[string]any) (map[string]any, error)) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		mapped, err := fn(ctx, e.Data)
		if err != nil {
			if ae, ok := err.(*alerr.Error); ok {
				return nil, ae.WithRow(e.ID, e.Slug)
			}
			return nil, alerr.Wrap(alerr.ErrMapperFailed, err, "mapper failed").WithRow(e.ID, e.Slug)
		}
		if mapped != nil {
			e.Data = mapped
		}
		out = append(out, e)
	}
	return out, nil
}
