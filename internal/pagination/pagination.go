// Package pagination computes page windows and navigation metadata.
package pagination

import (
	"context"
	"errors"
)

// ErrInvalidParams is returned for a page or size below 1.
var ErrInvalidParams = errors.New("page and size must be positive integers")

// Params selects one page. Both fields are 1-based and must be at least 1.
type Params struct {
	Page int
	Size int
}

// Validate checks that Page and Size are at least 1.
func (p Params) Validate() error {
	if p.Page < 1 || p.Size < 1 {
		return ErrInvalidParams
	}
	return nil
}

// Offset returns the index of the first item of the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is one window over an ordered result set.
type Page[T any] struct {
	Items        []T
	Page         int
	Size         int
	TotalCount   int
	TotalPages   int
	HasPrevious  bool
	PreviousPage int // 0 when HasPrevious is false
	HasNext      bool
	NextPage     int // 0 when HasNext is false
}

func newPage[T any](items []T, p Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	page := Page[T]{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		TotalCount: total,
		TotalPages: pages,
	}
	if p.Page > 1 {
		page.HasPrevious = true
		page.PreviousPage = p.Page - 1
	}
	if p.Page < pages {
		page.HasNext = true
		page.NextPage = p.Page + 1
	}
	return page
}

// FromSlice pages an in-memory list. A page past the end yields no items.
func FromSlice[T any](all []T, p Params) (Page[T], error) {
	if err := p.Validate(); err != nil {
		return Page[T]{}, err
	}
	total := len(all)
	start := min(p.Offset(), total)
	end := min(start+p.Size, total)
	return newPage(all[start:end:end], p, total), nil
}

// Source is a result set that can be counted and read by offset and limit.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// FromQuery pages a Source. The window is only fetched when it overlaps the result set.
func FromQuery[T any](ctx context.Context, src Source[T], p Params) (Page[T], error) {
	if err := p.Validate(); err != nil {
		return Page[T]{}, err
	}
	total, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	if p.Offset() >= total {
		return newPage[T](nil, p, total), nil
	}
	items, err := src.Fetch(ctx, p.Offset(), p.Size)
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(items, p, total), nil
}

// SourceFuncs adapts two functions to a Source.
type SourceFuncs[T any] struct {
	CountFunc func(ctx context.Context) (int, error)
	FetchFunc func(ctx context.Context, offset, limit int) ([]T, error)
}

// Count implements Source.
func (s SourceFuncs[T]) Count(ctx context.Context) (int, error) {
	return s.CountFunc(ctx)
}

// Fetch implements Source.
func (s SourceFuncs[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	return s.FetchFunc(ctx, offset, limit)
}
