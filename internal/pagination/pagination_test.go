package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource[T any] struct {
	items   []T
	fetches int
}

func (s *sliceSource[T]) Count(context.Context) (int, error) { return len(s.items), nil }

func (s *sliceSource[T]) Fetch(_ context.Context, offset, limit int) ([]T, error) {
	s.fetches++
	end := min(offset+limit, len(s.items))
	return append([]T(nil), s.items[offset:end]...), nil
}

// strategies runs every assertion against both the in-memory and the query path.
func strategies[T any](t *testing.T, all []T, p Params) map[string]Page[T] {
	t.Helper()
	fromSlice, err := FromSlice(all, p)
	require.NoError(t, err)
	fromQuery, err := FromQuery[T](t.Context(), &sliceSource[T]{items: all}, p)
	require.NoError(t, err)
	return map[string]Page[T]{"slice": fromSlice, "query": fromQuery}
}

func TestPaginate_Example(t *testing.T) {
	posts := []string{"A", "B", "C", "D", "E"}
	for name, page := range strategies(t, posts, Params{Page: 2, Size: 2}) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []string{"C", "D"}, page.Items)
			assert.Equal(t, 5, page.TotalCount)
			assert.Equal(t, 3, page.TotalPages)
			assert.True(t, page.HasPrevious)
			assert.Equal(t, 1, page.PreviousPage)
			assert.True(t, page.HasNext)
			assert.Equal(t, 3, page.NextPage)
		})
	}
}

func TestPaginate_Edges(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		p         Params
		wantItems []int
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{"empty", 0, Params{Page: 1, Size: 3}, []int{}, 0, false, false},
		{"past the end", 4, Params{Page: 5, Size: 2}, []int{}, 2, true, false},
		{"last partial page", 5, Params{Page: 3, Size: 2}, []int{4}, 3, true, false},
		{"single page", 2, Params{Page: 1, Size: 10}, []int{0, 1}, 1, false, false},
		{"first of many", 7, Params{Page: 1, Size: 3}, []int{0, 1, 2}, 3, false, true},
	}

	for _, tt := range tests {
		all := make([]int, tt.n)
		for i := range all {
			all[i] = i
		}
		for name, page := range strategies(t, all, tt.p) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				assert.Equal(t, tt.wantItems, page.Items)
				assert.Equal(t, tt.n, page.TotalCount)
				assert.Equal(t, tt.wantPages, page.TotalPages)
				assert.Equal(t, tt.wantPrev, page.HasPrevious)
				assert.Equal(t, tt.wantNext, page.HasNext)
				if !page.HasNext {
					assert.Zero(t, page.NextPage)
				}
				if !page.HasPrevious {
					assert.Zero(t, page.PreviousPage)
				}
			})
		}
	}
}

func TestPaginate_PagesReassembleInput(t *testing.T) {
	for n := 0; n <= 13; n++ {
		all := make([]int, n)
		for i := range all {
			all[i] = i * 10
		}
		for size := 1; size <= 6; size++ {
			wantPages := (n + size - 1) / size

			for _, strategy := range []string{"slice", "query"} {
				var joined []int
				for page := 1; page <= wantPages; page++ {
					got := strategies(t, all, Params{Page: page, Size: size})[strategy]
					require.Equal(t, wantPages, got.TotalPages, "n=%d size=%d", n, size)
					joined = append(joined, got.Items...)
				}
				if n == 0 {
					assert.Empty(t, joined)
					continue
				}
				assert.Equal(t, all, joined, "n=%d size=%d strategy=%s", n, size, strategy)
			}
		}
	}
}

func TestPaginate_InvalidParams(t *testing.T) {
	for _, p := range []Params{{Page: 0, Size: 1}, {Page: 1, Size: 0}, {Page: -1, Size: -1}} {
		_, err := FromSlice([]int{1}, p)
		assert.ErrorIs(t, err, ErrInvalidParams)
		_, err = FromQuery[int](t.Context(), &sliceSource[int]{}, p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	}
}

func TestFromQuery_SkipsFetchPastTheEnd(t *testing.T) {
	src := &sliceSource[int]{items: []int{1, 2, 3}}
	page, err := FromQuery[int](t.Context(), src, Params{Page: 9, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, src.fetches)
}

func TestFromQuery_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := FromQuery[int](t.Context(), SourceFuncs[int]{
		CountFunc: func(context.Context) (int, error) { return 0, boom },
	}, Params{Page: 1, Size: 1})
	assert.ErrorIs(t, err, boom)

	_, err = FromQuery[int](t.Context(), SourceFuncs[int]{
		CountFunc: func(context.Context) (int, error) { return 3, nil },
		FetchFunc: func(context.Context, int, int) ([]int, error) { return nil, boom },
	}, Params{Page: 1, Size: 1})
	assert.ErrorIs(t, err, boom)
}
