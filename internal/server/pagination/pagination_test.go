package pagination

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policy = Policy{DefaultPageSize: 20, MaxPageSize: 100}

// sliceQuery pages over an in-memory slice and records Fetch calls.
type sliceQuery struct {
	items   []int
	fetches int
}

func (q *sliceQuery) Count(context.Context) (int, error) { return len(q.items), nil }

func (q *sliceQuery) Fetch(_ context.Context, limit, offset int) ([]int, error) {
	q.fetches++
	if offset >= len(q.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(q.items) {
		end = len(q.items)
	}
	return q.items[offset:end], nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Request
		want    Request
		wantErr []string
	}{
		{name: "defaults", in: Request{}, want: Request{Page: 1, PageSize: 20}},
		{name: "explicit", in: Request{Page: 3, PageSize: 5}, want: Request{Page: 3, PageSize: 5}},
		{name: "max allowed", in: Request{Page: 1, PageSize: 100}, want: Request{Page: 1, PageSize: 100}},
		{name: "negative page", in: Request{Page: -1}, wantErr: []string{"page"}},
		{name: "negative size", in: Request{PageSize: -5}, wantErr: []string{"pageSize"}},
		{name: "too large", in: Request{PageSize: 101}, wantErr: []string{"pageSize"}},
		{name: "both", in: Request{Page: -2, PageSize: 1000}, wantErr: []string{"page", "pageSize"}},
		{name: "last addressable page", in: Request{Page: MaxOffset/20 + 1, PageSize: 20}, want: Request{Page: MaxOffset/20 + 1, PageSize: 20}},
		{name: "page past offset range", in: Request{Page: MaxOffset/20 + 2, PageSize: 20}, wantErr: []string{"page"}},
		{name: "huge page with default size", in: Request{Page: math.MaxInt}, wantErr: []string{"page"}},
		{name: "huge page with size 1", in: Request{Page: math.MaxInt, PageSize: 1}, wantErr: []string{"page"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Normalize(tt.in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tt.wantErr {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.wantErr))
		})
	}
}

func TestPaginate_Windows(t *testing.T) {
	q := &sliceQuery{items: seq(45)}

	p, err := Paginate[int](context.Background(), q, Request{Page: 1, PageSize: 20}, policy)
	require.NoError(t, err)
	assert.Equal(t, seq(20), p.Items)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasMore())

	p, err = Paginate[int](context.Background(), q, Request{Page: 3, PageSize: 20}, policy)
	require.NoError(t, err)
	assert.Equal(t, []int{41, 42, 43, 44, 45}, p.Items)
	assert.False(t, p.HasMore())
}

func TestPaginate_PastTheEnd(t *testing.T) {
	q := &sliceQuery{items: seq(5)}

	p, err := Paginate[int](context.Background(), q, Request{Page: 10, PageSize: 5}, policy)
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 10, p.Page)
	assert.False(t, p.HasMore())
	assert.Zero(t, q.fetches)
}

func TestPaginate_Empty(t *testing.T) {
	q := &sliceQuery{}

	p, err := Paginate[int](context.Background(), q, Request{}, policy)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.TotalPages())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

// Every item shows up exactly once when walking all pages.
func TestPaginate_ConcatenationCoversAll(t *testing.T) {
	for _, size := range []int{1, 3, 7, 20, 100} {
		q := &sliceQuery{items: seq(23)}
		var all []int
		for page := 1; ; page++ {
			p, err := Paginate[int](context.Background(), q, Request{Page: page, PageSize: size}, policy)
			require.NoError(t, err)
			all = append(all, p.Items...)
			if !p.HasMore() {
				break
			}
		}
		assert.Equal(t, seq(23), all, "page size %d", size)
	}
}

func TestPaginate_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Paginate[int](context.Background(), QueryFuncs[int]{
		CountFn: func(context.Context) (int, error) { return 0, boom },
	}, Request{}, policy)
	assert.ErrorIs(t, err, boom)

	_, err = Paginate[int](context.Background(), QueryFuncs[int]{
		CountFn: func(context.Context) (int, error) { return 3, nil },
		FetchFn: func(context.Context, int, int) ([]int, error) { return nil, boom },
	}, Request{}, policy)
	assert.ErrorIs(t, err, boom)

	_, err = Paginate[int](context.Background(), &sliceQuery{}, Request{PageSize: 500}, policy)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestPaginate_HugePageNeverFetches(t *testing.T) {
	q := &sliceQuery{items: seq(5)}

	_, err := Paginate[int](context.Background(), q, Request{Page: math.MaxInt, PageSize: 100}, policy)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, q.fetches)
}
