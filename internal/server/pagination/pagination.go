// Package pagination computes page windows over counted, ordered queries.
package pagination

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrijs2005/neuroresume/internal/common"
)

// MaxOffset is the largest row offset a page may start at.
const MaxOffset = math.MaxInt32

// Request is the client-supplied window. Zero values select the defaults.
type Request struct {
	Page     int
	PageSize int
}

// Policy bounds what a Request may ask for.
type Policy struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query is an ordered result set that can be counted and sliced.
type Query[T any] interface {
	Count(ctx context.Context) (int, error)
	Fetch(ctx context.Context, limit, offset int) ([]T, error)
}

// QueryFuncs adapts a pair of closures to Query.
type QueryFuncs[T any] struct {
	CountFn func(ctx context.Context) (int, error)
	FetchFn func(ctx context.Context, limit, offset int) ([]T, error)
}

func (q QueryFuncs[T]) Count(ctx context.Context) (int, error) { return q.CountFn(ctx) }

func (q QueryFuncs[T]) Fetch(ctx context.Context, limit, offset int) ([]T, error) {
	return q.FetchFn(ctx, limit, offset)
}

type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// TotalPages is ceil(Total/PageSize); zero when there is nothing to show.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p Page[T]) HasMore() bool {
	return p.Page < p.TotalPages()
}

// Normalize applies defaults and rejects out-of-range values. Nothing is
// clamped: a request outside the policy is a validation error.
func (pol Policy) Normalize(req Request) (Request, error) {
	verr := &common.ValidationError{}

	if req.Page < 0 {
		verr.Add("page", "must be greater than or equal to 1")
	}
	if req.PageSize < 0 {
		verr.Add("pageSize", "must be greater than or equal to 1")
	} else if req.PageSize > pol.MaxPageSize {
		verr.Add("pageSize", fmt.Sprintf("must be less than or equal to %d", pol.MaxPageSize))
	}
	if len(verr.Fields) > 0 {
		return Request{}, verr
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = pol.DefaultPageSize
	}

	// Offset must not overflow.
	if maxPage := MaxOffset/req.PageSize + 1; req.Page > maxPage {
		return Request{}, common.NewValidationError("page", fmt.Sprintf("must be less than or equal to %d", maxPage))
	}
	return req, nil
}

// Offset is the number of rows preceding the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Paginate counts the query and fetches the requested window. Pages past the
// end come back empty with the real total.
func Paginate[T any](ctx context.Context, q Query[T], req Request, pol Policy) (Page[T], error) {
	req, err := pol.Normalize(req)
	if err != nil {
		return Page[T]{}, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{
		Items:    make([]T, 0),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	offset := req.Offset()
	if offset >= total {
		return page, nil
	}

	items, err := q.Fetch(ctx, req.PageSize, offset)
	if err != nil {
		return Page[T]{}, err
	}
	if items != nil {
		page.Items = items
	}
	return page, nil
}
