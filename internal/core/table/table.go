// Package table filters and paginates an in-memory collection for the
// console's list pages. It knows nothing about HTTP or templates.
package table

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a query carries no or an unsupported size.
const DefaultPageSize = 10

// PageSizes are the page sizes a list page offers.
var PageSizes = []int{5, 10, 25, 100}

// Branch is the render branch of a table. Exactly one applies at a time.
type Branch string

const (
	BranchLoading Branch = "loading"
	BranchError   Branch = "error"
	BranchEmpty   Branch = "empty"
	BranchRows    Branch = "rows"
)

// Column describes one rendered column. Align is "left" or "right".
type Column struct {
	Key    string
	Header string
	Align  string
}

// Query is the table state carried by a list request.
type Query struct {
	Search string
	// Searched is the term the current page was computed for. A different
	// Search resets the page to one.
	Searched string
	Page     int
	Size     int
}

// ParseQuery reads q, searched, page and size from values.
func ParseQuery(values url.Values) Query {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("size"))
	return Query{
		Search:   strings.TrimSpace(values.Get("q")),
		Searched: strings.TrimSpace(values.Get("searched")),
		Page:     page,
		Size:     size,
	}.Normalize()
}

// Normalize applies the default size, resets the page on a new search term
// and clamps the page to at least one.
func (q Query) Normalize() Query {
	if !IsPageSize(q.Size) {
		q.Size = DefaultPageSize
	}
	if q.Search != q.Searched {
		q.Page = 1
		q.Searched = q.Search
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Values encodes q for links. Page is overridden by page when positive.
func (q Query) Values(page int) url.Values {
	if page <= 0 {
		page = q.Page
	}
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
		v.Set("searched", q.Search)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(q.Size))
	return v
}

// IsPageSize reports whether size is one of PageSizes.
func IsPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Page is one rendered page of a collection.
type Page[T any] struct {
	Query Query
	Rows  []T
	// Matched is the number of rows that passed the search, before paging.
	Matched int
	// Total is the size of the unfiltered collection.
	Total     int
	PageCount int
	Branch    Branch
	Err       error
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Query.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Query.Page < p.PageCount }

// First is the 1-based index of the first row on the page, or 0.
func (p Page[T]) First() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return (p.Query.Page-1)*p.Query.Size + 1
}

// Last is the 1-based index of the last row on the page, or 0.
func (p Page[T]) Last() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.First() + len(p.Rows) - 1
}

// Loading returns the placeholder page rendered while rows are fetched.
func Loading[T any](q Query) Page[T] {
	return Page[T]{Query: q.Normalize(), Branch: BranchLoading}
}

// Failed returns the error page for a fetch that failed.
func Failed[T any](q Query, err error) Page[T] {
	return Page[T]{Query: q.Normalize(), Branch: BranchError, Err: err}
}

// Build filters rows by the query's search term and slices out the
// requested page. The page index is clamped into range.
func Build[T any](rows []T, q Query) Page[T] {
	q = q.Normalize()
	matched := Filter(rows, q.Search)

	pageCount := PageCount(len(matched), q.Size)
	if pageCount > 0 && q.Page > pageCount {
		q.Page = pageCount
	}

	p := Page[T]{
		Query:     q,
		Matched:   len(matched),
		Total:     len(rows),
		PageCount: pageCount,
	}
	if len(matched) == 0 {
		p.Rows = []T{}
		p.Branch = BranchEmpty
		return p
	}

	start := (q.Page - 1) * q.Size
	end := start + q.Size
	if end > len(matched) {
		end = len(matched)
	}
	p.Rows = matched[start:end]
	p.Branch = BranchRows
	return p
}

// PageCount is ceil(matched / size).
func PageCount(matched, size int) int {
	if size <= 0 || matched <= 0 {
		return 0
	}
	return (matched + size - 1) / size
}

// Filter returns the rows with at least one searchable field containing
// term, case-insensitively. An empty term keeps every row.
func Filter[T any](rows []T, term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if Matches(row, term) {
			out = append(out, row)
		}
	}
	return out
}
