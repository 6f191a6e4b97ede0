// Package domain holds primitives shared by every ledger component.
package domain

import (
	"time"
)

const (
	DefaultLimit = 10
	MaxLimit     = 500
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search is matched case-insensitively against each list's searchable fields
	Search string

	// From and To bound the list's primary timestamp (inclusive)
	From *time.Time
	To   *time.Time

	// Pagination
	Limit  int
	Offset int
}

// PageFilter builds a filter from 1-based page numbers as used by the HTTP layer.
func PageFilter(page, limit int) ListFilter {
	f := ListFilter{Limit: limit}
	f.Normalize()
	if page > 1 {
		f.Offset = (page - 1) * f.Limit
	}
	return f
}

// Normalize clamps Limit and Offset into accepted ranges.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// TotalPages returns the number of pages at the result's limit.
func (r ListResult[T]) TotalPages() int {
	if r.Limit <= 0 {
		return 0
	}
	return int((r.TotalCount + int64(r.Limit) - 1) / int64(r.Limit))
}

// CurrentPage returns the 1-based page of the result.
func (r ListResult[T]) CurrentPage() int {
	if r.Limit <= 0 {
		return 1
	}
	return r.Offset/r.Limit + 1
}
