// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"fueldesk/internal/domain"
)

// --- Pagination ---

// ListQuery holds the shared list parameters.
type ListQuery struct {
	Page   int        `form:"page" binding:"omitempty,min=1"`
	Limit  int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Search string     `form:"search"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Filter converts the query to a domain filter.
func (q ListQuery) Filter() domain.ListFilter {
	f := domain.PageFilter(q.Page, q.Limit)
	f.Search = q.Search
	f.From = q.From
	f.To = q.To
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewListResponse builds the response for a domain list result.
func NewListResponse[T any](r domain.ListResult[T]) ListResponse[T] {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Page:       r.CurrentPage(),
		Limit:      r.Limit,
		TotalPages: r.TotalPages(),
	}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
