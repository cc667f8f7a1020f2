package types

// PageMeta describes the page returned by a page based list call
type PageMeta struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalItems      int  `json:"total_items"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

// ListResponse represents a paginated response with items
type ListResponse[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// NewPageMeta computes page navigation metadata from the total row count
func NewPageMeta(total, page, limit int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{
		Page:            page,
		Limit:           limit,
		TotalItems:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// NewListResponse creates a new list response with pagination
func NewListResponse[T any](items []T, total, page, limit int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items: items,
		Meta:  NewPageMeta(total, page, limit),
	}
}
