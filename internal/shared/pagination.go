package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata. A perPage of zero means the
// listing was not limited, which collapses to a single page.
func NewPagination(page, perPage, total int) Pagination {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		return Pagination{Page: 1, PerPage: total, Total: total, TotalPages: 1}
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
