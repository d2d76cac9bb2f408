package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds pagination metadata, deriving the page count from total and limit.
func NewPagination(page, limit, total int) *Pagination {
	p := &Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 && total > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

// NormalizePage clamps page and size to the defaults shared by every list endpoint.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
