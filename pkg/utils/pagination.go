package utils

// PaginationParams holds normalized page and limit values.
// A zero limit means unbounded.
type PaginationParams struct {
	Page  int
	Limit int
}

// GetPaginationParams normalizes raw page/limit values. Pages start at 1.
func GetPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	return PaginationParams{Page: page, Limit: limit}
}

// CalculateOffset returns the SQL offset for the page
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
