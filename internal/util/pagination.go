package util

import "strconv"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

type Meta struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Window cuts [(page-1)*size, page*size) out of items. A page past the end
// yields an empty slice, not an error.
func Window[T any](items []T, page, size int) ([]T, Meta) {
	if page < 1 {
		page = 1
	}
	from, limit := Calculate(page, size)
	total := len(items)
	meta := Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
		HasPrev:    page > 1,
		HasNext:    from+limit < total,
	}
	if from >= total {
		return []T{}, meta
	}
	to := from + limit
	if to > total {
		to = total
	}
	return items[from:to], meta
}
