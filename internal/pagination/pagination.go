package pagination

import (
	"math"

	"gorm.io/gorm"
)

// Defaults applied when a page is requested without a size.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// PageRequest holds pagination parameters parsed from query strings. A zero
// PageRequest means "everything", which is what list views ask for.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// Requested reports whether the caller asked for a specific page.
func (p PageRequest) Requested() bool {
	return p.Page > 0 || p.PageSize > 0
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps a list of items with paging metadata. Page, PageSize
// and TotalPages are only set for paged results and omitted otherwise.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"page_size,omitempty"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
// An empty result is a single empty page.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 1
	if pageSize > 0 && totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Single wraps an unpaginated result. It carries the item count but no
// paging metadata.
func Single[T any](data []T) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{Data: data, TotalItems: int64(len(data))}
}

// WithData returns p's metadata around different items, such as the API
// representation of the same page.
func WithData[T, U any](p PageResponse[T], data []U) PageResponse[U] {
	if data == nil {
		data = []U{}
	}
	return PageResponse[U]{
		Data:       data,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given
// page request. An unrequested page leaves the query untouched.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !req.Requested() {
			return db
		}
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}
