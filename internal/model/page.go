package model

// PageRequest carries 1-based paging parameters.
type PageRequest struct {
    Page     int
    PageSize int
}

const (
    defaultPageSize = 20
    maxPageSize     = 100
)

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
    if p.Page < 1 {
        p.Page = 1
    }
    if p.PageSize < 1 {
        p.PageSize = defaultPageSize
    }
    if p.PageSize > maxPageSize {
        p.PageSize = maxPageSize
    }
    return p
}

// Offset returns the SQL offset for the (normalized) request.
func (p PageRequest) Offset() int {
    p = p.Normalize()
    return (p.Page - 1) * p.PageSize
}

// Page is a slice of results plus the total number of matches.
type Page[T any] struct {
    Items    []T `json:"items"`
    Page     int `json:"page"`
    PageSize int `json:"page_size"`
    Total    int `json:"total"`
}

// NewPage builds a Page from a normalized request.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
    req = req.Normalize()
    if items == nil {
        items = []T{}
    }
    return Page[T]{Items: items, Page: req.Page, PageSize: req.PageSize, Total: total}
}
