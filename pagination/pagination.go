// Package pagination normalizes listing parameters and builds response
// metadata.
//
// Callers may page either with limit/offset or with page/size; Normalize
// reconciles the two so repositories only ever see limit/offset while
// responses always carry page-oriented metadata.
package pagination

import (
	"fmt"
	"math"
)

// Config bounds listing sizes.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	DefaultSize  int
	MaxSize      int
}

// DefaultConfig returns the bounds used when a repository is not
// configured otherwise: pages of 20, capped at 100.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 20,
		MaxLimit:     100,
		DefaultSize:  20,
		MaxSize:      100,
	}
}

// Params is embedded in listing requests. Fill either Limit/Offset or
// Page/Size; after Normalize both views are populated and consistent.
type Params struct {
	Limit  int `query:"limit" json:"limit,omitempty"`
	Offset int `query:"offset" json:"offset,omitempty"`

	// Page is 1-based.
	Page int `query:"page" json:"page,omitempty"`
	Size int `query:"size" json:"size,omitempty"`

	// which view the caller filled, decided by Normalize
	usesPageSize bool
}

func (p *Params) hasPageSize() bool {
	return p.Page > 0 || p.Size > 0
}

// Normalize clamps the parameters into cfg's bounds and syncs the two
// views. Empty params normalize to the first default-sized page.
func (p *Params) Normalize(cfg Config) {
	p.usesPageSize = p.hasPageSize() ||
		(p.Limit == 0 && p.Offset == 0 && p.Page == 0 && p.Size == 0)

	p.Limit = clamp(p.Limit, cfg.DefaultLimit, cfg.MaxLimit)
	p.Size = clamp(p.Size, cfg.DefaultSize, cfg.MaxSize)
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Page <= 0 {
		p.Page = 1
	}

	// make the caller's view authoritative and derive the other
	if p.usesPageSize {
		p.Limit = p.Size
		p.Offset = (p.Page - 1) * p.Size
	} else {
		p.Size = p.Limit
		p.Page = (p.Offset / p.Size) + 1
	}
}

func clamp(v, def, max int) int {
	switch {
	case v <= 0:
		return def
	case v > max:
		return max
	default:
		return v
	}
}

// ToLimitOffset returns the limit/offset view for SQL queries.
func (p *Params) ToLimitOffset() (limit, offset int) {
	return p.Limit, p.Offset
}

// ToPageSize returns the page/size view, deriving it from limit/offset
// when the caller paged that way.
func (p *Params) ToPageSize() (page, size int) {
	if p.usesPageSize || p.hasPageSize() {
		return p.Page, p.Size
	}

	size = p.Limit
	if size <= 0 {
		size = 1
	}
	return (p.Offset / size) + 1, size
}

// String renders the view the caller filled, for logs.
func (p *Params) String() string {
	pageView := p.usesPageSize ||
		(p.hasPageSize() && p.Limit == 0 && p.Offset == 0)

	if pageView {
		return fmt.Sprintf("page=%d size=%d", p.Page, p.Size)
	}
	return fmt.Sprintf("limit=%d offset=%d", p.Limit, p.Offset)
}

// Response is embedded in listing responses.
type Response struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// NewResponse derives the response metadata for a listing of total rows.
func (p *Params) NewResponse(total int64) Response {
	page, size := p.ToPageSize()

	pages := int(math.Ceil(float64(total) / float64(size)))
	if pages < 1 {
		pages = 1
	}

	return Response{
		Total:   total,
		Page:    page,
		Size:    size,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// String renders the response metadata, for logs.
func (r *Response) String() string {
	return fmt.Sprintf("page %d of %d (total: %d, size: %d)", r.Page, r.Pages, r.Total, r.Size)
}
