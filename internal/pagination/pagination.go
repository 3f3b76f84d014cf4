// Package pagination clamps page/limit inputs and derives offset and
// page-metadata for listing endpoints.
package pagination

// Pagination bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a resolved, in-bounds page request.
type Params struct {
	Page  int
	Limit int
}

// Resolve clamps raw page/limit inputs: page to >= 1, limit to [1, MaxLimit].
// A zero limit takes the default.
func Resolve(page, limit int) Params {
	return ResolveWithCeiling(page, limit, MaxLimit)
}

// ResolveWithCeiling is Resolve with a stricter per-endpoint limit ceiling.
// Ceilings above MaxLimit are reduced to it.
func ResolveWithCeiling(page, limit, ceiling int) Params {
	if ceiling < 1 || ceiling > MaxLimit {
		ceiling = MaxLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > ceiling {
		limit = ceiling
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the resolved page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo is the pagination block of a listing response.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPageInfo derives page metadata from the resolved params and a total
// row count.
func NewPageInfo(p Params, totalCount int64) PageInfo {
	totalPages := (totalCount + int64(p.Limit) - 1) / int64(p.Limit)
	return PageInfo{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasNext:    int64(p.Page) < totalPages,
		HasPrev:    p.Page > 1,
	}
}
