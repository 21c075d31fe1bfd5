package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds pagination and ordering taken from the query string.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
	// SortBy is a column name from the caller's allowlist, or "".
	SortBy   string `json:"sort_by,omitempty"`
	SortDesc bool   `json:"sort_desc,omitempty"`
}

// DefaultParams returns page 1 of 20.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: defaultPerPage}
}

// FromRequest reads ?page, ?per_page and ?sort. Invalid values fall back to
// defaults. sort is "field" or "field,desc" (also "-field"); fields outside
// sortable are ignored.
func FromRequest(r *http.Request, sortable ...string) Params {
	q := r.URL.Query()
	p := DefaultParams()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= maxPerPage {
		p.PerPage = v
	}
	p.Offset = (p.Page - 1) * p.PerPage

	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		field, dir, _ := strings.Cut(raw, ",")
		desc := strings.EqualFold(strings.TrimSpace(dir), "desc")
		if rest, ok := strings.CutPrefix(field, "-"); ok {
			field, desc = rest, true
		}
		for _, s := range sortable {
			if s == field {
				p.SortBy, p.SortDesc = field, desc
				break
			}
		}
	}

	return p
}

// Result wraps one page of items.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult builds a Result. A nil data slice is encoded as [].
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	totalPages := (totalCount + perPage - 1) / perPage

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
