package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Skip  int
	Limit int
}

// Normalize clamps skip to >= 0 and limit into [1, MaxLimit].
func (p Params) Normalize() Params {
	if p.Skip < 0 {
		p.Skip = 0
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Link is a HATEOAS navigation entry.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

// Page is the envelope returned by list endpoints.
type Page[T any] struct {
	Items []T    `json:"items"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
	Links []Link `json:"links"`
}

// NewPage assembles a page and its navigation links rooted at baseURL.
func NewPage[T any](items []T, total int64, params Params, baseURL string) Page[T] {
	params = params.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  params.Skip/params.Limit + 1,
		Size:  len(items),
		Links: Links(baseURL, params, total),
	}
}

// Links builds self/first/prev/next/last links for an offset window.
func Links(baseURL string, params Params, total int64) []Link {
	params = params.Normalize()
	skip, limit := params.Skip, params.Limit

	lastSkip := 0
	if total > 0 {
		lastSkip = int((total - 1) / int64(limit) * int64(limit))
	}

	links := []Link{
		{Rel: "self", Href: pageURL(baseURL, skip, limit), Method: "GET"},
		{Rel: "first", Href: pageURL(baseURL, 0, limit), Method: "GET"},
		{Rel: "last", Href: pageURL(baseURL, lastSkip, limit), Method: "GET"},
	}
	if int64(skip+limit) < total {
		links = append(links, Link{Rel: "next", Href: pageURL(baseURL, skip+limit, limit), Method: "GET"})
	}
	if skip > 0 {
		prev := skip - limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, Link{Rel: "prev", Href: pageURL(baseURL, prev, limit), Method: "GET"})
	}
	return links
}

func pageURL(baseURL string, skip, limit int) string {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%s", baseURL, sep, q.Encode())
}
