package resource

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"
)

// Paginator implements page-number pagination with a client-overridable
// page size capped at MaxPageSize.
type Paginator struct {
	PageSize    int
	MaxPageSize int
}

// Page is the paginated list response body.
type Page struct {
	Count    int              `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []map[string]any `json:"results"`
}

// Resolve returns the requested page number and effective page size.
// A malformed page_size falls back to the default; a malformed page is
// reported as NotFoundError.
func (p Paginator) Resolve(q url.Values) (page, size int, err error) {
	size = p.PageSize
	if size <= 0 {
		size = 10
	}
	if raw := strings.TrimSpace(q.Get(PageSizeParam)); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			size = n
		}
	}
	if p.MaxPageSize > 0 && size > p.MaxPageSize {
		size = p.MaxPageSize
	}

	page = 1
	if raw := strings.TrimSpace(q.Get(PageParam)); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return 0, 0, &NotFoundError{Detail: "Invalid page."}
		}
		page = n
	}
	return page, size, nil
}

func lastPage(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count + size - 1) / size
}

// pageLink rebuilds the current request URL with page replaced. Page 1
// drops the parameter.
func pageLink(req Request, page int) *string {
	q := url.Values{}
	for k, v := range req.Query {
		q[k] = v
	}
	if page <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(page))
	}
	link := strings.TrimRight(req.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if enc := q.Encode(); enc != "" {
		link += "?" + enc
	}
	return &link
}
