package repository

// Inbox paging. Notifications are listed newest first, so page 1 always holds the
// most recent rows and a short page means the inbox is exhausted.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 50
)

type PageRequest struct {
	Page     int
	PageSize int
}

// Clamp fills zero or negative fields with defaults and caps the page size.
func (p PageRequest) Clamp() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset assumes a clamped request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func newPageResult[T any](req PageRequest, items []T, total int64) PageResult[T] {
	pages := 0
	if total > 0 {
		pages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return PageResult[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}

// MapPage converts the items of a page and keeps its paging metadata.
func MapPage[T, U any](in PageResult[T], fn func(T) U) PageResult[U] {
	out := PageResult[U]{
		Items:      make([]U, 0, len(in.Items)),
		Page:       in.Page,
		PageSize:   in.PageSize,
		Total:      in.Total,
		TotalPages: in.TotalPages,
	}
	for _, item := range in.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
