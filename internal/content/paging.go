package content

// Paging defaults.
const (
	DefaultLimit = 15
	MaxLimit     = 100
)

// PageOptions selects one page of a list. Page is 1-based.
type PageOptions struct {
	Page  int
	Limit int
}

// DefaultPageOptions returns the first page with the default limit.
func DefaultPageOptions() PageOptions {
	return PageOptions{Page: 1, Limit: DefaultLimit}
}

// Validate checks the options against the largest allowed limit.
func (o PageOptions) Validate(maxLimit int) error {
	if o.Page < 1 {
		return invalidf("page must be a positive integer, got %d", o.Page)
	}
	if o.Limit < 1 || o.Limit > maxLimit {
		return invalidf("limit must be between 1 and %d, got %d", maxLimit, o.Limit)
	}
	return nil
}

// PaginatedList is one page of an ordered list. Total counts the whole list.
type PaginatedList[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

// Paginate cuts the page opts selects out of items. opts must be valid.
func Paginate[T any](items []T, opts PageOptions) PaginatedList[T] {
	start := len(items)
	if opts.Page-1 < len(items)/opts.Limit+1 {
		start = min((opts.Page-1)*opts.Limit, len(items))
	}
	end := min(start+opts.Limit, len(items))

	page := make([]T, end-start)
	copy(page, items[start:end])

	return PaginatedList[T]{
		Total: len(items),
		Page:  opts.Page,
		Limit: opts.Limit,
		Items: page,
	}
}
