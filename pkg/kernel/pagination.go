package kernel

// Page represents pagination metadata
type Page struct {
	Number int `json:"page"`      // Current page number (1-based)
	Size   int `json:"page_size"` // Number of records per page
	Total  int `json:"total"`     // Total number of records
	Pages  int `json:"pages"`     // Total number of pages
}

// Paginated is a page of items with its metadata.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a page, computing the page count from total.
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   size,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// HasNext returns whether there are more pages after the current one
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int // Page number (1-based)
	PageSize int // Number of records per page
}

// Normalize clamps the page to >= 1 and the size to [1, MaxPageSize],
// using DefaultPageSize when unset.
func (o PaginationOptions) Normalize() PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	switch {
	case o.PageSize <= 0:
		o.PageSize = DefaultPageSize
	case o.PageSize > MaxPageSize:
		o.PageSize = MaxPageSize
	}
	return o
}

// Offset is the number of rows to skip for the page.
func (o PaginationOptions) Offset() int {
	n := o.Normalize()
	return (n.Page - 1) * n.PageSize
}
