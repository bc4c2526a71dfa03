package service

// Pagination defaults for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 10000
)

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage validates a page request. A zero size selects DefaultPageSize.
func NewPage(number, size int) (Page, error) {
	var v validator
	if number < 0 || number > MaxPageNumber {
		v.add("page", "must be between 0 and %d", MaxPageNumber)
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		v.add("size", "must be between 1 and %d", MaxPageSize)
	}
	if err := v.err(); err != nil {
		return Page{}, err
	}
	return Page{Number: number, Size: size}, nil
}

// Limit is the row count for the page.
func (p Page) Limit() int {
	if p.Size == 0 {
		return DefaultPageSize
	}
	return p.Size
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return p.Number * p.Limit() }
