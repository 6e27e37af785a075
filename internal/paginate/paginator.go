// Package paginate slices an in-memory row list into fixed-size pages.
package paginate

// Page sizes offered to the dashboard
var PageSizes = []int{10, 25, 50, 100}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Paginator tracks the current page over a row list.
// The page is always within [1, TotalPages]. The zero value is usable and
// behaves like a page size of 1 on page 1.
type Paginator[T any] struct {
	rows     []T
	page     int
	pageSize int
}

// New returns a paginator on page 1
func New[T any](pageSize int) *Paginator[T] {
	p := &Paginator[T]{page: 1}
	p.SetPageSize(pageSize)
	return p
}

// SetRows replaces the row list and clamps the current page
func (p *Paginator[T]) SetRows(rows []T) {
	p.rows = rows
	p.SetPage(p.page)
}

// SetPageSize changes the page size. Sizes below 1 are treated as 1.
func (p *Paginator[T]) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	p.pageSize = n
	p.SetPage(p.page)
}

// SetPage moves to page n, clamped to the valid range
func (p *Paginator[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if total := p.TotalPages(); n > total {
		n = total
	}
	p.page = n
}

// Page returns the current page number (1-based)
func (p *Paginator[T]) Page() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

// PageSize returns the effective page size
func (p *Paginator[T]) PageSize() int {
	if p.pageSize < 1 {
		return 1
	}
	return p.pageSize
}

// Total returns the number of rows
func (p *Paginator[T]) Total() int {
	return len(p.rows)
}

// TotalPages returns max(1, ceil(Total/PageSize))
func (p *Paginator[T]) TotalPages() int {
	if len(p.rows) == 0 {
		return 1
	}
	size := p.PageSize()
	return (len(p.rows) + size - 1) / size
}

// Rows returns the rows of the current page
func (p *Paginator[T]) Rows() []T {
	size := p.PageSize()
	start := (p.Page() - 1) * size
	if start >= len(p.rows) {
		return []T{}
	}
	end := start + size
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[start:end]
}
