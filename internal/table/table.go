// Package table holds the pagination and row-expansion state of the
// dashboard's data tables.
package table

// DefaultPageSize is the number of rows shown per page unless overridden.
const DefaultPageSize = 10

// MaxPageSize bounds client-supplied page sizes.
const MaxPageSize = 100

// Page is one client-side page of rows. PageIndex is 0-based.
type Page[T any] struct {
	Rows      []T
	PageIndex int
	PageSize  int
	PageCount int
	Total     int
}

// Paginate slices rows into the page at pageIndex. Out-of-range indexes
// clamp to the first or last page, and non-positive sizes use
// DefaultPageSize.
func Paginate[T any](rows []T, pageIndex, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(rows)
	count := (total + pageSize - 1) / pageSize

	if pageIndex >= count {
		pageIndex = count - 1
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	start := pageIndex * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Rows:      rows[start:end],
		PageIndex: pageIndex,
		PageSize:  pageSize,
		PageCount: count,
		Total:     total,
	}
}

// CanPrevious reports whether an earlier page exists.
func (p Page[T]) CanPrevious() bool { return p.PageIndex > 0 }

// CanNext reports whether a later page exists.
func (p Page[T]) CanNext() bool { return p.PageIndex+1 < p.PageCount }

// Number is the 1-based page number for display.
func (p Page[T]) Number() int { return p.PageIndex + 1 }

// ManualPage is the pagination state of a server-paginated table, where
// the upstream API returns one page at a time. PageIndex is 1-based.
type ManualPage struct {
	PageIndex  int
	TotalPages int
}

// NewManualPage clamps pageIndex to at least 1.
func NewManualPage(pageIndex, totalPages int) ManualPage {
	if pageIndex < 1 {
		pageIndex = 1
	}
	if totalPages < 0 {
		totalPages = 0
	}
	return ManualPage{PageIndex: pageIndex, TotalPages: totalPages}
}

// CanPrevious is false on page 1.
func (m ManualPage) CanPrevious() bool { return m.PageIndex > 1 }

// CanNext is false once the last reported page is reached.
func (m ManualPage) CanNext() bool { return m.PageIndex < m.TotalPages }

// Previous returns the previous page index, never below 1.
func (m ManualPage) Previous() int {
	if m.CanPrevious() {
		return m.PageIndex - 1
	}
	return m.PageIndex
}

// Next returns the next page index, never past TotalPages.
func (m ManualPage) Next() int {
	if m.CanNext() {
		return m.PageIndex + 1
	}
	return m.PageIndex
}

// Expansion tracks the single expanded row of a table.
type Expansion struct {
	ID string
}

// Toggle expands id, or collapses it when it is already expanded.
// Expanding a row collapses any other.
func (e Expansion) Toggle(id string) Expansion {
	if e.ID == id {
		return Expansion{}
	}
	return Expansion{ID: id}
}

// IsExpanded reports whether id is the expanded row.
func (e Expansion) IsExpanded(id string) bool {
	return id != "" && e.ID == id
}
