// Package pagination provides a reusable pagination state engine for list
// pages.
//
// A Pager owns three base fields (current page, page size, total item count)
// and derives everything else on demand: page bounds, slice indexes, and the
// window of page numbers shown as navigation links. Derived values are never
// cached, so they cannot go stale. All mutating operations clamp the current
// page back into [1, TotalPages] before returning; out-of-range input is
// silently corrected, never an error.
//
// A Pager is not safe for concurrent use. It is meant to be owned by a single
// request or view and mutated only through its methods.
package pagination

// DefaultMaxVisiblePages is the default width of the page-number window.
const DefaultMaxVisiblePages = 5

// Options configures a new Pager.
type Options struct {
	// PageSize is the number of items per page. Values < 1 fall back to 10.
	PageSize int

	// TotalItems is the initial total item count. Negative values are
	// treated as 0.
	TotalItems int

	// InitialPage is the starting page, clamped into range. Zero means 1.
	InitialPage int

	// MaxVisiblePages is the maximum width of the visible page window.
	// Zero means DefaultMaxVisiblePages.
	MaxVisiblePages int
}

// Pager holds pagination state for a single list view.
type Pager struct {
	page       int
	pageSize   int
	totalItems int
	maxVisible int

	// Configured initial values, restored by Reset.
	initialPage     int
	initialPageSize int
	initialTotal    int
}

// New creates a Pager from the given options.
func New(opts Options) *Pager {
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	if opts.TotalItems < 0 {
		opts.TotalItems = 0
	}
	if opts.InitialPage < 1 {
		opts.InitialPage = 1
	}
	if opts.MaxVisiblePages < 1 {
		opts.MaxVisiblePages = DefaultMaxVisiblePages
	}

	p := &Pager{
		page:            opts.InitialPage,
		pageSize:        opts.PageSize,
		totalItems:      opts.TotalItems,
		maxVisible:      opts.MaxVisiblePages,
		initialPage:     opts.InitialPage,
		initialPageSize: opts.PageSize,
		initialTotal:    opts.TotalItems,
	}
	p.clamp()
	return p
}

// clamp forces the current page back into [1, TotalPages]. Every mutator
// ends with this, so the invariant holds after any operation completes.
func (p *Pager) clamp() {
	if p.page < 1 {
		p.page = 1
	}
	if total := p.TotalPages(); p.page > total {
		p.page = total
	}
}

// CurrentPage returns the current page number (1-indexed).
func (p *Pager) CurrentPage() int { return p.page }

// PageSize returns the number of items per page.
func (p *Pager) PageSize() int { return p.pageSize }

// TotalItems returns the total item count.
func (p *Pager) TotalItems() int { return p.totalItems }

// TotalPages returns the total number of pages. An empty list still has one
// page so the current page invariant can hold.
func (p *Pager) TotalPages() int {
	pages := p.totalItems / p.pageSize
	if p.totalItems%p.pageSize > 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}

// StartIndex returns the 0-based index of the first item on the current page.
// It may be >= TotalItems when the list is empty.
func (p *Pager) StartIndex() int {
	return (p.page - 1) * p.pageSize
}

// EndIndex returns the 0-based index of the last item on the current page,
// clipped to the final item. Returns -1 when the list is empty.
func (p *Pager) EndIndex() int {
	end := p.StartIndex() + p.pageSize - 1
	if last := p.totalItems - 1; end > last {
		end = last
	}
	return end
}

// HasNext reports whether a page after the current one exists.
func (p *Pager) HasNext() bool { return p.page < p.TotalPages() }

// HasPrevious reports whether a page before the current one exists.
func (p *Pager) HasPrevious() bool { return p.page > 1 }

// GoToPage moves to page n, clamped into [1, TotalPages].
func (p *Pager) GoToPage(n int) {
	p.page = n
	p.clamp()
}

// Next advances one page. No-op on the last page.
func (p *Pager) Next() {
	if p.HasNext() {
		p.page++
	}
}

// Prev moves back one page. No-op on the first page.
func (p *Pager) Prev() {
	if p.HasPrevious() {
		p.page--
	}
}

// First moves to the first page.
func (p *Pager) First() { p.page = 1 }

// Last moves to the last page.
func (p *Pager) Last() { p.page = p.TotalPages() }

// SetPageSize changes the page size and re-clamps the current page under the
// new page count in the same call, so the caller is never left on a page
// beyond the new bound. Sizes < 1 are ignored.
func (p *Pager) SetPageSize(size int) {
	if size < 1 {
		return
	}
	p.pageSize = size
	p.clamp()
}

// SetTotalItems updates the total item count. When the backing list shrank
// under the current page (an item was deleted while the user sat on a
// trailing page), the current page moves to the new last page.
func (p *Pager) SetTotalItems(total int) {
	if total < 0 {
		total = 0
	}
	p.totalItems = total
	p.clamp()
}

// Reset restores page, page size, and total item count to their configured
// initial values.
func (p *Pager) Reset() {
	p.page = p.initialPage
	p.pageSize = p.initialPageSize
	p.totalItems = p.initialTotal
	p.clamp()
}

// VisiblePages returns the contiguous window of page numbers to render as
// navigation links. The window is min(MaxVisiblePages, TotalPages) wide and
// centered on the current page; when the naive window runs past either end it
// is extended at the other, so the result never contains duplicates or pages
// outside [1, TotalPages].
func (p *Pager) VisiblePages() []int {
	totalPages := p.TotalPages()
	width := p.maxVisible
	if width > totalPages {
		width = totalPages
	}

	// Center on the current page, then slide the window back inside
	// [1, totalPages] without shrinking it.
	start := p.page - p.maxVisible/2
	if start < 1 {
		start = 1
	}
	end := start + width - 1
	if end > totalPages {
		end = totalPages
		start = end - width + 1
	}

	pages := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		pages = append(pages, n)
	}
	return pages
}

// Slice returns the portion of items that belongs on the current page,
// clipped to the bounds of items. Returns an empty slice when the start
// index is past the end.
func Slice[T any](p *Pager, items []T) []T {
	start := p.StartIndex()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
