// Package pagination builds the compact page window rendered by list pagers:
// a run of page numbers centered on the current page, with the first and last
// pages pinned and ellipsis markers for the gaps.
package pagination

// DefaultMaxVisible is the window width used by the web pagers.
const DefaultMaxVisible = 5

// Item is a single pager entry: either a page number or an ellipsis gap.
type Item struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func page(n int) Item { return Item{Page: n} }
func ellipsis() Item  { return Item{Ellipsis: true} }

// Window returns the pager items for currentPage of totalPages. When
// totalPages fits within maxVisible the full range is returned with no
// ellipses. maxVisible <= 0 falls back to DefaultMaxVisible.
func Window(currentPage, totalPages, maxVisible int) []Item {
	if totalPages <= 0 {
		return nil
	}
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}

	if totalPages <= maxVisible {
		items := make([]Item, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			items = append(items, page(i))
		}
		return items
	}

	start := currentPage - 2
	if start < 1 {
		start = 1
	}
	end := start + maxVisible - 1
	if end > totalPages {
		end = totalPages
	}
	if end-start < maxVisible-1 {
		start = end - maxVisible + 1
		if start < 1 {
			start = 1
		}
	}

	items := make([]Item, 0, maxVisible+4)
	if start > 1 {
		items = append(items, page(1))
		if start > 2 {
			items = append(items, ellipsis())
		}
	}
	for i := start; i <= end; i++ {
		items = append(items, page(i))
	}
	if end < totalPages {
		if end < totalPages-1 {
			items = append(items, ellipsis())
		}
		items = append(items, page(totalPages))
	}

	return items
}
