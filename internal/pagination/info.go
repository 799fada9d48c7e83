package pagination

// PageInfo is the 1-indexed, human-facing summary rendered as
// "Showing X to Y of Z". Showing and To are both 0 for an empty list.
type PageInfo struct {
	Showing int `json:"showing"` // First item on the page, 1-indexed
	To      int `json:"to"`      // Last item on the page, 1-indexed
	Of      int `json:"of"`      // Total item count
	Page    int `json:"page"`    // Current page
	Pages   int `json:"pages"`   // Total pages
}

// Info returns the human-facing page summary for the current state.
func (p *Pager) Info() PageInfo {
	info := PageInfo{
		Of:    p.totalItems,
		Page:  p.page,
		Pages: p.TotalPages(),
	}
	if p.totalItems > 0 {
		info.Showing = p.StartIndex() + 1
		info.To = p.EndIndex() + 1
	}
	return info
}

// State is a read-only snapshot of a Pager's base and derived fields,
// suitable for handing to a rendering layer.
type State struct {
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	TotalItems   int   `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
	StartIndex   int   `json:"start_index"`
	EndIndex     int   `json:"end_index"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	VisiblePages []int `json:"visible_pages"`
}

// State returns a snapshot of the current pagination state.
func (p *Pager) State() State {
	return State{
		CurrentPage:  p.page,
		PageSize:     p.pageSize,
		TotalItems:   p.totalItems,
		TotalPages:   p.TotalPages(),
		StartIndex:   p.StartIndex(),
		EndIndex:     p.EndIndex(),
		HasNext:      p.HasNext(),
		HasPrevious:  p.HasPrevious(),
		VisiblePages: p.VisiblePages(),
	}
}
