package dto

// PageInfo describes one page of a listing. Page is 1-indexed.
type PageInfo struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// NewPageInfo computes the page layout of totalItems entries. A pageSize
// of zero or less puts everything on a single page. An empty listing
// still has one page. The requested page is clamped into range.
func NewPageInfo(totalItems, pageSize, page int) PageInfo {
	if pageSize <= 0 {
		pageSize = max(totalItems, 0)
	}
	totalPages := 1
	if totalItems > 0 && pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	page = min(max(page, 1), totalPages)

	return PageInfo{
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  max(totalItems, 0),
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// Bounds returns the slice bounds of the page, items[start:end].
func (p PageInfo) Bounds() (start, end int) {
	start = min((p.Page-1)*p.PageSize, p.TotalItems)
	end = min(start+p.PageSize, p.TotalItems)
	return start, end
}
