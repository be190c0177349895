package models

// PageInfo is the pagination envelope shared by the list endpoints.
type PageInfo struct {
	Total       int64 `json:"total"`
	Skip        int   `json:"skip"`
	Limit       int   `json:"limit"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPageInfo computes the envelope for a page of results.
// has_next = skip+limit < total, has_previous = skip > 0; callers are
// responsible for bounding skip and limit before querying.
func NewPageInfo(skip, limit int, total int64) PageInfo {
	return PageInfo{
		Total:       total,
		Skip:        skip,
		Limit:       limit,
		HasNext:     int64(skip+limit) < total,
		HasPrevious: skip > 0,
	}
}

// ItemList is the paginated /items/ response.
type ItemList struct {
	Items []Item `json:"items"`
	PageInfo
}

// ArticleList is the paginated /articles/ response.
type ArticleList struct {
	Articles []ArticleSummary `json:"articles"`
	PageInfo
}
