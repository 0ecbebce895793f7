package model

// PageParams is a page-number request. Zero PageSize means the configured
// default.
type PageParams struct {
	Page     int
	PageSize int
}

// PageInfo describes one page of a counted result set.
type PageInfo struct {
	Count    int  `json:"count"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Next     *int `json:"next"`
	Previous *int `json:"previous"`
}

// Offset returns the row offset of the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PostPage struct {
	PageInfo
	Results []PostListView `json:"results"`
}

type UserPage struct {
	PageInfo
	Results []UserListView `json:"results"`
}
