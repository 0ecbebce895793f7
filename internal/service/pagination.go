package service

import "postservice/internal/model"

// Paginator turns page-number requests into offsets for counted lists.
type Paginator struct {
	defaultSize int
	maxSize     int
}

func NewPaginator(defaultSize, maxSize int) Paginator {
	if maxSize <= 0 {
		maxSize = 100
	}
	if defaultSize <= 0 || defaultSize > maxSize {
		defaultSize = min(2, maxSize)
	}
	return Paginator{defaultSize: defaultSize, maxSize: maxSize}
}

// resolve validates the requested page and applies the size limits.
// Page 0 means the first page.
func (p Paginator) resolve(params model.PageParams) (model.PageInfo, error) {
	page := params.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return model.PageInfo{}, model.ErrInvalidPage
	}

	size := params.PageSize
	if size <= 0 {
		size = p.defaultSize
	}
	if size > p.maxSize {
		size = p.maxSize
	}

	return model.PageInfo{Page: page, PageSize: size}, nil
}

// complete fills the total and neighbour pages. A page past the last one is
// ErrPageNotFound, except page 1 of an empty list.
func (p Paginator) complete(info *model.PageInfo, count int) error {
	lastPage := (count + info.PageSize - 1) / info.PageSize
	if lastPage == 0 {
		lastPage = 1
	}
	if info.Page > lastPage {
		return model.ErrPageNotFound
	}

	info.Count = count
	info.Next, info.Previous = nil, nil
	if info.Page < lastPage {
		next := info.Page + 1
		info.Next = &next
	}
	if info.Page > 1 {
		prev := info.Page - 1
		info.Previous = &prev
	}
	return nil
}
