package domain

import (
	"fmt"
	"net/url"
	"strconv"
)

// SortOrder - направление сортировки, которое понимает бэкенд.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSortField - поле сортировки по умолчанию для всех списков.
const DefaultSortField = "createdAt"

// PageRequest - запрос одной страницы данных у бэкенда.
type PageRequest struct {
	Page      int
	Limit     int
	SortField string
	SortOrder SortOrder
	Search    string

	// Params - дополнительные параметры фильтрации (для ленты), уже закодированные.
	Params url.Values
}

// Validate проверяет инварианты page >= 1, limit >= 1.
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidPagination, r.Page)
	}
	if r.Limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidPagination, r.Limit)
	}
	if r.SortOrder != SortAsc && r.SortOrder != SortDesc {
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidPagination, r.SortOrder)
	}
	return nil
}

// Query кодирует запрос в query-параметры: page, limit, sortField, sortOrder, search
// и все дополнительные параметры фильтров.
func (r PageRequest) Query() url.Values {
	q := url.Values{}
	for key, values := range r.Params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("page", strconv.Itoa(r.Page))
	q.Set("limit", strconv.Itoa(r.Limit))
	if r.SortField != "" {
		q.Set("sortField", r.SortField)
		q.Set("sortOrder", string(r.SortOrder))
	}
	if r.Search != "" {
		q.Set("search", r.Search)
	}
	return q
}

// Pagination - метаданные пагинации из ответа.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PageResponse - одна страница данных в каноническом виде.
type PageResponse struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PageCount возвращает количество страниц: ceil(total / pageSize).
func PageCount(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// HasMore вычисляет, есть ли еще страницы после page: page*limit < total.
func HasMore(page, limit, total int) bool {
	return page*limit < total
}
