package domain

// Значения состояния таблицы по умолчанию.
const (
	DefaultTablePageSize = 5
)

// SortingRule - сортировка по одной колонке.
type SortingRule struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// TablePagination - позиция таблицы.
type TablePagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// TableState - декларативное состояние таблицы, которым владеет один контроллер.
// Sorting содержит 0 или 1 элемент.
type TableState struct {
	Sorting      []SortingRule   `json:"sorting"`
	GlobalFilter string          `json:"globalFilter"`
	Pagination   TablePagination `json:"pagination"`
}

// NewTableState создает состояние с заданными значениями по умолчанию.
func NewTableState(defaultSort *SortingRule, defaultPageSize int) TableState {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultTablePageSize
	}
	state := TableState{
		Pagination: TablePagination{PageIndex: 0, PageSize: defaultPageSize},
	}
	if defaultSort != nil {
		state.Sorting = []SortingRule{*defaultSort}
	}
	return state
}

// DefaultSorting - сортировка таблиц по умолчанию: самые новые сверху.
func DefaultSorting() *SortingRule {
	return &SortingRule{ID: DefaultSortField, Desc: true}
}

// ToggleSort переключает сортировку: та же колонка меняет направление,
// другая колонка начинает с asc.
func (s *TableState) ToggleSort(columnID string) {
	if len(s.Sorting) > 0 && s.Sorting[0].ID == columnID {
		s.Sorting = []SortingRule{{ID: columnID, Desc: !s.Sorting[0].Desc}}
		return
	}
	s.Sorting = []SortingRule{{ID: columnID, Desc: false}}
}

// Request строит запрос страницы из текущего состояния.
func (s TableState) Request() PageRequest {
	req := PageRequest{
		Page:      s.Pagination.PageIndex + 1,
		Limit:     s.Pagination.PageSize,
		SortField: DefaultSortField,
		SortOrder: SortAsc,
		Search:    s.GlobalFilter,
	}
	if len(s.Sorting) > 0 {
		if s.Sorting[0].ID != "" {
			req.SortField = s.Sorting[0].ID
		}
		if s.Sorting[0].Desc {
			req.SortOrder = SortDesc
		}
	}
	return req
}

// TableView - контракт отображения таблицы.
type TableView struct {
	Rows            []Record      `json:"rows"`
	TotalCount      int           `json:"totalCount"`
	IsLoading       bool          `json:"isLoading"`
	PageIndex       int           `json:"pageIndex"`
	PageSize        int           `json:"pageSize"`
	PageCount       int           `json:"pageCount"`
	CanPreviousPage bool          `json:"canPreviousPage"`
	CanNextPage     bool          `json:"canNextPage"`
	Sorting         []SortingRule `json:"sorting"`
	GlobalFilter    string        `json:"globalFilter"`
	LastError       string        `json:"lastError,omitempty"`
}

// NewTableView собирает представление и производные поля навигации.
func NewTableView(state TableState, rows []Record, totalCount int, isLoading bool, lastErr error) TableView {
	pageCount := PageCount(totalCount, state.Pagination.PageSize)
	sorting := make([]SortingRule, len(state.Sorting))
	copy(sorting, state.Sorting)

	return TableView{
		Rows:            CloneRecords(rows),
		TotalCount:      totalCount,
		IsLoading:       isLoading,
		PageIndex:       state.Pagination.PageIndex,
		PageSize:        state.Pagination.PageSize,
		PageCount:       pageCount,
		CanPreviousPage: state.Pagination.PageIndex > 0,
		CanNextPage:     state.Pagination.PageIndex < pageCount-1,
		Sorting:         sorting,
		GlobalFilter:    state.GlobalFilter,
		LastError:       UserMessage(lastErr),
	}
}
