package domain

// DefaultFeedPageSize - размер страницы ленты по умолчанию.
const DefaultFeedPageSize = 10

// FeedPhase - состояние автомата ленты.
type FeedPhase string

const (
	FeedIdle           FeedPhase = "IDLE"
	FeedLoadingInitial FeedPhase = "LOADING_INITIAL"
	FeedReady          FeedPhase = "READY"
	FeedLoadingMore    FeedPhase = "LOADING_MORE"
	FeedExhausted      FeedPhase = "EXHAUSTED"
)

// FeedState - состояние бесконечной ленты.
// Items не содержит двух записей с одинаковым идентификатором.
type FeedState struct {
	Items         []Record
	Page          int
	HasMore       bool
	IsLoading     bool
	IsInitialLoad bool
	Filters       FeedFilters
}

// NewFeedState возвращает состояние начала новой эпохи фильтров.
func NewFeedState(filters FeedFilters) FeedState {
	return FeedState{
		Items:         []Record{},
		Page:          1,
		HasMore:       true,
		IsInitialLoad: true,
		Filters:       filters,
	}
}

// Phase вычисляет состояние автомата из флагов.
func (s FeedState) Phase(started bool) FeedPhase {
	switch {
	case !started:
		return FeedIdle
	case s.IsLoading && s.IsInitialLoad:
		return FeedLoadingInitial
	case s.IsLoading:
		return FeedLoadingMore
	case !s.HasMore:
		return FeedExhausted
	default:
		return FeedReady
	}
}

// FeedView - контракт отображения ленты для виртуализированного списка.
type FeedView struct {
	Items         []Record    `json:"items"`
	HasMore       bool        `json:"hasMore"`
	IsLoading     bool        `json:"isLoading"`
	IsInitialLoad bool        `json:"isInitialLoad"`
	Page          int         `json:"page"`
	Phase         FeedPhase   `json:"phase"`
	Filters       FeedFilters `json:"filters"`
	LastError     string      `json:"lastError,omitempty"`
}
