package usecase

import (
	"context"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"sync"
)

// FeedOptions - параметры контроллера ленты.
type FeedOptions struct {
	PageSize int
	Logger   port.LoggerPort

	// OnChange вызывается после каждого изменения представления, в порядке изменений.
	// Колбэки не должны синхронно вызывать мутаторы контроллера.
	OnChange func(domain.FeedView)
	OnError  func(error)
}

// IncrementalFeedController собирает страницы отфильтрованного списка в одну
// последовательность без повторов. Смена фильтров начинает новую эпоху:
// ответы на запросы прошлой эпохи игнорируются.
type IncrementalFeedController struct {
	fetch  port.FetchFunc
	opts   FeedOptions
	logger port.LoggerPort

	mu      sync.Mutex
	state   domain.FeedState
	seen    map[string]struct{}
	epoch   uint64
	started bool
	// loaded - первая страница текущей эпохи успешно получена.
	loaded   bool
	inFlight bool
	lastErr  error
	closed   bool

	emitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIncrementalFeedController создает ленту с начальными фильтрами. Сетевых вызовов не делает.
func NewIncrementalFeedController(fetch port.FetchFunc, filters domain.FeedFilters, opts FeedOptions) *IncrementalFeedController {
	if opts.PageSize < 1 {
		opts.PageSize = domain.DefaultFeedPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = port.NoopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &IncrementalFeedController{
		fetch:  fetch,
		opts:   opts,
		logger: logger.WithFields(port.Fields{"component": "IncrementalFeedController"}),
		state:  domain.NewFeedState(filters.Normalize()),
		seen:   make(map[string]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start загружает первую страницу для начальных фильтров. Повторный вызов - no-op.
func (c *IncrementalFeedController) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.resetLocked(c.state.Filters)
	c.publishAndUnlock(nil)
	return nil
}

// SetFilters заменяет фильтры. Если значение изменилось, лента сбрасывается
// (items пуст, page=1, hasMore=true) и загружается первая страница новой эпохи.
// Возвращает false, если фильтры равны текущим.
func (c *IncrementalFeedController) SetFilters(filters domain.FeedFilters) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, domain.ErrControllerClosed
	}
	normalized := filters.Normalize()
	if c.started && normalized.Equal(c.state.Filters) {
		c.mu.Unlock()
		return false, nil
	}
	c.resetLocked(normalized)
	c.publishAndUnlock(nil)
	return true, nil
}

// LoadMore запрашивает следующую страницу. No-op, пока идет загрузка
// или страниц больше нет. Если первая страница эпохи не загрузилась, повторяет ее.
func (c *IncrementalFeedController) LoadMore() (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, domain.ErrControllerClosed
	}
	if !c.started || c.inFlight || !c.state.HasMore {
		c.mu.Unlock()
		return false, nil
	}
	if c.loaded {
		c.loadPageLocked(c.state.Page+1, false)
	} else {
		c.loadPageLocked(1, true)
	}
	c.publishAndUnlock(nil)
	return true, nil
}

// RemoveItem убирает запись из ленты локально, без сетевого вызова.
// page и hasMore не меняются.
func (c *IncrementalFeedController) RemoveItem(id string) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	idx := -1
	for i, item := range c.state.Items {
		if itemID, ok := item.ID(); ok && itemID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	items := make([]domain.Record, 0, len(c.state.Items)-1)
	items = append(items, c.state.Items[:idx]...)
	items = append(items, c.state.Items[idx+1:]...)
	c.state.Items = items
	delete(c.seen, id)

	c.logger.Debug("Item removed from feed", port.Fields{"item_id": id})
	c.publishAndUnlock(nil)
	return true
}

// View возвращает текущее представление ленты.
func (c *IncrementalFeedController) View() domain.FeedView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close превращает все поздние ответы в no-op.
func (c *IncrementalFeedController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.logger.Debug("Feed controller closed", nil)
}

// Wait блокируется до завершения всех запущенных загрузок.
func (c *IncrementalFeedController) Wait() {
	c.wg.Wait()
}

func (c *IncrementalFeedController) viewLocked() domain.FeedView {
	return domain.FeedView{
		Items:         domain.CloneRecords(c.state.Items),
		HasMore:       c.state.HasMore,
		IsLoading:     c.state.IsLoading,
		IsInitialLoad: c.state.IsInitialLoad,
		Page:          c.state.Page,
		Phase:         c.state.Phase(c.started),
		Filters:       c.state.Filters,
		LastError:     domain.UserMessage(c.lastErr),
	}
}

// resetLocked начинает новую эпоху фильтров и загружает ее первую страницу.
func (c *IncrementalFeedController) resetLocked(filters domain.FeedFilters) {
	c.epoch++
	c.state = domain.NewFeedState(filters)
	c.seen = make(map[string]struct{})
	c.started = true
	c.loaded = false
	c.inFlight = false
	c.lastErr = nil

	c.logger.Info("Feed filters changed", port.Fields{"epoch": c.epoch, "filters": filters.Key()})
	c.loadPageLocked(1, true)
}

func (c *IncrementalFeedController) loadPageLocked(pageNumber int, isInitial bool) {
	if !c.state.HasMore && !isInitial {
		return
	}
	c.inFlight = true
	c.state.IsLoading = true
	req := c.state.Filters.Request(pageNumber, c.opts.PageSize)
	epoch := c.epoch

	c.logger.Debug("Fetching feed page", port.Fields{"epoch": epoch, "page": pageNumber, "initial": isInitial})

	c.wg.Add(1)
	go c.runFetch(epoch, req, isInitial)
}

func (c *IncrementalFeedController) runFetch(epoch uint64, req domain.PageRequest, isInitial bool) {
	defer c.wg.Done()

	resp, err := c.fetch(c.ctx, req)
	if err == nil && resp == nil {
		err = errEmptyPage
	}

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("Dropping feed response from stale epoch", port.Fields{"epoch": epoch, "page": req.Page})
		return
	}
	c.inFlight = false
	c.state.IsLoading = false

	if err != nil {
		c.lastErr = err
		c.logger.Error("Failed to fetch feed page", err, port.Fields{"epoch": epoch, "page": req.Page})
		c.publishAndUnlock(err)
		return
	}

	if isInitial {
		c.seen = make(map[string]struct{})
		c.state.Items = domain.AppendUnique(make([]domain.Record, 0, len(resp.Data)), c.seen, resp.Data)
	} else {
		c.state.Items = domain.AppendUnique(c.state.Items, c.seen, resp.Data)
	}

	page, limit := resp.Pagination.Page, resp.Pagination.Limit
	if page < 1 {
		page = req.Page
	}
	if limit < 1 {
		limit = req.Limit
	}
	c.state.HasMore = domain.HasMore(page, limit, resp.Pagination.Total)
	c.state.Page = req.Page
	c.state.IsInitialLoad = false
	c.loaded = true
	c.lastErr = nil

	c.publishAndUnlock(nil)
}

func (c *IncrementalFeedController) publishAndUnlock(fetchErr error) {
	view := c.viewLocked()
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	if fetchErr != nil && c.opts.OnError != nil {
		c.opts.OnError(fetchErr)
	}
	if c.opts.OnChange != nil {
		c.opts.OnChange(view)
	}
}
