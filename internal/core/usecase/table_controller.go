package usecase

import (
	"context"
	"errors"
	"fmt"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"sync"
	"time"
)

// DefaultSearchDebounce - задержка запроса после последнего изменения строки поиска.
const DefaultSearchDebounce = 500 * time.Millisecond

var errEmptyPage = errors.New("fetch returned no page")

// TableOptions - параметры контроллера таблицы.
type TableOptions struct {
	DefaultSort     *domain.SortingRule
	DefaultPageSize int
	SearchDebounce  time.Duration
	Scheduler       port.Scheduler
	Logger          port.LoggerPort

	// OnChange вызывается после каждого изменения представления, в порядке изменений.
	// Колбэки не должны синхронно вызывать мутаторы контроллера.
	OnChange func(domain.TableView)
	// OnError вызывается при неудачной загрузке страницы (для уведомления пользователя).
	OnError func(error)
}

// RemoteTableController переводит состояние таблицы (сортировка, поиск, страница)
// в запросы к бэкенду. В представление попадает только ответ на последний выданный запрос.
type RemoteTableController struct {
	fetch     port.FetchFunc
	opts      TableOptions
	scheduler port.Scheduler
	logger    port.LoggerPort

	mu         sync.Mutex
	state      domain.TableState
	rows       []domain.Record
	totalCount int
	isLoading  bool
	lastErr    error
	generation uint64
	closed     bool

	debounce    port.Timer
	debounceSeq uint64

	// emitMu упорядочивает вызовы OnChange/OnError.
	emitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRemoteTableController создает контроллер с состоянием по умолчанию. Сетевых вызовов не делает.
func NewRemoteTableController(fetch port.FetchFunc, opts TableOptions) *RemoteTableController {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = domain.DefaultTablePageSize
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = DefaultSearchDebounce
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = port.NoopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteTableController{
		fetch:     fetch,
		opts:      opts,
		scheduler: scheduler,
		logger:    logger.WithFields(port.Fields{"component": "RemoteTableController"}),
		state:     domain.NewTableState(opts.DefaultSort, opts.DefaultPageSize),
		rows:      []domain.Record{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start выполняет первую загрузку (монтирование представления).
func (c *RemoteTableController) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.refetchLocked()
	c.publishAndUnlock(nil)
	return nil
}

// SetSort переключает сортировку по колонке и перезапрашивает данные.
func (c *RemoteTableController) SetSort(columnID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.state.ToggleSort(columnID)
	c.refetchLocked()
	c.publishAndUnlock(nil)
	return nil
}

// SetSearch сразу обновляет строку поиска, а запрос откладывает на SearchDebounce.
// Пустая строка перезапрашивает данные немедленно.
func (c *RemoteTableController) SetSearch(term string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.state.GlobalFilter = term
	if term == "" {
		c.refetchLocked()
	} else {
		c.scheduleSearchLocked()
	}
	c.publishAndUnlock(nil)
	return nil
}

// SetPage переходит на страницу index (с нуля).
func (c *RemoteTableController) SetPage(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: page index must be >= 0, got %d", domain.ErrInvalidPagination, index)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.state.Pagination.PageIndex = index
	c.refetchLocked()
	c.publishAndUnlock(nil)
	return nil
}

// SetPageSize меняет размер страницы и возвращает таблицу на первую страницу.
func (c *RemoteTableController) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: page size must be >= 1, got %d", domain.ErrInvalidPagination, size)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.state.Pagination.PageSize = size
	c.state.Pagination.PageIndex = 0
	c.refetchLocked()
	c.publishAndUnlock(nil)
	return nil
}

// Refresh перезапрашивает текущую страницу без изменения состояния.
func (c *RemoteTableController) Refresh() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrControllerClosed
	}
	c.refetchLocked()
	c.publishAndUnlock(nil)
	return nil
}

// View возвращает текущее представление таблицы.
func (c *RemoteTableController) View() domain.TableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State возвращает копию состояния таблицы.
func (c *RemoteTableController) State() domain.TableState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	st.Sorting = append([]domain.SortingRule(nil), c.state.Sorting...)
	return st
}

// Close отменяет отложенный поиск и превращает все поздние ответы в no-op.
func (c *RemoteTableController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopDebounceLocked()
	c.cancel()
	c.logger.Debug("Table controller closed", nil)
}

// Wait блокируется до завершения всех запущенных загрузок.
func (c *RemoteTableController) Wait() {
	c.wg.Wait()
}

func (c *RemoteTableController) viewLocked() domain.TableView {
	return domain.NewTableView(c.state, c.rows, c.totalCount, c.isLoading, c.lastErr)
}

func (c *RemoteTableController) stopDebounceLocked() {
	c.debounceSeq++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

func (c *RemoteTableController) scheduleSearchLocked() {
	c.stopDebounceLocked()
	seq := c.debounceSeq
	c.debounce = c.scheduler.AfterFunc(c.opts.SearchDebounce, func() {
		c.mu.Lock()
		// Таймер мог сработать одновременно с Stop.
		if c.closed || seq != c.debounceSeq {
			c.mu.Unlock()
			return
		}
		c.debounce = nil
		c.refetchLocked()
		c.publishAndUnlock(nil)
	})
}

// refetchLocked выдает новый запрос по текущему состоянию. Отложенный поиск отменяется:
// новый запрос уже несет актуальную строку поиска.
func (c *RemoteTableController) refetchLocked() {
	c.stopDebounceLocked()
	c.generation++
	gen := c.generation
	req := c.state.Request()
	c.isLoading = true

	c.logger.Debug("Fetching table page", port.Fields{
		"generation": gen,
		"page":       req.Page,
		"limit":      req.Limit,
		"sort_field": req.SortField,
		"sort_order": string(req.SortOrder),
		"search":     req.Search,
	})

	c.wg.Add(1)
	go c.runFetch(gen, req)
}

func (c *RemoteTableController) runFetch(gen uint64, req domain.PageRequest) {
	defer c.wg.Done()

	resp, err := c.fetch(c.ctx, req)
	if err == nil && resp == nil {
		err = errEmptyPage
	}

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Dropping superseded table response", port.Fields{"generation": gen})
		return
	}
	c.isLoading = false

	if err != nil {
		c.lastErr = err
		c.logger.Error("Failed to fetch table page", err, port.Fields{"page": req.Page, "generation": gen})
		c.publishAndUnlock(err)
		return
	}

	c.rows = domain.CloneRecords(resp.Data)
	c.totalCount = resp.Pagination.Total
	if c.totalCount < 0 {
		c.totalCount = 0
	}
	c.lastErr = nil
	c.publishAndUnlock(nil)
}

// publishAndUnlock снимает представление под c.mu, отпускает блокировку
// и вызывает колбэки в порядке изменений состояния.
func (c *RemoteTableController) publishAndUnlock(fetchErr error) {
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
