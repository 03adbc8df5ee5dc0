package usecase

import (
	"context"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionKind - тип представления сессии.
type SessionKind string

const (
	SessionTable SessionKind = "table"
	SessionFeed  SessionKind = "feed"
)

// ViewSession - одно смонтированное представление клиента (таблица или лента).
type ViewSession struct {
	ID        string
	ClientID  string
	Kind      SessionKind
	Resource  string
	CreatedAt time.Time

	Table *RemoteTableController
	Feed  *IncrementalFeedController

	lastUsed time.Time
}

func (s *ViewSession) close() {
	if s.Table != nil {
		s.Table.Close()
	}
	if s.Feed != nil {
		s.Feed.Close()
	}
}

func (s *ViewSession) wait() {
	if s.Table != nil {
		s.Table.Wait()
	}
	if s.Feed != nil {
		s.Feed.Wait()
	}
}

// TableSessionOptions - параметры открытия таблицы. Нулевые значения берутся из настроек реестра.
type TableSessionOptions struct {
	SortField string
	SortDesc  bool
	PageSize  int
}

// RegistryConfig - настройки реестра сессий.
type RegistryConfig struct {
	TablePageSize  int
	SearchDebounce time.Duration
	FeedPageSize   int
	IdleTTL        time.Duration
	Scheduler      port.Scheduler
}

// ViewSessionRegistry владеет всеми открытыми сессиями представлений.
// Каждое изменение состояния контроллера уходит подписчикам через NotifierPort.
type ViewSessionRegistry struct {
	fetchers port.FetcherFactoryPort
	notifier port.NotifierPort
	logger   port.LoggerPort
	cfg      RegistryConfig
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*ViewSession
}

func NewViewSessionRegistry(fetchers port.FetcherFactoryPort, notifier port.NotifierPort, logger port.LoggerPort, cfg RegistryConfig) *ViewSessionRegistry {
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	return &ViewSessionRegistry{
		fetchers: fetchers,
		notifier: notifier,
		logger:   logger.WithFields(port.Fields{"component": "ViewSessionRegistry"}),
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*ViewSession),
	}
}

// OpenTable создает таблицу для ресурса и выполняет первую загрузку.
func (r *ViewSessionRegistry) OpenTable(ctx context.Context, clientID, resource string, tokens port.TokenSource, opts TableSessionOptions) (*ViewSession, error) {
	fetch, err := r.fetchers.FetcherFor(resource, tokens)
	if err != nil {
		return nil, err
	}

	session := r.newSession(clientID, SessionTable, resource)
	sort := domain.DefaultSorting()
	if opts.SortField != "" {
		sort = &domain.SortingRule{ID: opts.SortField, Desc: opts.SortDesc}
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = r.cfg.TablePageSize
	}

	session.Table = NewRemoteTableController(fetch, TableOptions{
		DefaultSort:     sort,
		DefaultPageSize: pageSize,
		SearchDebounce:  r.cfg.SearchDebounce,
		Scheduler:       r.cfg.Scheduler,
		Logger:          r.sessionLogger(session),
		OnChange: func(view domain.TableView) {
			r.publish(session.ID, port.EventTableUpdated, view)
		},
		OnError: func(err error) {
			r.publish(session.ID, port.EventViewError, map[string]string{"message": domain.UserMessage(err)})
		},
	})

	r.register(session)
	contextkeys.LoggerFromContext(ctx).Info("Table session opened", port.Fields{"session_id": session.ID, "resource": resource})

	if err := session.Table.Start(); err != nil {
		return nil, err
	}
	return session, nil
}

// OpenFeed создает ленту для ресурса с начальными фильтрами и загружает первую страницу.
func (r *ViewSessionRegistry) OpenFeed(ctx context.Context, clientID, resource string, tokens port.TokenSource, filters domain.FeedFilters, pageSize int) (*ViewSession, error) {
	fetch, err := r.fetchers.FetcherFor(resource, tokens)
	if err != nil {
		return nil, err
	}
	if pageSize < 1 {
		pageSize = r.cfg.FeedPageSize
	}

	session := r.newSession(clientID, SessionFeed, resource)
	session.Feed = NewIncrementalFeedController(fetch, filters, FeedOptions{
		PageSize: pageSize,
		Logger:   r.sessionLogger(session),
		OnChange: func(view domain.FeedView) {
			r.publish(session.ID, port.EventFeedUpdated, view)
		},
		OnError: func(err error) {
			r.publish(session.ID, port.EventViewError, map[string]string{"message": domain.UserMessage(err)})
		},
	})

	r.register(session)
	contextkeys.LoggerFromContext(ctx).Info("Feed session opened", port.Fields{"session_id": session.ID, "resource": resource})

	if err := session.Feed.Start(); err != nil {
		return nil, err
	}
	return session, nil
}

// Table возвращает контроллер таблицы, если сессия принадлежит клиенту.
func (r *ViewSessionRegistry) Table(clientID, sessionID string) (*RemoteTableController, error) {
	s, err := r.lookup(clientID, sessionID, SessionTable)
	if err != nil {
		return nil, err
	}
	return s.Table, nil
}

// Feed возвращает контроллер ленты, если сессия принадлежит клиенту.
func (r *ViewSessionRegistry) Feed(clientID, sessionID string) (*IncrementalFeedController, error) {
	s, err := r.lookup(clientID, sessionID, SessionFeed)
	if err != nil {
		return nil, err
	}
	return s.Feed, nil
}

// Owns проверяет, что сессия существует и принадлежит клиенту.
func (r *ViewSessionRegistry) Owns(clientID, sessionID string) bool {
	_, err := r.lookup(clientID, sessionID, "")
	return err == nil
}

// Close закрывает сессию клиента.
func (r *ViewSessionRegistry) Close(clientID, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok || s.ClientID != clientID {
		r.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	r.closeSession(s, "closed by client")
	return nil
}

// ApplyRecordEvent применяет внешнее изменение записи ко всем открытым сессиям ресурса:
// удаление убирает запись из лент, любое изменение перезапрашивает таблицы.
// Возвращает количество затронутых сессий.
func (r *ViewSessionRegistry) ApplyRecordEvent(ctx context.Context, event domain.RecordEvent) int {
	r.mu.Lock()
	targets := make([]*ViewSession, 0)
	for _, s := range r.sessions {
		if s.Resource == event.Resource {
			targets = append(targets, s)
		}
	}
	r.mu.Unlock()

	affected := 0
	for _, s := range targets {
		switch s.Kind {
		case SessionFeed:
			if event.Action == domain.RecordActionDeleted && s.Feed.RemoveItem(event.RecordID) {
				affected++
			}
		case SessionTable:
			if err := s.Table.Refresh(); err == nil {
				affected++
			}
		}
	}

	contextkeys.LoggerFromContext(ctx).Debug("Record event applied", port.Fields{
		"resource":  event.Resource,
		"record_id": event.RecordID,
		"action":    event.Action,
		"affected":  affected,
	})
	return affected
}

// ReapIdle закрывает сессии, к которым не обращались дольше IdleTTL.
func (r *ViewSessionRegistry) ReapIdle() int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	deadline := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	var idle []*ViewSession
	for id, s := range r.sessions {
		if s.lastUsed.Before(deadline) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.closeSession(s, "idle")
	}
	return len(idle)
}

// RunReaper периодически закрывает простаивающие сессии до отмены ctx.
func (r *ViewSessionRegistry) RunReaper(ctx context.Context, interval time.Duration) {
	if r.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.ReapIdle(); n > 0 {
				r.logger.Info("Idle view sessions reaped", port.Fields{"count": n})
			}
		}
	}
}

// CloseAll закрывает все сессии и дожидается завершения их загрузок.
func (r *ViewSessionRegistry) CloseAll() {
	r.mu.Lock()
	all := make([]*ViewSession, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		r.closeSession(s, "shutdown")
	}
	for _, s := range all {
		s.wait()
	}
}

// Len возвращает количество открытых сессий.
func (r *ViewSessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *ViewSessionRegistry) newSession(clientID string, kind SessionKind, resource string) *ViewSession {
	now := r.now()
	return &ViewSession{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Kind:      kind,
		Resource:  resource,
		CreatedAt: now,
		lastUsed:  now,
	}
}

func (r *ViewSessionRegistry) register(s *ViewSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *ViewSessionRegistry) lookup(clientID, sessionID string, kind SessionKind) (*ViewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.ClientID != clientID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if kind != "" && s.Kind != kind {
		return nil, fmt.Errorf("session %s is a %s: %w", sessionID, s.Kind, domain.ErrSessionKind)
	}
	s.lastUsed = r.now()
	return s, nil
}

func (r *ViewSessionRegistry) closeSession(s *ViewSession, reason string) {
	s.close()
	r.publish(s.ID, port.EventViewClosed, map[string]string{"reason": reason})
	r.logger.Info("View session closed", port.Fields{"session_id": s.ID, "client_id": s.ClientID, "reason": reason})
}

func (r *ViewSessionRegistry) sessionLogger(s *ViewSession) port.LoggerPort {
	return r.logger.WithFields(port.Fields{
		"session_id": s.ID,
		"client_id":  s.ClientID,
		"resource":   s.Resource,
	})
}

func (r *ViewSessionRegistry) publish(sessionID, eventType string, data any) {
	r.notifier.Notify(context.Background(), port.ViewEvent{
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
	})
}
