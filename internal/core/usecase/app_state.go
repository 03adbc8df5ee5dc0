package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"strconv"
	"sync"
)

// AppStateContainer - состояние приложения одного клиента: токен, пользователь,
// тема и свернутость меню. Меняется только через явные мутаторы,
// каждое изменение сохраняется в локальное хранилище клиента.
type AppStateContainer struct {
	clientID string
	storage  port.LocalStoragePort
	decoder  port.TokenDecoderPort

	mu            sync.RWMutex
	token         string
	user          *domain.UserClaims
	theme         string
	menuCollapsed bool
}

// LoadAppState читает состояние клиента из локального хранилища.
func LoadAppState(ctx context.Context, clientID string, storage port.LocalStoragePort, decoder port.TokenDecoderPort) (*AppStateContainer, error) {
	s := &AppStateContainer{
		clientID: clientID,
		storage:  storage,
		decoder:  decoder,
		theme:    domain.ThemeLight,
	}

	token, ok, err := storage.Get(ctx, clientID, domain.StorageKeyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if ok {
		s.token = token
	}

	rawUser, ok, err := storage.Get(ctx, clientID, domain.StorageKeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if ok && rawUser != "" {
		var user domain.UserClaims
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			contextkeys.LoggerFromContext(ctx).Warn("Stored user is corrupted, ignoring", port.Fields{"client_id": clientID, "error": err.Error()})
		} else {
			s.user = &user
		}
	}

	theme, ok, err := storage.Get(ctx, clientID, domain.StorageKeyTheme)
	if err != nil {
		return nil, fmt.Errorf("failed to load theme: %w", err)
	}
	if ok && validTheme(theme) {
		s.theme = theme
	}

	collapsed, ok, err := storage.Get(ctx, clientID, domain.StorageKeyMenuCollapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu state: %w", err)
	}
	if ok {
		s.menuCollapsed, _ = strconv.ParseBool(collapsed)
	}

	return s, nil
}

func validTheme(theme string) bool {
	return theme == domain.ThemeLight || theme == domain.ThemeDark
}

// Token отдает bearer-токен клиента.
func (s *AppStateContainer) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot возвращает копию состояния для чтения.
func (s *AppStateContainer) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SignIn сохраняет токен и пользователя, извлеченного из него.
func (s *AppStateContainer) SignIn(ctx context.Context, token string) (domain.SessionSnapshot, error) {
	if token == "" {
		return domain.SessionSnapshot{}, domain.ErrInvalidToken
	}
	user, err := s.decoder.Decode(ctx, token)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(ctx, s.clientID, domain.StorageKeyToken, token); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.storage.Set(ctx, s.clientID, domain.StorageKeyUser, string(rawUser)); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to store user: %w", err)
	}
	s.token = token
	s.user = user

	contextkeys.LoggerFromContext(ctx).Info("Client signed in", port.Fields{"client_id": s.clientID, "user_id": user.UserID})
	return s.snapshotLocked(), nil
}

// SignOut удаляет токен и пользователя. Тема и меню остаются.
func (s *AppStateContainer) SignOut(ctx context.Context) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Remove(ctx, s.clientID, domain.StorageKeyToken); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to remove token: %w", err)
	}
	if err := s.storage.Remove(ctx, s.clientID, domain.StorageKeyUser); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to remove user: %w", err)
	}
	s.token = ""
	s.user = nil
	return s.snapshotLocked(), nil
}

// SetTheme переключает тему интерфейса.
func (s *AppStateContainer) SetTheme(ctx context.Context, theme string) (domain.SessionSnapshot, error) {
	if !validTheme(theme) {
		return domain.SessionSnapshot{}, fmt.Errorf("unknown theme %q", theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(ctx, s.clientID, domain.StorageKeyTheme, theme); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to store theme: %w", err)
	}
	s.theme = theme
	return s.snapshotLocked(), nil
}

// SetMenuCollapsed сворачивает или разворачивает боковое меню.
func (s *AppStateContainer) SetMenuCollapsed(ctx context.Context, collapsed bool) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(ctx, s.clientID, domain.StorageKeyMenuCollapsed, strconv.FormatBool(collapsed)); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("failed to store menu state: %w", err)
	}
	s.menuCollapsed = collapsed
	return s.snapshotLocked(), nil
}

func (s *AppStateContainer) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Authenticated: s.token != "",
		Theme:         s.theme,
		MenuCollapsed: s.menuCollapsed,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

// AppStateStore выдает контейнер состояния по идентификатору клиента.
// Контейнер загружается из хранилища один раз и дальше живет в памяти.
type AppStateStore struct {
	storage port.LocalStoragePort
	decoder port.TokenDecoderPort

	mu         sync.Mutex
	containers map[string]*AppStateContainer
}

func NewAppStateStore(storage port.LocalStoragePort, decoder port.TokenDecoderPort) *AppStateStore {
	return &AppStateStore{
		storage:    storage,
		decoder:    decoder,
		containers: make(map[string]*AppStateContainer),
	}
}

// ForClient возвращает контейнер клиента, загружая его при первом обращении.
func (st *AppStateStore) ForClient(ctx context.Context, clientID string) (*AppStateContainer, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if c, ok := st.containers[clientID]; ok {
		return c, nil
	}
	c, err := LoadAppState(ctx, clientID, st.storage, st.decoder)
	if err != nil {
		return nil, err
	}
	st.containers[clientID] = c
	return c, nil
}
