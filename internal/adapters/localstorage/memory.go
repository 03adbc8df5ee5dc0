package localstorage_adapter

import (
	"context"
	"sync"
)

// MemoryStorage - хранилище в памяти процесса. Данные теряются при перезапуске.
type MemoryStorage struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{scopes: make(map[string]map[string]string)}
}

func (m *MemoryStorage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.scopes[scope][key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(ctx context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.scopes[scope]
	if !ok {
		values = make(map[string]string)
		m.scopes[scope] = values
	}
	values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes[scope], key)
	if len(m.scopes[scope]) == 0 {
		delete(m.scopes, scope)
	}
	return nil
}
