package registry

import (
	"context"
	"errors"
	"sync"
)

// ErrNoPreference — выбор сервера ещё не сохранялся.
var ErrNoPreference = errors.New("no stored preference")

// PreferenceStore — одна запись «активный сервер» -> ключ реестра.
type PreferenceStore interface {
	// Load возвращает сохранённый ключ или ErrNoPreference.
	Load(ctx context.Context) (string, error)
	// Save перезаписывает сохранённый ключ.
	Save(ctx context.Context, key string) error
}

// MemoryPreferences хранит выбор в памяти процесса.
type MemoryPreferences struct {
	mu  sync.Mutex
	key string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{}
}

func (m *MemoryPreferences) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key == "" {
		return "", ErrNoPreference
	}
	return m.key, nil
}

func (m *MemoryPreferences) Save(_ context.Context, key string) error {
	m.mu.Lock()
	m.key = key
	m.mu.Unlock()
	return nil
}
