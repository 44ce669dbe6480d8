// Package registry описывает серверы-кандидаты клиента и выбранный «текущий» сервер.
//
// Кандидатов ровно два: локальный (включён всегда) и облачный (опционален).
// Выбор сохраняется в PreferenceStore, чтобы перезапуск клиента начинал
// с последнего рабочего сервера. Выключенный сервер не выбирается никогда,
// даже если он записан в сохранённом выборе.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pribylovaa/webthreads/internal/config"
)

// Ключи серверов.
const (
	KeyLocal = "local"
	KeyCloud = "cloud"
)

var (
	// ErrUnknownServer — ключ не соответствует ни одному серверу.
	ErrUnknownServer = errors.New("unknown server")
	// ErrServerDisabled — сервер выключен в конфигурации.
	ErrServerDisabled = errors.New("server disabled")
)

// Descriptor — описание сервера-кандидата.
// APIBaseURL — база для API-маршрутов, BaseURL — для GET /health.
type Descriptor struct {
	Key         string
	APIBaseURL  string
	BaseURL     string
	DisplayName string
	Enabled     bool
}

// Registry — потокобезопасный реестр с одним текущим сервером.
// Читатели во время переключения могут увидеть старое или новое значение.
type Registry struct {
	prefs PreferenceStore
	order []Descriptor // по приоритету: local, cloud

	mu      sync.RWMutex
	current string
}

// New создаёт реестр. Локальный сервер всегда включён; prefs == nil — выбор в памяти.
func New(local, cloud Descriptor, prefs PreferenceStore) *Registry {
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}

	local.Key, local.Enabled = KeyLocal, true
	cloud.Key = KeyCloud

	return &Registry{
		prefs: prefs,
		order: []Descriptor{local, cloud},
	}
}

// FromConfig собирает реестр из клиентской конфигурации.
func FromConfig(cfg config.ServersConfig, prefs PreferenceStore) *Registry {
	return New(
		Descriptor{
			APIBaseURL:  cfg.Local.APIBaseURL,
			BaseURL:     cfg.Local.BaseURL,
			DisplayName: cfg.Local.DisplayName,
		},
		Descriptor{
			APIBaseURL:  cfg.Cloud.APIBaseURL,
			BaseURL:     cfg.Cloud.BaseURL,
			DisplayName: cfg.Cloud.DisplayName,
			Enabled:     cfg.Cloud.Enabled,
		},
		prefs,
	)
}

// Candidates возвращает включённые серверы в порядке приоритета.
func (r *Registry) Candidates() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.order {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// Get возвращает описание сервера по ключу.
func (r *Registry) Get(key string) (Descriptor, bool) {
	for _, d := range r.order {
		if d.Key == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// HasFallback сообщает, есть ли на что переключаться (облако включено).
func (r *Registry) HasFallback() bool {
	return len(r.Candidates()) > 1
}

// Current возвращает текущий сервер; false — сервер ещё не выбран.
func (r *Registry) Current() (Descriptor, bool) {
	r.mu.RLock()
	key := r.current
	r.mu.RUnlock()

	if key == "" {
		return Descriptor{}, false
	}
	return r.Get(key)
}

// SetCurrent делает сервер текущим и сохраняет выбор.
// Выбор применяется в памяти даже если сохранить его не удалось.
func (r *Registry) SetCurrent(ctx context.Context, key string) error {
	d, ok := r.Get(key)
	if !ok {
		return fmt.Errorf("registry: %w: %q", ErrUnknownServer, key)
	}

	if !d.Enabled {
		return fmt.Errorf("registry: %w: %q", ErrServerDisabled, key)
	}

	r.mu.Lock()
	r.current = key
	r.mu.Unlock()

	if err := r.prefs.Save(ctx, key); err != nil {
		return fmt.Errorf("registry: save preference: %w", err)
	}

	return nil
}

// Restore читает сохранённый выбор и делает его текущим без сохранения.
// Неизвестный или выключенный ключ игнорируется (false, nil).
func (r *Registry) Restore(ctx context.Context) (Descriptor, bool, error) {
	key, err := r.prefs.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoPreference) {
			return Descriptor{}, false, nil
		}
		return Descriptor{}, false, fmt.Errorf("registry: load preference: %w", err)
	}

	d, ok := r.Get(key)
	if !ok || !d.Enabled {
		return Descriptor{}, false, nil
	}

	r.mu.Lock()
	r.current = key
	r.mu.Unlock()

	return d, true, nil
}
