// memory — реализация storage.Storage в памяти процесса.
// Используется для локального/офлайн сервера и в тестах сервисного слоя.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/storage"
)

// entry — документ со своим замком: изменения разных документов не блокируют друг друга.
type entry struct {
	mu sync.Mutex
	c  models.Comment
}

// Memory хранит документы в map под RWMutex.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*entry
}

// New создаёт пустое хранилище.
func New() *Memory {
	return &Memory{docs: make(map[string]*entry)}
}

func (m *Memory) lookup(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.docs[id]
	return e, ok
}

func (m *Memory) CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	const op = "storage/memory/CreateComment"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c = c.Clone()
	c.Normalize()
	c.Version = 1

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[c.ID]; exists {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
	}
	m.docs[c.ID] = &entry{c: c}

	out := c.Clone()
	return &out, nil
}

func (m *Memory) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/memory/CommentByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	e.mu.Lock()
	out := e.c.Clone()
	e.mu.Unlock()

	return &out, nil
}

func (m *Memory) ListByURL(ctx context.Context, url string) ([]models.Comment, error) {
	const op = "storage/memory/ListByURL"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.RLock()
	entries := make([]*entry, 0, len(m.docs))
	for _, e := range m.docs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, e := range entries {
		e.mu.Lock()
		if e.c.URL == url {
			out = append(out, e.c.Clone())
		}
		e.mu.Unlock()
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// UpdateComment применяет mutate к копии под замком документа.
// Пока мутатор работает, другие изменения этого документа ждут.
func (m *Memory) UpdateComment(ctx context.Context, id string, mutate storage.Mutator) (*models.Comment, error) {
	const op = "storage/memory/UpdateComment"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Документ мог быть удалён, пока ждали замок.
	if cur, still := m.lookup(id); !still || cur != e {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	next := e.c.Clone()
	if err := mutate(&next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next.ID = e.c.ID
	next.Version = e.c.Version + 1
	next.Normalize()
	e.c = next

	out := next.Clone()
	return &out, nil
}

func (m *Memory) DeleteComment(ctx context.Context, id string, check func(c models.Comment) error) error {
	const op = "storage/memory/DeleteComment"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if check != nil {
		if err := check(e.c.Clone()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, exists := m.docs[id]; !exists || cur != e {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(m.docs, id)

	return nil
}

// Ping всегда успешен: хранилище в памяти доступно, пока жив процесс.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close(context.Context) error {
	return nil
}
