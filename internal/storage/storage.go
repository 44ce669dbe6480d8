package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/webthreads/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конкурентная запись не удалась после всех попыток
	// либо коллизия идентификатора при вставке.
	ErrConflict = errors.New("conflict")
)

// Mutator изменяет копию документа перед условной записью.
// Ошибка мутатора прерывает запись и возвращается вызывающему (обёрнутой).
type Mutator func(c *models.Comment) error

// Storage описывает операции над документами комментариев.
// Один документ — корневой комментарий вместе со всем деревом ответов;
// любая операция над деревом атомарна в пределах документа.
type Storage interface {
	// CreateComment сохраняет новый комментарий. ID, CreatedAt, UpdatedAt
	// выставляет вызывающий; Version хранилище инициализирует само.
	// Возможные ошибки: ErrConflict.
	CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error)

	// CommentByID возвращает комментарий по идентификатору.
	// Если запись не найдена — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// ListByURL возвращает комментарии страницы. Сортировка: сначала новые.
	ListByURL(ctx context.Context, url string) ([]models.Comment, error)

	// UpdateComment выполняет атомарное read-modify-write одного документа.
	// Возможные ошибки: ErrNotFound, ErrConflict, ошибка мутатора.
	UpdateComment(ctx context.Context, id string, mutate Mutator) (*models.Comment, error)

	// DeleteComment удаляет документ целиком, если check (может быть nil)
	// не вернул ошибку. Возможные ошибки: ErrNotFound, ошибка check.
	DeleteComment(ctx context.Context, id string, check func(c models.Comment) error) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
