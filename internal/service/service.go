// service содержит бизнес-логику webthreads: валидацию, проверку авторства,
// операции над деревом ответов и реакциями поверх storage.Storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pribylovaa/webthreads/internal/config"
	"github.com/pribylovaa/webthreads/internal/events"
	"github.com/pribylovaa/webthreads/internal/reaction"
	"github.com/pribylovaa/webthreads/internal/replytree"
	"github.com/pribylovaa/webthreads/internal/storage"
	"github.com/pribylovaa/webthreads/pkg/log"
)

var (
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden — запрашивающий не является автором сущности.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — комментарий или ответ (на любой глубине) не найден.
	ErrNotFound = errors.New("not found")
	// ErrInternal — внутренняя ошибка (хранилище недоступно/конфликт/контекст).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика комментариев.
type Service struct {
	storage storage.Storage
	events  events.Publisher
	cfg     config.Config
}

// New создает новый экземпляр Service. nil-публикатор заменяется на events.Nop.
func New(st storage.Storage, pub events.Publisher, cfg config.Config) *Service {
	if pub == nil {
		pub = events.Nop{}
	}

	return &Service{
		storage: st,
		events:  pub,
		cfg:     cfg,
	}
}

// Health сообщает, доступно ли хранилище.
func (s *Service) Health(ctx context.Context) bool {
	if err := s.storage.Ping(ctx); err != nil {
		log.From(ctx).Warn("storage ping failed", "op", "service/Health", "err", err)
		return false
	}

	return true
}

// now — метка времени с точностью хранилища (миллисекунды, UTC).
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// validateText нормализует текст и проверяет его длину.
func (s *Service) validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty text", ErrInvalidArgument)
	}

	if limit := s.cfg.Limits.MaxTextLength; limit > 0 && utf8.RuneCountInString(text) > limit {
		return "", fmt.Errorf("%w: text longer than %d characters", ErrInvalidArgument, limit)
	}

	return text, nil
}

// authorize — мутирующие операции доступны только автору.
func authorize(author, requester string) error {
	if author != requester {
		return ErrForbidden
	}

	return nil
}

// mapError транслирует ошибки нижних слоёв в сервисные и логирует их
// (Warn — ошибки клиента, Error — ошибки хранилища).
func mapError(lg *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, reaction.ErrInvalidAction):
		lg.Warn("invalid argument", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	case errors.Is(err, ErrForbidden):
		lg.Warn("forbidden: requester is not the author")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("comment not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, replytree.ErrNotFound):
		lg.Warn("reply not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		lg.Error("storage error", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}

// publish отправляет событие; ошибка публикации не влияет на результат операции.
func (s *Service) publish(ctx context.Context, lg *slog.Logger, e events.Event) {
	e.At = now()
	if err := s.events.Publish(ctx, e); err != nil {
		lg.Error("event publish failed", "event", string(e.Type), "err", err)
	}
}
