package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/webthreads/internal/events"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/pkg/log"
)

// CreateCommentInput — создание корневого комментария страницы.
type CreateCommentInput struct {
	URL  string
	Text string
	User models.User
}

// EditCommentInput — изменение текста комментария автором.
type EditCommentInput struct {
	ID             string
	Text           string
	RequesterEmail string
}

// CreateComment — бизнес-операция создания комментария.
//
// Валидация: URL, Text и User.Email нормализуются (TrimSpace) и не должны быть пустыми;
// длина текста ограничена limits.max_text_length.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	in.URL = strings.TrimSpace(in.URL)
	in.User.Email = strings.TrimSpace(in.User.Email)
	in.User.Name = strings.TrimSpace(in.User.Name)

	lg := log.From(ctx).With("op", op, "url", in.URL, "user_email", in.User.Email)

	if in.URL == "" {
		lg.Warn("invalid argument: empty url")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.User.Email == "" {
		lg.Warn("invalid argument: empty user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.validateText(in.Text)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	ts := now()
	out, err := s.storage.CreateComment(ctx, models.Comment{
		ID:        uuid.NewString(),
		URL:       in.URL,
		Text:      text,
		User:      in.User,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Info("comment created", "comment_id", out.ID)
	s.publish(ctx, lg, events.Event{Type: events.CommentCreated, CommentID: out.ID, URL: out.URL, Actor: out.User.Email})

	return out, nil
}

// CommentByID возвращает комментарий вместе с деревом ответов.
func (s *Service) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "service/comments/CommentByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "comment_id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	out, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	return out, nil
}

// ListComments возвращает все комментарии страницы, сначала новые.
func (s *Service) ListComments(ctx context.Context, url string) ([]models.Comment, error) {
	const op = "service/comments/ListComments"

	url = strings.TrimSpace(url)
	lg := log.From(ctx).With("op", op, "url", url)

	if url == "" {
		lg.Warn("invalid argument: empty url")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	out, err := s.storage.ListByURL(ctx, url)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	return out, nil
}

// EditComment меняет текст комментария. Только автор; иначе ErrForbidden без изменений.
func (s *Service) EditComment(ctx context.Context, in EditCommentInput) (*models.Comment, error) {
	const op = "service/comments/EditComment"

	in.ID = strings.TrimSpace(in.ID)
	in.RequesterEmail = strings.TrimSpace(in.RequesterEmail)

	lg := log.From(ctx).With("op", op, "comment_id", in.ID, "user_email", in.RequesterEmail)

	if in.ID == "" || in.RequesterEmail == "" {
		lg.Warn("invalid argument: empty id or user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.validateText(in.Text)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	out, err := s.storage.UpdateComment(ctx, in.ID, func(c *models.Comment) error {
		if err := authorize(c.User.Email, in.RequesterEmail); err != nil {
			return err
		}

		c.Text = text
		c.UpdatedAt = now()
		return nil
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Info("comment edited")
	s.publish(ctx, lg, events.Event{Type: events.CommentEdited, CommentID: out.ID, URL: out.URL, Actor: in.RequesterEmail})

	return out, nil
}

// DeleteComment удаляет комментарий вместе со всем деревом ответов. Только автор.
func (s *Service) DeleteComment(ctx context.Context, id, requesterEmail string) error {
	const op = "service/comments/DeleteComment"

	id = strings.TrimSpace(id)
	requesterEmail = strings.TrimSpace(requesterEmail)

	lg := log.From(ctx).With("op", op, "comment_id", id, "user_email", requesterEmail)

	if id == "" || requesterEmail == "" {
		lg.Warn("invalid argument: empty id or user email")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var url string
	err := s.storage.DeleteComment(ctx, id, func(c models.Comment) error {
		url = c.URL
		return authorize(c.User.Email, requesterEmail)
	})
	if err != nil {
		return mapError(lg, op, err)
	}

	lg.Info("comment deleted")
	s.publish(ctx, lg, events.Event{Type: events.CommentDeleted, CommentID: id, URL: url, Actor: requesterEmail})

	return nil
}
