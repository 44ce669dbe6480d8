package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/webthreads/internal/events"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/replytree"
	"github.com/pribylovaa/webthreads/pkg/log"
)

// AddReplyInput — ответ на комментарий (ParentReplyID пуст) или на ответ любой глубины.
type AddReplyInput struct {
	CommentID     string
	ParentReplyID string
	Text          string
	User          models.User
}

// EditReplyInput — изменение текста ответа автором.
type EditReplyInput struct {
	CommentID      string
	ReplyID        string
	Text           string
	RequesterEmail string
}

// AddReply добавляет ответ в конец списка детей родителя и возвращает обновлённый комментарий.
func (s *Service) AddReply(ctx context.Context, in AddReplyInput) (*models.Comment, error) {
	const op = "service/replies/AddReply"

	in.CommentID = strings.TrimSpace(in.CommentID)
	in.ParentReplyID = strings.TrimSpace(in.ParentReplyID)
	in.User.Email = strings.TrimSpace(in.User.Email)
	in.User.Name = strings.TrimSpace(in.User.Name)

	lg := log.From(ctx).With(
		"op", op,
		"comment_id", in.CommentID,
		"parent_reply_id", in.ParentReplyID,
		"user_email", in.User.Email,
	)

	if in.CommentID == "" || in.User.Email == "" {
		lg.Warn("invalid argument: empty comment id or user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.validateText(in.Text)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	ts := now()
	reply := models.Reply{
		ID:        uuid.NewString(),
		Text:      text,
		User:      in.User,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	reply.Normalize()

	out, err := s.storage.UpdateComment(ctx, in.CommentID, func(c *models.Comment) error {
		return replytree.InsertChild(&c.Replies, in.ParentReplyID, reply)
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Info("reply created", "reply_id", reply.ID)
	s.publish(ctx, lg, events.Event{
		Type:      events.ReplyCreated,
		CommentID: out.ID,
		ReplyID:   reply.ID,
		URL:       out.URL,
		Actor:     in.User.Email,
	})

	return out, nil
}

// EditReply меняет текст ответа на любой глубине. Только автор ответа.
func (s *Service) EditReply(ctx context.Context, in EditReplyInput) (*models.Comment, error) {
	const op = "service/replies/EditReply"

	in.CommentID = strings.TrimSpace(in.CommentID)
	in.ReplyID = strings.TrimSpace(in.ReplyID)
	in.RequesterEmail = strings.TrimSpace(in.RequesterEmail)

	lg := log.From(ctx).With("op", op, "comment_id", in.CommentID, "reply_id", in.ReplyID, "user_email", in.RequesterEmail)

	if in.CommentID == "" || in.ReplyID == "" || in.RequesterEmail == "" {
		lg.Warn("invalid argument: empty comment id, reply id or user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	text, err := s.validateText(in.Text)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	out, err := s.storage.UpdateComment(ctx, in.CommentID, func(c *models.Comment) error {
		return replytree.Update(c.Replies, in.ReplyID, func(r *models.Reply) error {
			if err := authorize(r.User.Email, in.RequesterEmail); err != nil {
				return err
			}

			r.Text = text
			r.UpdatedAt = now()
			return nil
		})
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Info("reply edited")
	s.publish(ctx, lg, events.Event{
		Type:      events.ReplyEdited,
		CommentID: out.ID,
		ReplyID:   in.ReplyID,
		URL:       out.URL,
		Actor:     in.RequesterEmail,
	})

	return out, nil
}

// DeleteReply удаляет ответ вместе с поддеревом. Только автор ответа.
func (s *Service) DeleteReply(ctx context.Context, commentID, replyID, requesterEmail string) (*models.Comment, error) {
	const op = "service/replies/DeleteReply"

	commentID = strings.TrimSpace(commentID)
	replyID = strings.TrimSpace(replyID)
	requesterEmail = strings.TrimSpace(requesterEmail)

	lg := log.From(ctx).With("op", op, "comment_id", commentID, "reply_id", replyID, "user_email", requesterEmail)

	if commentID == "" || replyID == "" || requesterEmail == "" {
		lg.Warn("invalid argument: empty comment id, reply id or user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var removed int
	out, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
		target, ok := replytree.Find(c.Replies, replyID)
		if !ok {
			return replytree.ErrNotFound
		}

		if err := authorize(target.User.Email, requesterEmail); err != nil {
			return err
		}

		node, err := replytree.Remove(&c.Replies, replyID)
		if err != nil {
			return err
		}

		removed = 1 + replytree.Count(node.Replies)
		return nil
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Info("reply deleted", "removed_nodes", removed)
	s.publish(ctx, lg, events.Event{
		Type:      events.ReplyDeleted,
		CommentID: out.ID,
		ReplyID:   replyID,
		URL:       out.URL,
		Actor:     requesterEmail,
	})

	return out, nil
}
