package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/webthreads/internal/events"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/reaction"
	"github.com/pribylovaa/webthreads/internal/replytree"
	"github.com/pribylovaa/webthreads/pkg/log"
)

// ReactInput — реакция на комментарий (ReplyID пуст) или на ответ любой глубины.
type ReactInput struct {
	CommentID string
	ReplyID   string
	Type      string
	UserEmail string
}

// React применяет переключатель реакции к целевому узлу и возвращает обновлённый комментарий.
// Несуществующая цель — ErrNotFound; узел не создаётся.
func (s *Service) React(ctx context.Context, in ReactInput) (*models.Comment, error) {
	const op = "service/reactions/React"

	in.CommentID = strings.TrimSpace(in.CommentID)
	in.ReplyID = strings.TrimSpace(in.ReplyID)
	in.UserEmail = strings.TrimSpace(in.UserEmail)

	lg := log.From(ctx).With(
		"op", op,
		"comment_id", in.CommentID,
		"reply_id", in.ReplyID,
		"user_email", in.UserEmail,
		"type", in.Type,
	)

	if in.CommentID == "" || in.UserEmail == "" {
		lg.Warn("invalid argument: empty comment id or user email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	action, err := reaction.ParseAction(in.Type)
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	out, err := s.storage.UpdateComment(ctx, in.CommentID, func(c *models.Comment) error {
		if in.ReplyID == "" {
			return reaction.Apply(&c.Reactions, action, in.UserEmail)
		}

		return replytree.Update(c.Replies, in.ReplyID, func(r *models.Reply) error {
			return reaction.Apply(&r.Reactions, action, in.UserEmail)
		})
	})
	if err != nil {
		return nil, mapError(lg, op, err)
	}

	lg.Debug("reaction applied")
	s.publish(ctx, lg, events.Event{
		Type:      events.ReactionApplied,
		CommentID: out.ID,
		ReplyID:   in.ReplyID,
		URL:       out.URL,
		Actor:     in.UserEmail,
		Reaction:  string(action),
	})

	return out, nil
}
