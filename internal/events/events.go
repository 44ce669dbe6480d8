// Package events публикует доменные события изменения комментариев.
// Публикация best-effort: ошибка логируется и не откатывает запись.
package events

import (
	"context"
	"time"
)

// Type — тип доменного события.
type Type string

const (
	CommentCreated  Type = "comment.created"
	CommentEdited   Type = "comment.edited"
	CommentDeleted  Type = "comment.deleted"
	ReplyCreated    Type = "reply.created"
	ReplyEdited     Type = "reply.edited"
	ReplyDeleted    Type = "reply.deleted"
	ReactionApplied Type = "reaction.applied"
)

// Event — сообщение об изменении одного документа.
// ReplyID пуст для событий уровня комментария; Reaction заполнен только для reaction.applied.
type Event struct {
	Type      Type      `json:"type"`
	CommentID string    `json:"commentId"`
	ReplyID   string    `json:"replyId,omitempty"`
	URL       string    `json:"url"`
	Actor     string    `json:"actor"`
	Reaction  string    `json:"reaction,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher отправляет события во внешнюю шину.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop — публикатор, который ничего не делает (шина не настроена).
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
