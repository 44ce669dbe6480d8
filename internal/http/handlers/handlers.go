package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/service"
)

// CommentService — операции сервисного слоя, нужные HTTP-хендлерам.
type CommentService interface {
	CreateComment(ctx context.Context, in service.CreateCommentInput) (*models.Comment, error)
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, url string) ([]models.Comment, error)
	EditComment(ctx context.Context, in service.EditCommentInput) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, requesterEmail string) error
	AddReply(ctx context.Context, in service.AddReplyInput) (*models.Comment, error)
	EditReply(ctx context.Context, in service.EditReplyInput) (*models.Comment, error)
	DeleteReply(ctx context.Context, commentID, replyID, requesterEmail string) (*models.Comment, error)
	React(ctx context.Context, in service.ReactInput) (*models.Comment, error)
	Health(ctx context.Context) bool
}

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc CommentService
}

func New(svc CommentService) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
// Любая ошибка разбора — ErrInvalidArgument.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w: %v", service.ErrInvalidArgument, err)
	}
	return nil
}
