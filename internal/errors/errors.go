// errors стандартизирует ответы об ошибках HTTP-слоя webthreads.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - корректный HTTP-статус (400/403/404/500);
//   - краткое безопасное сообщение без утечки деталей.
//
// Обратный маппинг (статус -> ошибка) живёт в клиенте: internal/client.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/webthreads/internal/service"
)

// ErrorResponse — единый формат ошибки для клиентов.
// Error — человекочитаемое сообщение.
// Code — короткий стабильный код для машиночитаемой обработки.
// RequestID — из X-Request-Id, если есть (для трассировки).
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не маскировать баг;
//   - ErrInvalidArgument -> 400, ErrForbidden -> 403, ErrNotFound -> 404;
//   - ErrInternal (хранилище) -> 500 "storage unavailable";
//   - прочее (паника, неожиданная ошибка) -> 500 "internal error".
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"}
	case stderrors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid argument", Code: "invalid_argument"}
	case stderrors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "not authorized", Code: "forbidden"}
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"}
	case stderrors.Is(err, service.ErrInternal):
		return http.StatusInternalServerError, ErrorResponse{Error: "storage unavailable", Code: "internal"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"}
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус/тело и добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
