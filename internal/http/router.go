package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/webthreads/internal/http/handlers"
	"github.com/pribylovaa/webthreads/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — API регистрируется на корне.
	Metrics  *middleware.Metrics
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// GET /health всегда на корне: по нему клиенты выбирают сервер.
func NewRouter(svc handlers.CommentService, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),             // безопасно ловим паники
		middleware.RequestID(),           // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),  // кладём request-scoped логгер в контекст и логируем
		opts.Metrics.Middleware(),        // счётчики по шаблону маршрута
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
	)

	h := handlers.New(svc)

	root.Get("/health", h.Health)

	if opts.BasePath != "" && opts.BasePath != "/" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// comments
	r.Get("/comments", h.ListComments)
	r.Post("/comments", h.CreateComment)
	r.Get("/comments/{id}", h.GetCommentByID)
	r.Put("/comments/{id}", h.EditComment)
	r.Delete("/comments/{id}", h.DeleteComment)

	// replies
	r.Post("/comments/{id}/replies", h.AddReply)
	r.Put("/comments/{id}/replies/{replyId}", h.EditReply)
	r.Delete("/comments/{id}/replies/{replyId}", h.DeleteReply)

	// reactions
	r.Put("/comments/{id}/reaction", h.ReactComment)
	r.Put("/comments/{id}/replies/{replyId}/reaction", h.ReactReply)
}
