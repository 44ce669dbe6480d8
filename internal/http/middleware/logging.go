package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/webthreads/pkg/log"
)

// Logging кладёт request-scoped логгер в контекст и пишет итоговую запись о запросе.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logctx.Into(r.Context(), l)

			rid := RequestIDFrom(ctx)
			if rid == "" {
				rid = r.Header.Get("X-Request-Id")
			}
			if rid != "" {
				ctx, _ = logctx.With(ctx, slog.String("request_id", rid))
			}
			r = r.WithContext(ctx)

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelInfo, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.Status()),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			)
		})
	}
}
