package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	apierrors "github.com/pribylovaa/webthreads/internal/errors"
	logctx "github.com/pribylovaa/webthreads/pkg/log"
)

// capHandler — тестовый slog.Handler: копит attrs из With(...) и последней записи.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func TestChain_Order(t *testing.T) {
	order := []string{}

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mw("m1"), mw("m2")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chain", nil))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenHeader, seenCtx string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get("X-Request-Id")
		seenCtx = RequestIDFrom(r.Context())
	}), RequestID())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seenHeader)
	require.Equal(t, seenHeader, seenCtx)
	require.Equal(t, seenHeader, rr.Header().Get("X-Request-Id"))
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "given")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "given", rr.Header().Get("X-Request-Id"))
	require.Empty(t, RequestIDFrom(context.Background()))
}

func TestLogging_PutsLoggerIntoContextAndLogs(t *testing.T) {
	ch := &capHandler{}
	var inner *slog.Logger

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = logctx.From(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("abc"))
	}), RequestID(), Logging(slog.New(ch)))

	req := httptest.NewRequest(http.MethodPost, "/api/comments", nil)
	req.Header.Set("X-Request-Id", "rid-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)
	require.Equal(t, 1, ch.count)
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelInfo, ch.lastLvl)
	require.Equal(t, "rid-7", ch.attrs["request_id"])
	require.Equal(t, "POST", ch.attrs["method"])
	require.Equal(t, "/api/comments", ch.attrs["path"])
	require.EqualValues(t, http.StatusCreated, ch.attrs["status"])
	require.EqualValues(t, 3, ch.attrs["bytes"])
}

// Сгенерированный id попадает и в ответ, и в лог запроса.
func TestLogging_UsesGeneratedRequestID(t *testing.T) {
	ch := &capHandler{}
	var fromCtx string

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFrom(r.Context())
	}), RequestID(), Logging(slog.New(ch)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, fromCtx)
	require.Equal(t, fromCtx, rr.Header().Get("X-Request-Id"))
	require.Equal(t, fromCtx, ch.attrs["request_id"])
}

func TestRecover_WritesInternalError(t *testing.T) {
	ch := &capHandler{}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}), Recover(), RequestID(), Logging(slog.New(ch)))

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/p", nil)) })

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Code)
	require.Equal(t, "internal error", body.Error)
	require.NotContains(t, rr.Body.String(), "kaboom")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var has bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has = r.Context().Deadline()
	}), Timeout(time.Second))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, has)
}

func TestTimeout_RespectsExistingAndZero(t *testing.T) {
	var dl time.Time
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, _ = r.Context().Deadline()
	}), Timeout(time.Hour))

	want := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	require.True(t, want.Equal(dl))

	var has bool
	noop := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has = r.Context().Deadline()
	}), Timeout(0))
	noop.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, has)
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/comments/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/comments/abc", nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/comments/{id}", "404")))
	require.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}), m.Middleware())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
}
