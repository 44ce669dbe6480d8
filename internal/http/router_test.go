package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/webthreads/internal/config"
	apierrors "github.com/pribylovaa/webthreads/internal/errors"
	apihttp "github.com/pribylovaa/webthreads/internal/http"
	"github.com/pribylovaa/webthreads/internal/http/middleware"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/service"
	"github.com/pribylovaa/webthreads/internal/storage/memory"
)

// downStorage — хранилище в памяти, которое «потеряло» соединение.
type downStorage struct{ *memory.Memory }

func (downStorage) Ping(context.Context) error { return context.DeadlineExceeded }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(memory.New(), nil, config.Config{Limits: config.LimitsConfig{MaxTextLength: 100}})
	srv := httptest.NewServer(apihttp.NewRouter(svc, apihttp.Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		BasePath: "/api",
		Metrics:  middleware.NewMetrics(prometheus.NewRegistry()),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRouter_Health(t *testing.T) {
	srv := newServer(t)

	var h models.HealthResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", nil, &h))
	require.Equal(t, models.HealthResponse{Status: "ok", Database: "connected"}, h)
}

func TestRouter_HealthDisconnected(t *testing.T) {
	svc := service.New(downStorage{memory.New()}, nil, config.Config{})
	srv := httptest.NewServer(apihttp.NewRouter(svc, apihttp.Options{BasePath: "/api"}))
	defer srv.Close()

	var h models.HealthResponse
	require.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/health", nil, &h))
	require.Equal(t, models.DatabaseDisconnected, h.Database)
}

// TestRouter_FullFlow — комментарий, вложенные ответы, реакции, авторство и удаление.
func TestRouter_FullFlow(t *testing.T) {
	srv := newServer(t)
	alice := models.User{Name: "Alice", Email: "a@x"}
	bob := models.User{Name: "Bob", Email: "b@x"}

	var c models.Comment
	status := do(t, srv, http.MethodPost, "/api/comments",
		models.CreateCommentRequest{URL: "https://x.test", Text: "hi", User: alice}, &c)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, c.ID)

	var list []models.Comment
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/comments?url=https://x.test", nil, &list))
	require.Len(t, list, 1)

	var one models.Comment
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/comments/"+c.ID, nil, &one))
	require.Equal(t, c.ID, one.ID)

	// Ответ и ответ на ответ.
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/comments/"+c.ID+"/replies",
		models.CreateReplyRequest{Text: "r1", User: bob}, &c))
	r1 := c.Replies[0].ID
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/comments/"+c.ID+"/replies",
		models.CreateReplyRequest{Text: "r1.1", User: alice, ParentReplyID: r1}, &c))
	r11 := c.Replies[0].Replies[0].ID

	// Реакции.
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/comments/"+c.ID+"/reaction",
		models.ReactionRequest{Type: "trust", UserEmail: "b@x"}, &c))
	require.Equal(t, 1, c.Trusts)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/comments/"+c.ID+"/replies/"+r11+"/reaction",
		models.ReactionRequest{Type: "dislike", UserEmail: "b@x"}, &c))
	require.Equal(t, []string{"b@x"}, c.Replies[0].Replies[0].DislikedBy)

	// Правка ответа чужим пользователем — 403.
	var e apierrors.ErrorResponse
	require.Equal(t, http.StatusForbidden, do(t, srv, http.MethodPut, "/api/comments/"+c.ID+"/replies/"+r11,
		models.UpdateTextRequest{Text: "x", UserEmail: "b@x"}, &e))
	require.Equal(t, "not authorized", e.Error)
	require.NotEmpty(t, e.RequestID)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/comments/"+c.ID+"/replies/"+r11,
		models.UpdateTextRequest{Text: "edited", UserEmail: "a@x"}, &c))
	require.Equal(t, "edited", c.Replies[0].Replies[0].Text)

	// Удаление родителя уносит поддерево.
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodDelete, "/api/comments/"+c.ID+"/replies/"+r1+"?userEmail=b@x", nil, &c))
	require.Empty(t, c.Replies)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/comments/"+c.ID,
		models.UpdateTextRequest{Text: "hello", UserEmail: "a@x"}, &c))
	require.Equal(t, "hello", c.Text)

	require.Equal(t, http.StatusForbidden, do(t, srv, http.MethodDelete, "/api/comments/"+c.ID+"?userEmail=b@x", nil, nil))

	var msg models.MessageResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodDelete, "/api/comments/"+c.ID+"?userEmail=a@x", nil, &msg))
	require.NotEmpty(t, msg.Message)

	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/comments/"+c.ID, nil, &e))
	require.Equal(t, "not found", e.Error)
}

func TestRouter_BadInput(t *testing.T) {
	srv := newServer(t)

	var e apierrors.ErrorResponse
	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/comments",
		map[string]any{"url": "u", "text": "t", "unknown": 1}, &e))
	require.Equal(t, "invalid_argument", e.Code)

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/comments", nil, &e))

	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPut, "/api/comments/ghost/reaction",
		models.ReactionRequest{Type: "like", UserEmail: "b@x"}, &e))

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/comments/ghost/reaction",
		models.ReactionRequest{Type: "meh", UserEmail: "b@x"}, &e))
}

func TestRouter_NoBasePath(t *testing.T) {
	svc := service.New(memory.New(), nil, config.Config{})
	srv := httptest.NewServer(apihttp.NewRouter(svc, apihttp.Options{}))
	defer srv.Close()

	var list []models.Comment
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/comments?url=u", nil, &list))
	require.Empty(t, list)
}
