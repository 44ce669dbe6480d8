package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/pribylovaa/webthreads/internal/failover"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/registry"
	"github.com/stretchr/testify/require"
)

const (
	localURL = "http://local.test"
	cloudURL = "http://cloud.test"
)

// newTestClient собирает клиент с выбранным локальным сервером.
func newTestClient(t *testing.T, cloudEnabled bool) *Client {
	t.Helper()

	reg := registry.New(
		registry.Descriptor{APIBaseURL: localURL + "/api", BaseURL: localURL},
		registry.Descriptor{APIBaseURL: cloudURL + "/api", BaseURL: cloudURL, Enabled: cloudEnabled},
		nil,
	)
	require.NoError(t, reg.SetCurrent(context.Background(), registry.KeyLocal))

	fo := failover.New(reg, failover.Options{
		HTTPClient: &http.Client{},
		Timeout:    time.Second,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(fo)
}

func sampleComment() models.Comment {
	return models.Comment{
		ID:   "c1",
		URL:  "https://example.com/a",
		Text: "hello",
		User: models.User{Name: "Ann", Email: "ann@example.com"},
	}
}

func TestListComments(t *testing.T) {
	defer gock.Off()

	gock.New(localURL).
		Get("/api/comments").
		MatchParam("url", "https://example.com/a").
		Reply(http.StatusOK).
		JSON([]models.Comment{sampleComment()})

	c := newTestClient(t, false)

	got, err := c.ListComments(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "c1", got[0].ID)
	require.True(t, gock.IsDone())
}

func TestCreateComment(t *testing.T) {
	defer gock.Off()

	in := models.CreateCommentRequest{
		URL:  "https://example.com/a",
		Text: "hello",
		User: models.User{Name: "Ann", Email: "ann@example.com"},
	}

	gock.New(localURL).
		Post("/api/comments").
		MatchType("json").
		JSON(in).
		Reply(http.StatusCreated).
		JSON(sampleComment())

	c := newTestClient(t, false)

	got, err := c.CreateComment(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)
	require.Equal(t, "ann@example.com", got.User.Email)
	require.True(t, gock.IsDone())
}

func TestDeleteComment(t *testing.T) {
	defer gock.Off()

	gock.New(localURL).
		Delete("/api/comments/c1").
		MatchParam("userEmail", "ann@example.com").
		Reply(http.StatusOK).
		JSON(models.MessageResponse{Message: "comment deleted"})

	c := newTestClient(t, false)

	msg, err := c.DeleteComment(context.Background(), "c1", "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, "comment deleted", msg)
}

func TestReplyAndReactionPaths(t *testing.T) {
	defer gock.Off()

	gock.New(localURL).
		Post("/api/comments/c1/replies").
		Reply(http.StatusCreated).
		JSON(sampleComment())
	gock.New(localURL).
		Put("/api/comments/c1/replies/r1/reaction").
		Reply(http.StatusOK).
		JSON(sampleComment())
	gock.New(localURL).
		Put("/api/comments/c1/reaction").
		Reply(http.StatusOK).
		JSON(sampleComment())
	gock.New(localURL).
		Delete("/api/comments/c1/replies/r1").
		MatchParam("userEmail", "bob@example.com").
		Reply(http.StatusOK).
		JSON(sampleComment())

	c := newTestClient(t, false)
	ctx := context.Background()

	_, err := c.AddReply(ctx, "c1", models.CreateReplyRequest{
		Text: "reply",
		User: models.User{Name: "Bob", Email: "bob@example.com"},
	})
	require.NoError(t, err)

	_, err = c.React(ctx, "c1", "r1", "like", "bob@example.com")
	require.NoError(t, err)

	_, err = c.React(ctx, "c1", "", "trust", "bob@example.com")
	require.NoError(t, err)

	_, err = c.DeleteReply(ctx, "c1", "r1", "bob@example.com")
	require.NoError(t, err)

	require.True(t, gock.IsDone())
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"error":"not authorized","code":"forbidden","request_id":"req-1"}`,
			want:   ErrForbidden,
			msg:    "not authorized",
		},
		{
			name:   "invalid",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid argument","code":"invalid_argument"}`,
			want:   ErrInvalidArgument,
			msg:    "invalid argument",
		},
		{
			name:   "not found without body",
			status: http.StatusNotFound,
			body:   `oops`,
			want:   ErrNotFound,
			msg:    "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()

			gock.New(localURL).
				Put("/api/comments/c1").
				Reply(tt.status).
				BodyString(tt.body)

			c := newTestClient(t, false)

			_, err := c.EditComment(context.Background(), "c1", "new", "bob@example.com")
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.msg, apiErr.Message)
		})
	}
}

func TestServerErrorWithoutFallback(t *testing.T) {
	defer gock.Off()

	gock.New(localURL).
		Get("/api/comments/c1").
		Reply(http.StatusInternalServerError).
		BodyString(`{"error":"storage unavailable","code":"internal"}`)

	c := newTestClient(t, false)

	_, err := c.Comment(context.Background(), "c1")
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestFailoverToCloud(t *testing.T) {
	defer gock.Off()

	gock.New(localURL).
		Get("/api/comments/c1").
		Reply(http.StatusServiceUnavailable)
	gock.New(localURL).
		Get("/health").
		Reply(http.StatusServiceUnavailable).
		JSON(models.HealthResponse{Status: "error", Database: models.DatabaseDisconnected})
	gock.New(cloudURL).
		Get("/health").
		Reply(http.StatusOK).
		JSON(models.HealthResponse{Status: "ok", Database: models.DatabaseConnected})
	gock.New(cloudURL).
		Get("/api/comments/c1").
		Reply(http.StatusOK).
		JSON(sampleComment())

	c := newTestClient(t, true)

	got, err := c.Comment(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)

	cur, ok := c.fo.Registry().Current()
	require.True(t, ok)
	require.Equal(t, registry.KeyCloud, cur.Key)
	require.True(t, gock.IsDone())
}
