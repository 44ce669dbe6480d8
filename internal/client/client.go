// Package client — типизированный клиент HTTP+JSON API webthreads.
// Все вызовы идут через failover.Client.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/webthreads/internal/failover"
	"github.com/pribylovaa/webthreads/internal/models"
)

var (
	// ErrInvalidArgument — сервер отклонил входные данные (400).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden — запрашивающий не автор (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — комментарий или ответ не найден (404).
	ErrNotFound = errors.New("not found")
	// ErrServiceUnavailable — сервис недоступен и после переключения.
	ErrServiceUnavailable = failover.ErrServiceUnavailable
)

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status    int
	Message   string
	Code      string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d: %s (request_id=%s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is сопоставляет HTTP-статус с ошибками пакета.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Status == http.StatusBadRequest
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServiceUnavailable:
		return e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// errorBody — тело ошибки сервера.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// Client — клиент API комментариев.
type Client struct {
	fo *failover.Client
}

func New(fo *failover.Client) *Client {
	return &Client{fo: fo}
}

// ListComments — GET /comments?url=...
func (c *Client) ListComments(ctx context.Context, pageURL string) ([]models.Comment, error) {
	var out []models.Comment
	err := c.call(ctx, http.MethodGet, "/comments", url.Values{"url": {pageURL}}, nil, &out)
	return out, err
}

// Comment — GET /comments/{id}.
func (c *Client) Comment(ctx context.Context, id string) (*models.Comment, error) {
	var out models.Comment
	if err := c.call(ctx, http.MethodGet, commentPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateComment — POST /comments.
func (c *Client) CreateComment(ctx context.Context, in models.CreateCommentRequest) (*models.Comment, error) {
	return c.comment(ctx, http.MethodPost, "/comments", nil, in)
}

// EditComment — PUT /comments/{id}.
func (c *Client) EditComment(ctx context.Context, id, text, userEmail string) (*models.Comment, error) {
	return c.comment(ctx, http.MethodPut, commentPath(id), nil, models.UpdateTextRequest{Text: text, UserEmail: userEmail})
}

// DeleteComment — DELETE /comments/{id}?userEmail=...; возвращает сообщение сервера.
func (c *Client) DeleteComment(ctx context.Context, id, userEmail string) (string, error) {
	var out models.MessageResponse
	err := c.call(ctx, http.MethodDelete, commentPath(id), url.Values{"userEmail": {userEmail}}, nil, &out)
	return out.Message, err
}

// AddReply — POST /comments/{id}/replies. in.ParentReplyID пуст — ответ на комментарий.
func (c *Client) AddReply(ctx context.Context, commentID string, in models.CreateReplyRequest) (*models.Comment, error) {
	return c.comment(ctx, http.MethodPost, commentPath(commentID)+"/replies", nil, in)
}

// EditReply — PUT /comments/{id}/replies/{replyId}.
func (c *Client) EditReply(ctx context.Context, commentID, replyID, text, userEmail string) (*models.Comment, error) {
	return c.comment(ctx, http.MethodPut, replyPath(commentID, replyID), nil,
		models.UpdateTextRequest{Text: text, UserEmail: userEmail})
}

// DeleteReply — DELETE /comments/{id}/replies/{replyId}?userEmail=...
func (c *Client) DeleteReply(ctx context.Context, commentID, replyID, userEmail string) (*models.Comment, error) {
	return c.comment(ctx, http.MethodDelete, replyPath(commentID, replyID), url.Values{"userEmail": {userEmail}}, nil)
}

// React — PUT /comments/{id}/reaction; replyID != "" — реакция на ответ.
func (c *Client) React(ctx context.Context, commentID, replyID, action, userEmail string) (*models.Comment, error) {
	path := commentPath(commentID) + "/reaction"
	if replyID != "" {
		path = replyPath(commentID, replyID) + "/reaction"
	}

	return c.comment(ctx, http.MethodPut, path, nil, models.ReactionRequest{Type: action, UserEmail: userEmail})
}

func (c *Client) comment(ctx context.Context, method, path string, query url.Values, in any) (*models.Comment, error) {
	var out models.Comment
	if err := c.call(ctx, method, path, query, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call отправляет запрос через failover и разбирает ответ.
// Статус >= 400 превращается в *APIError.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := failover.Request{Method: method, Path: path, Query: query}

	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		req.Body = body
	}

	resp, err := c.fo.Do(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

		var eb errorBody
		if json.Unmarshal(resp.Body, &eb) == nil && eb.Error != "" {
			apiErr.Message, apiErr.Code, apiErr.RequestID = eb.Error, eb.Code, eb.RequestID
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func commentPath(id string) string {
	return "/comments/" + url.PathEscape(id)
}

func replyPath(commentID, replyID string) string {
	return commentPath(commentID) + "/replies/" + url.PathEscape(replyID)
}
