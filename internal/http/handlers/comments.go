package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/pribylovaa/webthreads/internal/errors"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/service"
)

// ListComments — GET /comments?url=...
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListComments(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// CreateComment — POST /comments {url, text, user}.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in models.CreateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.svc.CreateComment(r.Context(), service.CreateCommentInput{URL: in.URL, Text: in.Text, User: in.User})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// GetCommentByID — GET /comments/{id}.
func (h *Handlers) GetCommentByID(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.CommentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// EditComment — PUT /comments/{id} {text, userEmail}.
func (h *Handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateTextRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.svc.EditComment(r.Context(), service.EditCommentInput{
		ID:             chi.URLParam(r, "id"),
		Text:           in.Text,
		RequesterEmail: in.UserEmail,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// DeleteComment — DELETE /comments/{id}?userEmail=...
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteComment(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("userEmail"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "comment deleted"})
}

// Health — GET /health: 200 при доступной БД, иначе 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Health(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "error", Database: models.DatabaseDisconnected})
		return
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Database: models.DatabaseConnected})
}
