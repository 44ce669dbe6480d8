package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/pribylovaa/webthreads/internal/errors"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/service"
)

// AddReply — POST /comments/{id}/replies {text, user, parentReplyId?}.
func (h *Handlers) AddReply(w http.ResponseWriter, r *http.Request) {
	var in models.CreateReplyRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.svc.AddReply(r.Context(), service.AddReplyInput{
		CommentID:     chi.URLParam(r, "id"),
		ParentReplyID: in.ParentReplyID,
		Text:          in.Text,
		User:          in.User,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// EditReply — PUT /comments/{id}/replies/{replyId} {text, userEmail}.
func (h *Handlers) EditReply(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateTextRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.svc.EditReply(r.Context(), service.EditReplyInput{
		CommentID:      chi.URLParam(r, "id"),
		ReplyID:        chi.URLParam(r, "replyId"),
		Text:           in.Text,
		RequesterEmail: in.UserEmail,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// DeleteReply — DELETE /comments/{id}/replies/{replyId}?userEmail=...
func (h *Handlers) DeleteReply(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DeleteReply(r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "replyId"),
		r.URL.Query().Get("userEmail"),
	)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// ReactComment — PUT /comments/{id}/reaction {type, userEmail}.
func (h *Handlers) ReactComment(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, "")
}

// ReactReply — PUT /comments/{id}/replies/{replyId}/reaction {type, userEmail}.
func (h *Handlers) ReactReply(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, chi.URLParam(r, "replyId"))
}

func (h *Handlers) react(w http.ResponseWriter, r *http.Request, replyID string) {
	var in models.ReactionRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out, err := h.svc.React(r.Context(), service.ReactInput{
		CommentID: chi.URLParam(r, "id"),
		ReplyID:   replyID,
		Type:      in.Type,
		UserEmail: in.UserEmail,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
