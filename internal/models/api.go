package models

// Транспортные структуры HTTP+JSON API (общие для сервера и клиента).

// CreateCommentRequest — POST /comments.
type CreateCommentRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
	User User   `json:"user"`
}

// UpdateTextRequest — PUT /comments/{id} и PUT /comments/{id}/replies/{replyId}.
type UpdateTextRequest struct {
	Text      string `json:"text"`
	UserEmail string `json:"userEmail"`
}

// CreateReplyRequest — POST /comments/{id}/replies.
// ParentReplyID пуст — ответ на сам комментарий.
type CreateReplyRequest struct {
	Text          string `json:"text"`
	User          User   `json:"user"`
	ParentReplyID string `json:"parentReplyId,omitempty"`
}

// ReactionRequest — PUT .../reaction.
type ReactionRequest struct {
	Type      string `json:"type"`
	UserEmail string `json:"userEmail"`
}

// MessageResponse — ответ DELETE /comments/{id}.
type MessageResponse struct {
	Message string `json:"message"`
}

// Значения поля HealthResponse.Database.
const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

// HealthResponse — GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
