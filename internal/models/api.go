package models

import "github.com/google/uuid"

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const WSTypeChatState = "chat_state"

// ChatUpdatesChannel is the Redis pub/sub channel carrying a user's chat state.
func ChatUpdatesChannel(userID uuid.UUID) string {
	return "chat_updates:" + userID.String()
}
