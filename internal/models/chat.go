package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant tags who authored a chat message.
type Participant string

const (
	ParticipantUser  Participant = "USER"
	ParticipantModel Participant = "MODEL"
	ParticipantError Participant = "ERROR"
)

func (p Participant) Valid() bool {
	switch p {
	case ParticipantUser, ParticipantModel, ParticipantError:
		return true
	}
	return false
}

// ChatMessage is one entry of a conversation. A pending message is the
// MODEL placeholder shown while a reply is on its way.
type ChatMessage struct {
	ID          uuid.UUID   `json:"id"`
	Text        string      `json:"text"`
	Participant Participant `json:"participant"`
	IsPending   bool        `json:"is_pending"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
	Wait    bool   `json:"wait"`
}

// ChatState is what the API and the WebSocket push return for a conversation.
type ChatState struct {
	Messages []ChatMessage `json:"messages"`
	Pending  bool          `json:"pending"`
}

// RecommendationRequest asks the assistant for places around a selected point.
type RecommendationRequest struct {
	PlaceAddress
	Wait bool `json:"wait"`
}
