package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"hangout-backend/internal/chat"
	"hangout-backend/internal/middleware"
	"hangout-backend/internal/models"
	"hangout-backend/internal/services"
)

type chatSessions interface {
	Get(ctx context.Context, userID uuid.UUID) (*chat.Controller, error)
	Evict(userID uuid.UUID)
}

type chatHistory interface {
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

type recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, place models.PlaceAddress) (*services.Recommendation, error)
}

type ChatHandler struct {
	sessions    chatSessions
	history     chatHistory
	recommender recommender
}

func NewChatHandler(sessions chatSessions, history chatHistory, recommender recommender) *ChatHandler {
	return &ChatHandler{
		sessions:    sessions,
		history:     history,
		recommender: recommender,
	}
}

// chatStateResponse renders a conversation. order=display lists the newest
// message first, anything else keeps insertion order.
func chatStateResponse(conv *chat.Controller, order string) models.ChatState {
	state := conv.State()
	if order == "display" {
		state.Messages = conv.Display()
	}
	return state
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conv, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	conv.Touch()

	writeJSON(w, http.StatusOK, chatStateResponse(conv, r.URL.Query().Get("order")))
}

// Send posts a user message. The reply arrives asynchronously (202) unless
// wait is set, in which case the handler blocks until it lands (200).
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, r)
		return
	}

	conv, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := conv.SendMessage(req.Message); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.respond(w, r, conv, req.Wait)
}

// Recommend sends the place prompt for the selected location. A request
// with search unset only returns the current conversation.
func (h *ChatHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, r)
		return
	}
	if req.HasLocation() && !validCoordinates(*req.Latitude, *req.Longitude) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"latitude": "Coordinates are out of range"}, r))
		return
	}

	rec, err := h.recommender.Recommend(r.Context(), userID, req.PlaceAddress)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !rec.Sent {
		writeJSON(w, http.StatusOK, chatStateResponse(rec.Chat, ""))
		return
	}

	h.respond(w, r, rec.Chat, req.Wait)
}

func (h *ChatHandler) respond(w http.ResponseWriter, r *http.Request, conv *chat.Controller, wait bool) {
	if !wait {
		writeJSON(w, http.StatusAccepted, conv.State())
		return
	}

	if err := conv.Wait(r.Context()); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeJSON(w, http.StatusGatewayTimeout, errorResp("CHAT_TIMEOUT", "The reply took too long", r))
		}
		// Client went away otherwise; nothing to write.
		return
	}
	writeJSON(w, http.StatusOK, conv.State())
}

// Clear drops the conversation from memory and deletes its stored history.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	h.sessions.Evict(userID)
	if h.history != nil {
		if err := h.history.DeleteForUser(r.Context(), userID); err != nil {
			log.Printf("Failed to delete chat history for %s: %v", userID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clear conversation", r))
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
