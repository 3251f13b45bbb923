package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hangout-backend/internal/models"
)

// ChatPublisher pushes chat state snapshots to the WebSocket hubs through
// Redis pub/sub.
type ChatPublisher struct {
	redis *redis.Client
}

func NewChatPublisher(redisClient *redis.Client) *ChatPublisher {
	return &ChatPublisher{redis: redisClient}
}

func (p *ChatPublisher) PublishChatState(ctx context.Context, userID uuid.UUID, state models.ChatState) error {
	data, err := json.Marshal(models.WSMessage{Type: models.WSTypeChatState, Payload: state})
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}
	return p.redis.Publish(ctx, models.ChatUpdatesChannel(userID), data).Err()
}
