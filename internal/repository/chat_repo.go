package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hangout-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// Append stores a settled message. Pending placeholders are never stored.
func (r *ChatRepo) Append(ctx context.Context, userID uuid.UUID, msg models.ChatMessage) error {
	if msg.IsPending {
		return nil
	}
	if !msg.Participant.Valid() {
		return fmt.Errorf("chat message %s has unknown participant %q", msg.ID, msg.Participant)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, user_id, text, participant, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		msg.ID, userID, msg.Text, string(msg.Participant), msg.CreatedAt,
	)
	return err
}

// ListRecent returns the latest limit messages in insertion order.
func (r *ChatRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, text, participant, created_at FROM (
			SELECT seq, id, text, participant, created_at FROM chat_messages
			WHERE user_id = $1 ORDER BY seq DESC LIMIT $2
		) recent ORDER BY seq ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var participant string
		if err := rows.Scan(&m.ID, &m.Text, &participant, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Participant = models.Participant(participant)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *ChatRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chat_messages WHERE user_id = $1", userID)
	return err
}
