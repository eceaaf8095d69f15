package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rag-chat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, conversationID int64, content string, isUser bool) (domain.Message, error)
	ListByConversationID(ctx context.Context, conversationID int64) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, conversationID int64, content string, isUser bool) (domain.Message, error) {
	const query = `
		INSERT INTO messages (conversation_id, content, is_user, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	msg := domain.Message{
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		Timestamp:      time.Now().UTC(),
	}
	err := r.pool.QueryRow(ctx, query, conversationID, content, isUser, msg.Timestamp).Scan(&msg.ID)
	return msg, err
}

func (r *PgMessageRepository) ListByConversationID(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, content, is_user, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		err = rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Content,
			&msg.IsUser,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
