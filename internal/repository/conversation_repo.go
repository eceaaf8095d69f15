package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rag-chat/internal/domain"
)

type ConversationRepository interface {
	Create(ctx context.Context, title string, userID int64) (domain.Conversation, error)
	GetByID(ctx context.Context, id int64) (domain.Conversation, error)
	ListByUserID(ctx context.Context, userID int64) ([]domain.Conversation, error)
	Touch(ctx context.Context, id int64, updatedAt time.Time) error
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, title string, userID int64) (domain.Conversation, error) {
	const query = `
		INSERT INTO conversations (title, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`
	now := time.Now().UTC()
	conv := domain.Conversation{
		Title:     title,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.pool.QueryRow(ctx, query, title, userID, now).Scan(&conv.ID)
	return conv, err
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id int64) (domain.Conversation, error) {
	const query = `
		SELECT id, title, user_id, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.Title,
		&conv.UserID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	return conv, err
}

func (r *PgConversationRepository) ListByUserID(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	const query = `
		SELECT id, title, user_id, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		err = rows.Scan(
			&conv.ID,
			&conv.Title,
			&conv.UserID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *PgConversationRepository) Touch(ctx context.Context, id int64, updatedAt time.Time) error {
	const query = `
		UPDATE conversations
		SET updated_at = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, updatedAt)
	return err
}
