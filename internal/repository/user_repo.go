package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rag-chat/internal/domain"
)

type UserRepository interface {
	// EnsureDefault garantiza que exista el usuario por defecto y lo devuelve.
	EnsureDefault(ctx context.Context) (domain.User, error)
}

// DefaultUsername es el usuario implícito: el servicio no autentica llamadas.
const DefaultUsername = "default_user"

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) EnsureDefault(ctx context.Context) (domain.User, error) {
	const query = `
		INSERT INTO users (username, created_at)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, created_at
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, DefaultUsername, time.Now().UTC()).Scan(
		&user.ID,
		&user.Username,
		&user.CreatedAt,
	)
	return user, err
}
