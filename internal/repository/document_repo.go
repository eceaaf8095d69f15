package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"rag-chat/internal/domain"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) error
	Count(ctx context.Context) (int64, error)
	SearchNearest(ctx context.Context, queryEmbedding pgvector.Vector, k int) ([]domain.Document, error)
}

type PgDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewPgDocumentRepository(pool *pgxpool.Pool) *PgDocumentRepository {
	return &PgDocumentRepository{pool: pool}
}

func (r *PgDocumentRepository) Create(ctx context.Context, doc domain.Document) error {
	const query = `
		INSERT INTO documents (id, content, source, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.Content,
		doc.Source,
		doc.Embedding,
		doc.CreatedAt,
	)
	return err
}

func (r *PgDocumentRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM documents`
	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (r *PgDocumentRepository) SearchNearest(ctx context.Context, queryEmbedding pgvector.Vector, k int) ([]domain.Document, error) {
	const query = `
		SELECT id, content, source, created_at
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, queryEmbedding, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		err = rows.Scan(
			&doc.ID,
			&doc.Content,
			&doc.Source,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}
