package domain

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Document es un fragmento de la base de conocimiento con su embedding.
type Document struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Source    string          `json:"source"`
	Embedding pgvector.Vector `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}
