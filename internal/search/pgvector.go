package search

import (
	"context"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
)

// PgVectorProvider busca por similitud sobre la tabla de documentos local.
// Es la alternativa a Azure Search cuando solo hay base de datos: vectoriza
// la consulta con el embedder y ordena por distancia coseno.
type PgVectorProvider struct {
	docs     repository.DocumentRepository
	embedder llm.Embedder
	logger   *zap.Logger
}

func NewPgVectorProvider(docs repository.DocumentRepository, embedder llm.Embedder, logger *zap.Logger) *PgVectorProvider {
	return &PgVectorProvider{docs: docs, embedder: embedder, logger: logger}
}

func (p *PgVectorProvider) Search(ctx context.Context, query string) Outcome {
	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		p.logger.Error("embed query failed", zap.Error(err))
		return degraded(fmt.Sprintf("embed query: %v", err))
	}

	docs, err := p.docs.SearchNearest(ctx, pgvector.NewVector(embedding), searchTop)
	if err != nil {
		p.logger.Error("vector search failed", zap.Error(err))
		return degraded(fmt.Sprintf("vector search: %v", err))
	}

	snippets := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Content != "" {
			snippets = append(snippets, doc.Content)
		}
	}
	return ok(snippets)
}

var _ Provider = (*PgVectorProvider)(nil)
