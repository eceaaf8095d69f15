// Package search recupera fragmentos de la base de conocimiento para
// enriquecer el prompt. La búsqueda es best-effort: nunca falla el flujo de
// chat, solo se degrada a cero fragmentos.
package search

import "context"

// Provider define el contrato de búsqueda de fragmentos.
type Provider interface {
	Search(ctx context.Context, query string) Outcome
}

// Outcome distingue un resultado sano de uno degradado. Un outcome degradado
// siempre colapsa a cero snippets para el caller, pero la razón queda
// observable para logging y tests.
type Outcome struct {
	Snippets       []string
	DegradedReason string
}

func (o Outcome) Degraded() bool {
	return o.DegradedReason != ""
}

func ok(snippets []string) Outcome {
	return Outcome{Snippets: snippets}
}

func degraded(reason string) Outcome {
	return Outcome{DegradedReason: reason}
}

// Disabled es un provider nulo para despliegues sin búsqueda configurada.
type Disabled struct{}

func (Disabled) Search(_ context.Context, _ string) Outcome {
	return degraded("search not configured")
}

var _ Provider = Disabled{}
