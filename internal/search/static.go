package search

import "context"

// Static devuelve siempre el mismo outcome. Para tests.
type Static struct {
	Outcome   Outcome
	LastQuery string
}

func (s *Static) Search(_ context.Context, query string) Outcome {
	s.LastQuery = query
	return s.Outcome
}

// StaticOK construye un Static sano con los snippets dados.
func StaticOK(snippets ...string) *Static {
	return &Static{Outcome: Outcome{Snippets: snippets}}
}

// StaticDegraded construye un Static degradado con la razón dada.
func StaticDegraded(reason string) *Static {
	return &Static{Outcome: Outcome{DegradedReason: reason}}
}

var _ Provider = (*Static)(nil)
