package llm

import "context"

// MockCompletionClient permite tests sin llamar al servicio real.
type MockCompletionClient struct {
	Result   CompletionResult
	Err      error
	LastReq  CompletionRequest
	Requests int
}

func (m *MockCompletionClient) Complete(_ context.Context, req CompletionRequest) (CompletionResult, error) {
	m.LastReq = req
	m.Requests++
	return m.Result, m.Err
}

// MockEmbedder devuelve un embedding fijo.
type MockEmbedder struct {
	Vector []float32
	Err    error
}

func (m *MockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return m.Vector, m.Err
}

var (
	_ CompletionClient = (*MockCompletionClient)(nil)
	_ Embedder         = (*MockEmbedder)(nil)
)
