package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"rag-chat/internal/domain"
)

// CompletionRequest agrupa el turno nuevo, el historial y el contexto
// recuperado opcional.
type CompletionRequest struct {
	Message string
	History []domain.ChatMessage
	Context string
}

// CompletionResult es la respuesta generada junto con los contadores de uso.
type CompletionResult struct {
	Response string
	Usage    Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionClient define la interfaz hacia el servicio de completions.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// Embedder vectoriza texto para la base de conocimiento local.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	systemPersona = "You are a helpful AI assistant. You provide accurate, concise, and helpful responses."

	// Respuesta literal cuando el upstream no devuelve contenido.
	emptyResponseFallback = "I apologize, but I could not generate a response."
)

// AzureClient implementa CompletionClient y Embedder contra Azure OpenAI.
type AzureClient struct {
	endpoint            string
	apiKey              string
	deployment          string
	embeddingDeployment string
	apiVersion          string
	client              *http.Client
	logger              *zap.Logger
}

func NewAzureClient(endpoint, apiKey, deployment, embeddingDeployment, apiVersion string, logger *zap.Logger) *AzureClient {
	return &AzureClient{
		endpoint:            strings.TrimRight(endpoint, "/"),
		apiKey:              apiKey,
		deployment:          deployment,
		embeddingDeployment: embeddingDeployment,
		apiVersion:          apiVersion,
		client:              &http.Client{Timeout: 60 * time.Second},
		logger:              logger,
	}
}

// Complete envía una única petición de chat completion con parámetros de
// sampling fijos y devuelve el texto de la primera choice.
func (c *AzureClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	system := systemPersona
	if req.Context != "" {
		system += " Context: " + req.Context
	}

	messages := make([]domain.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: system})
	messages = append(messages, req.History...)
	messages = append(messages, domain.ChatMessage{Role: "user", Content: req.Message})

	body := completionRequestBody{
		Messages:         messages,
		MaxTokens:        1000,
		Temperature:      0.7,
		TopP:             0.95,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)

	respBody, err := c.post(ctx, url, body)
	if err != nil {
		return CompletionResult{}, err
	}

	var cr completionResponseBody
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return CompletionResult{}, fmt.Errorf("unmarshal response: %w", err)
	}

	result := CompletionResult{Response: emptyResponseFallback}
	if len(cr.Choices) > 0 && cr.Choices[0].Message.Content != "" {
		result.Response = cr.Choices[0].Message.Content
	}
	if cr.Usage != nil {
		result.Usage = *cr.Usage
	}
	return result, nil
}

// Embed vectoriza el texto con el deployment de embeddings.
func (c *AzureClient) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		c.endpoint, c.embeddingDeployment, c.apiVersion)

	respBody, err := c.post(ctx, url, embeddingRequestBody{Input: []string{text}})
	if err != nil {
		return nil, err
	}

	var er embeddingResponseBody
	if err := json.Unmarshal(respBody, &er); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(er.Data) == 0 {
		return nil, fmt.Errorf("embedding empty response")
	}
	return er.Data[0].Embedding, nil
}

func (c *AzureClient) post(ctx context.Context, url string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Error("azure openai api error",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody))
		}
		return nil, fmt.Errorf("azure openai api error: status=%d", resp.StatusCode)
	}

	return respBody, nil
}

type completionRequestBody struct {
	Messages         []domain.ChatMessage `json:"messages"`
	MaxTokens        int                  `json:"max_tokens"`
	Temperature      float64              `json:"temperature"`
	TopP             float64              `json:"top_p"`
	FrequencyPenalty float64              `json:"frequency_penalty"`
	PresencePenalty  float64              `json:"presence_penalty"`
}

type completionResponseBody struct {
	Choices []struct {
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

type embeddingRequestBody struct {
	Input []string `json:"input"`
}

type embeddingResponseBody struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}
