package search

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
)

const (
	searchAPIVersion = "2023-11-01"
	searchTop        = 5
)

// AzureClient implementa Provider contra Azure AI Search.
type AzureClient struct {
	endpoint  string
	apiKey    string
	indexName string
	client    *http.Client
	logger    *zap.Logger
}

func NewAzureClient(endpoint, apiKey, indexName string, logger *zap.Logger) *AzureClient {
	return &AzureClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		indexName: indexName,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Configured indica si el cliente tiene endpoint y api key.
func (c *AzureClient) Configured() bool {
	return c.endpoint != "" && c.apiKey != ""
}

func (c *AzureClient) Search(ctx context.Context, query string) Outcome {
	if !c.Configured() {
		c.logger.Warn("azure search not configured, skipping knowledge base search")
		return degraded("search not configured")
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		c.endpoint, c.indexName, searchAPIVersion)

	body := searchRequestBody{
		Search:     query,
		Top:        searchTop,
		Select:     "content",
		SearchMode: "any",
		QueryType:  "semantic",
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return degraded(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return degraded(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("azure search request failed", zap.Error(err))
		return degraded(fmt.Sprintf("do request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return degraded(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("azure search api error", zap.Int("status", resp.StatusCode))
		return degraded(fmt.Sprintf("azure search api error: status=%d", resp.StatusCode))
	}

	var sr searchResponseBody
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return degraded(fmt.Sprintf("unmarshal response: %v", err))
	}

	snippets := make([]string, 0, len(sr.Value))
	for _, item := range sr.Value {
		if item.Content != "" {
			snippets = append(snippets, item.Content)
		}
	}
	return ok(snippets)
}

type searchRequestBody struct {
	Search     string `json:"search"`
	Top        int    `json:"top"`
	Select     string `json:"select"`
	SearchMode string `json:"searchMode"`
	QueryType  string `json:"queryType"`
}

type searchResponseBody struct {
	Value []struct {
		Content string `json:"content"`
	} `json:"value"`
}

var _ Provider = (*AzureClient)(nil)
