package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

const (
	defaultModel = openai.AdaEmbeddingV2
	op           = "openai.embed"
)

type Client struct {
	*openai.Client
	Model string
}

// NewClient creates an embedding client. baseURL may be empty for the public
// API.
func NewClient(apiKey, baseURL, model string, httpClient *http.Client) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Embed implements similarity.Embedder with one request per text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	model := openai.EmbeddingModel(c.Model)
	if model == "" {
		model = defaultModel
	}

	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: model,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, faults.Newf(faults.KindService, op, "quota exceeded: %s", apiErr.Message)
		}
		return nil, faults.New(faults.KindService, op, fmt.Errorf("failed to create embeddings: %w", err))
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, faults.Newf(faults.KindService, op, "empty embedding in response")
	}

	return resp.Data[0].Embedding, nil
}
