package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/docqa/agent/internal/domain"
)

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Ollama produces embeddings via a local Ollama server.
type Ollama struct {
	BaseURL string
	Model   string
	Dim     int
	Client  *http.Client
}

func NewOllama(baseURL, model string, dim int) *Ollama {
	return &Ollama{BaseURL: baseURL, Model: model, Dim: dim, Client: http.DefaultClient}
}

func (o *Ollama) Dimension() int { return o.Dim }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("empty text")
	}
	body, _ := json.Marshal(ollamaRequest{Model: o.Model, Prompt: text})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama embeddings: %s", domain.ErrLLMUnavailable, msg)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embeddings response: %w", err)
	}
	if len(out.Embedding) != o.Dim {
		return nil, fmt.Errorf("expected embedding dim %d, got %d", o.Dim, len(out.Embedding))
	}
	return out.Embedding, nil
}
