package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// OllamaClient implements ports.CompletionService using Ollama's chat API.
type OllamaClient struct {
	core
}

// NewOllamaClient creates a new Ollama chat client.
func NewOllamaClient(cfg Config, observer Observer) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaConfig().Model
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OllamaClient{core: newCore(cfg, observer)}
}

// ollamaChatRequest is the Ollama chat API request.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ports.Message `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is one reply object; streaming sends one per line.
type ollamaChatResponse struct {
	Message ports.Message `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// Complete produces the whole reply in one request.
func (c *OllamaClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	return c.complete(ctx, req.Task, func(ctx context.Context) (string, error) {
		resp, err := c.post(ctx, req, false)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var out ollamaChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		if out.Error != "" {
			return "", fmt.Errorf("ollama: %s", out.Error)
		}
		if strings.TrimSpace(out.Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		return out.Message.Content, nil
	})
}

// Stream reads newline-delimited JSON from Ollama's streaming API.
func (c *OllamaClient) Stream(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamToken, error) {
	return c.stream(ctx, req.Task, func(ctx context.Context) (*http.Response, error) {
		return c.post(ctx, req, true)
	}, decodeNDJSON)
}

func (c *OllamaClient) post(ctx context.Context, req ports.CompletionRequest, stream bool) (*http.Response, error) {
	temperature, maxTokens := c.cfg.params(req)
	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.cfg.Model,
		Messages: req.Messages,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: temperature, NumPredict: maxTokens},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeNDJSON(line []byte) (string, bool, bool, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return "", false, true, nil
	}
	var chunk ollamaChatResponse
	if err := json.Unmarshal(line, &chunk); err != nil {
		return "", false, false, fmt.Errorf("decoding stream chunk: %w", err)
	}
	if chunk.Error != "" {
		return "", false, false, fmt.Errorf("ollama: %s", chunk.Error)
	}
	return chunk.Message.Content, chunk.Done, false, nil
}
