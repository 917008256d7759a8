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

// OpenAIClient implements ports.CompletionService against any host speaking
// the OpenAI chat completions protocol. Groq is the default.
type OpenAIClient struct {
	core
}

// NewOpenAIClient creates a client. A nil observer discards call events.
func NewOpenAIClient(cfg Config, observer Observer) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIClient{core: newCore(cfg, observer)}
}

type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []ports.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a non-streaming request, retrying transient failures.
func (c *OpenAIClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	return c.complete(ctx, req.Task, func(ctx context.Context) (string, error) {
		resp, err := c.post(ctx, req, false)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var out chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		return out.Choices[0].Message.Content, nil
	})
}

// Stream opens a server-sent events stream. It is never retried: a partial
// answer may already have reached the caller.
func (c *OpenAIClient) Stream(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamToken, error) {
	return c.stream(ctx, req.Task, func(ctx context.Context) (*http.Response, error) {
		return c.post(ctx, req, true)
	}, decodeSSE)
}

func (c *OpenAIClient) post(ctx context.Context, req ports.CompletionRequest, stream bool) (*http.Response, error) {
	temperature, maxTokens := c.cfg.params(req)
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.cfg.BaseURL, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// decodeSSE handles one line of an event stream. Only data lines carry
// content; "[DONE]" ends the stream.
func decodeSSE(line []byte) (string, bool, bool, error) {
	s := strings.TrimSpace(string(line))
	if !strings.HasPrefix(s, "data:") {
		return "", false, true, nil
	}
	data := strings.TrimSpace(strings.TrimPrefix(s, "data:"))
	if data == "[DONE]" {
		return "", true, false, nil
	}

	var chunk chatCompletionResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false, false, fmt.Errorf("decoding stream chunk: %w", err)
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false, true, nil
	}
	return chunk.Choices[0].Delta.Content, false, false, nil
}
