package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultGenAIModel = "gemini-embedding-001"

// Gemini distinguishes queries from the documents they are matched against.
const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// ErrMissingAPIKey is returned when the Gemini backend is selected without a key.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// GenAIAdapter implements ports.EmbeddingService using Google's Gemini API.
// Embed is used for user queries, EmbedBatch for article chunks.
type GenAIAdapter struct {
	client     *genai.Client
	model      string
	dimensions int32
	logger     *zap.Logger
}

// GenAIOptions configures the Gemini embedder. BaseURL is only set in tests.
type GenAIOptions struct {
	APIKey     string
	Model      string
	Dimensions int32
	BaseURL    string
}

// NewGenAIAdapter creates a Gemini embedding adapter.
func NewGenAIAdapter(ctx context.Context, opts GenAIOptions, logger *zap.Logger) (*GenAIAdapter, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultGenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GenAIAdapter{
		client:     client,
		model:      opts.Model,
		dimensions: opts.Dimensions,
		logger:     logger,
	}, nil
}

// Embed generates a query embedding.
func (a *GenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := a.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

// EmbedBatch generates document embeddings in a single call.
func (a *GenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return a.embed(ctx, texts, taskRetrievalDocument)
}

func (a *GenAIAdapter) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: task}
	if a.dimensions > 0 {
		dims := a.dimensions
		cfg.OutputDimensionality = &dims
	}

	result, err := a.client.Models.EmbedContent(ctx, a.model, contents, cfg)
	if err != nil {
		a.logger.Error("genai embed failed", zap.String("model", a.model), zap.Error(err))
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
