package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// SearchUseCase retrieves ranked articles for a query. It implements
// ports.Retriever on top of an embedder and a vector store.
type SearchUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
}

// NewSearchUseCase creates a SearchUseCase with injected dependencies.
func NewSearchUseCase(embedder ports.EmbeddingService, vectorStore ports.VectorStore) *SearchUseCase {
	return &SearchUseCase{embedder: embedder, vectorStore: vectorStore}
}

// Retrieve returns at most topN documents from category, most relevant
// first. Several chunks of one article collapse into its best-scoring chunk.
func (uc *SearchUseCase) Retrieve(ctx context.Context, query, category string, topN int) ([]entities.RetrievedDocument, error) {
	if topN <= 0 {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	embedding, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch so that de-duplication can still fill topN.
	results, err := uc.vectorStore.Search(ctx, embedding, category, topN*3)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	docs := make([]entities.RetrievedDocument, 0, topN)
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if category != "" && r.Chunk.Metadata.Category != category {
			continue
		}
		if seen[r.Chunk.DocumentID] {
			continue
		}
		seen[r.Chunk.DocumentID] = true
		docs = append(docs, entities.RetrievedDocument{
			URL:      r.Chunk.Metadata.URL,
			Category: r.Chunk.Metadata.Category,
			Header:   r.Chunk.Metadata.Header,
			BodyText: r.Chunk.Content,
			Rank:     len(docs) + 1,
		})
		if len(docs) == topN {
			break
		}
	}
	return docs, nil
}
