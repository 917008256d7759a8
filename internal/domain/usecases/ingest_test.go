package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	mu      sync.Mutex
	embedFn func(text string) ([]float32, error)
	batches [][]string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()

	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	mu        sync.Mutex
	chunks    []entities.Chunk
	storeFn   func(chunks []entities.Chunk) error
	searchErr error
	cleared   bool
	lastCat   string
	lastTopK  int
}

func (m *mockVectorStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	if m.storeFn != nil {
		return m.storeFn(chunks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, category string, topK int) ([]entities.QueryResult, error) {
	m.lastCat, m.lastTopK = category, topK
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var results []entities.QueryResult
	for _, c := range m.chunks {
		if len(results) >= topK {
			break
		}
		if category != "" && c.Metadata.Category != category {
			continue
		}
		results = append(results, entities.QueryResult{Chunk: c, Score: 0.9})
	}
	return results, nil
}

func (m *mockVectorStore) Delete(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *mockVectorStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	m.cleared = true
	return nil
}

func memberArticle(header, content string) entities.Article {
	return entities.Article{
		URL:      "https://help.example.org/" + strings.ReplaceAll(strings.ToLower(header), " ", "-"),
		Category: "Member",
		Header:   header,
		Content:  content,
	}
}

func TestIngestUseCase_FiltersToMemberCategory(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil)

	articles := []entities.Article{
		memberArticle("Opting out", "You can opt out within one month."),
		{URL: "https://help.example.org/employer", Category: "Employer", Header: "Paying contributions", Content: "Employers pay monthly."},
		memberArticle("Transfers", "You can transfer pots."),
	}

	report, err := uc.IngestArticles(context.Background(), articles, false)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Chunks)
	for _, c := range store.chunks {
		assert.Equal(t, "Member", c.Metadata.Category)
	}
}

func TestIngestUseCase_EmbedsHeaderAndContent(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil)

	_, err := uc.IngestArticles(context.Background(), []entities.Article{memberArticle("Opting out", "Use the website.")}, false)

	require.NoError(t, err)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "Header: Opting out\n\nUse the website.", store.chunks[0].Content)
	assert.Equal(t, "Opting out", store.chunks[0].Metadata.Header)
	assert.Equal(t, ArticleID(memberArticle("Opting out", "")), store.chunks[0].DocumentID)
}

func TestIngestUseCase_BatchesOfConfiguredSize(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	uc := NewIngestUseCase(embedder, store, IngestConfig{BatchSize: 100, Concurrency: 3}, nil)

	var articles []entities.Article
	for i := 0; i < 250; i++ {
		a := memberArticle("Article", "Body text.")
		a.URL = a.URL + "/" + strings.Repeat("x", i+1)
		articles = append(articles, a)
	}

	report, err := uc.IngestArticles(context.Background(), articles, false)

	require.NoError(t, err)
	assert.Equal(t, 250, report.Chunks)
	require.Len(t, embedder.batches, 3)
	sizes := map[int]int{}
	for _, b := range embedder.batches {
		sizes[len(b)]++
	}
	assert.Equal(t, map[int]int{100: 2, 50: 1}, sizes)
	assert.Len(t, store.chunks, 250)
}

func TestIngestUseCase_RebuildClearsFirst(t *testing.T) {
	store := &mockVectorStore{chunks: []entities.Chunk{{ID: "stale", DocumentID: "old"}}}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil)

	_, err := uc.IngestArticles(context.Background(), []entities.Article{memberArticle("Opting out", "text")}, true)

	require.NoError(t, err)
	assert.True(t, store.cleared)
	require.Len(t, store.chunks, 1)
	assert.NotEqual(t, "stale", store.chunks[0].ID)
}

func TestIngestUseCase_EmptyArticleSkipped(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil)

	report, err := uc.IngestArticles(context.Background(), []entities.Article{memberArticle("Empty", "   ")}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, store.chunks)
}

func TestIngestUseCase_LargeArticleChunked(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{ChunkSize: 60, ChunkOverlap: 10}, nil)

	body := strings.Repeat("word ", 60)
	_, err := uc.IngestArticles(context.Background(), []entities.Article{memberArticle("Long", body)}, false)

	require.NoError(t, err)
	require.Greater(t, len(store.chunks), 2)
	ids := map[string]bool{}
	for i, c := range store.chunks {
		assert.Equal(t, i, c.Index)
		assert.True(t, strings.HasPrefix(c.Content, "Header: Long"), c.Content)
		assert.False(t, ids[c.ID], "duplicate chunk id")
		ids[c.ID] = true
	}
}

func TestIngestUseCase_EmbedErrorPropagates(t *testing.T) {
	boom := errors.New("embedder down")
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) { return nil, boom }}
	uc := NewIngestUseCase(embedder, &mockVectorStore{}, IngestConfig{}, nil)

	_, err := uc.IngestArticles(context.Background(), []entities.Article{memberArticle("A", "b")}, false)

	assert.ErrorIs(t, err, boom)
}

func TestIngestUseCase_CustomCategories(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{Categories: []string{"Employer"}}, nil)

	report, err := uc.IngestArticles(context.Background(), []entities.Article{
		memberArticle("Member only", "x"),
		{URL: "u", Category: "Employer", Header: "Employer", Content: "y"},
	}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Embedded)
	assert.Equal(t, 1, report.Skipped)
}

func TestIngestUseCase_Delete(t *testing.T) {
	store := &mockVectorStore{}
	uc := NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil)
	a := memberArticle("Opting out", "text")
	_, err := uc.IngestArticles(context.Background(), []entities.Article{a}, false)
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), ArticleID(a)))
	assert.Empty(t, store.chunks)
}

func TestGenerateChunkID_Distinct(t *testing.T) {
	assert.NotEqual(t, generateChunkID("doc", 1), generateChunkID("doc", 2))
	assert.Equal(t, generateChunkID("doc", 1), generateChunkID("doc", 1))
}
