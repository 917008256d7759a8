// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 100
	DefaultCategory     = "Member"
)

// IngestConfig controls how articles are filtered, split and embedded.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
	Categories   []string // allow-list; empty means DefaultCategory only
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Embedded int // articles indexed
	Skipped  int // articles outside the allowed categories or empty
	Chunks   int
}

// IngestUseCase handles article ingestion into the vector store.
type IngestUseCase struct {
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	cfg         IngestConfig
	allowed     map[string]bool
	logger      *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(embedder ports.EmbeddingService, vectorStore ports.VectorStore, cfg IngestConfig, logger *zap.Logger) *IngestUseCase {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{DefaultCategory}
	}
	allowed := make(map[string]bool, len(cfg.Categories))
	for _, c := range cfg.Categories {
		allowed[c] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		embedder:    embedder,
		vectorStore: vectorStore,
		cfg:         cfg,
		allowed:     allowed,
		logger:      logger,
	}
}

// IngestArticles filters, chunks, embeds and stores articles. With rebuild
// set the store is cleared first so the index matches the input exactly.
func (uc *IngestUseCase) IngestArticles(ctx context.Context, articles []entities.Article, rebuild bool) (IngestReport, error) {
	var report IngestReport

	var chunks []entities.Chunk
	for _, a := range articles {
		if !uc.allowed[a.Category] {
			uc.logger.Info("skipping article outside allowed categories",
				zap.String("header", a.Header),
				zap.String("category", a.Category))
			report.Skipped++
			continue
		}
		articleChunks := uc.chunkArticle(a)
		if len(articleChunks) == 0 {
			report.Skipped++
			continue
		}
		chunks = append(chunks, articleChunks...)
		report.Embedded++
	}

	if rebuild {
		if err := uc.vectorStore.Clear(ctx); err != nil {
			return report, fmt.Errorf("clearing store: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Concurrency)
	for start := 0; start < len(chunks); start += uc.cfg.BatchSize {
		end := start + uc.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		first := start
		g.Go(func() error {
			uc.logger.Debug("embedding batch", zap.Int("from", first), zap.Int("to", first+len(batch)))
			return uc.embedAndStore(gctx, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Chunks = len(chunks)
	uc.logger.Info("ingest complete",
		zap.Int("embedded", report.Embedded),
		zap.Int("skipped", report.Skipped),
		zap.Int("chunks", report.Chunks))
	return report, nil
}

func (uc *IngestUseCase) embedAndStore(ctx context.Context, batch []entities.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding batch: got %d vectors for %d texts", len(embeddings), len(batch))
	}

	for i := range batch {
		batch[i].Embedding = embeddings[i]
	}
	return uc.vectorStore.Store(ctx, batch)
}

// Delete removes an article from the store.
func (uc *IngestUseCase) Delete(ctx context.Context, documentID string) error {
	return uc.vectorStore.Delete(ctx, documentID)
}

// ArticleText is the text embedded and later shown to the model for an article.
func ArticleText(a entities.Article) string {
	return fmt.Sprintf("Header: %s\n\n%s", a.Header, strings.TrimSpace(a.Content))
}

// ArticleID derives a stable document ID from the article URL, falling back
// to its header.
func ArticleID(a entities.Article) string {
	key := a.URL
	if key == "" {
		key = a.Header
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:8])
}

// chunkArticle splits the article text into overlapping chunks. Every chunk
// after the first repeats the header line so it stays self-describing.
func (uc *IngestUseCase) chunkArticle(a entities.Article) []entities.Chunk {
	if strings.TrimSpace(a.Content) == "" {
		return nil
	}

	docID := ArticleID(a)
	meta := entities.DocumentMetadata{URL: a.URL, Category: a.Category, Header: a.Header}
	content := ArticleText(a)
	prefix := fmt.Sprintf("Header: %s\n\n", a.Header)

	var chunks []entities.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := start + uc.cfg.ChunkSize
		if end > len(content) {
			end = len(content)
		}

		// Try to break at word boundary
		if end < len(content) {
			lastSpace := strings.LastIndex(content[start:end], " ")
			if lastSpace > 0 {
				end = start + lastSpace
			}
		}

		chunkContent := strings.TrimSpace(content[start:end])
		if index > 0 {
			chunkContent = prefix + chunkContent
		}
		if len(chunkContent) > 0 {
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(docID, index),
				DocumentID: docID,
				Content:    chunkContent,
				Index:      index,
				Metadata:   meta,
			})
			index++
		}

		if end >= len(content) {
			break
		}
		next := end - uc.cfg.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
