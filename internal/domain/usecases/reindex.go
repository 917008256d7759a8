package usecases

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// Reindexer rebuilds the vector index from the scraped articles file, once on
// demand or every time the file changes.
type Reindexer struct {
	loader ports.ArticleLoader
	ingest *IngestUseCase
	logger *zap.Logger

	mu sync.Mutex // one rebuild at a time
}

// NewReindexer creates a Reindexer.
func NewReindexer(loader ports.ArticleLoader, ingest *IngestUseCase, logger *zap.Logger) *Reindexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reindexer{loader: loader, ingest: ingest, logger: logger}
}

// Run loads path and ingests it. rebuild clears the store first.
func (r *Reindexer) Run(ctx context.Context, path string, rebuild bool) (IngestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	articles, err := r.loader.Load(ctx, path)
	if err != nil {
		return IngestReport{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return r.ingest.IngestArticles(ctx, articles, rebuild)
}

// Watch rebuilds the index whenever path is created or rewritten. It blocks
// until ctx is cancelled or the watcher closes. A failed rebuild is logged
// and the previous index stays in place.
func (r *Reindexer) Watch(ctx context.Context, watcher ports.FileWatcher, path string) error {
	events, err := watcher.Watch(ctx, path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	r.logger.Info("watching articles file", zap.String("path", path))

	for event := range events {
		if event.Operation == ports.FileDeleted {
			r.logger.Warn("articles file removed, keeping current index", zap.String("path", event.Path))
			continue
		}
		report, err := r.Run(ctx, event.Path, true)
		if err != nil {
			r.logger.Error("reindex failed", zap.String("path", event.Path), zap.Error(err))
			continue
		}
		r.logger.Info("reindexed",
			zap.String("path", event.Path),
			zap.Int("embedded", report.Embedded),
			zap.Int("chunks", report.Chunks))
	}
	return ctx.Err()
}
