package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

type stubLoader struct {
	mu       sync.Mutex
	articles []entities.Article
	err      error
	calls    int
}

func (l *stubLoader) Load(ctx context.Context, path string) ([]entities.Article, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.articles, l.err
}

// chanWatcher replays events pushed by the test.
type chanWatcher struct {
	events chan ports.FileEvent
	err    error
}

func (w *chanWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileEvent, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.events, nil
}

func (w *chanWatcher) Stop() error { return nil }

func TestReindexer_Run(t *testing.T) {
	loader := &stubLoader{articles: []entities.Article{memberArticle("Opting out", "You can opt out.")}}
	store := &mockVectorStore{}
	r := NewReindexer(loader, NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil), nil)

	report, err := r.Run(context.Background(), "articles.json", true)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Embedded)
	assert.True(t, store.cleared)
	assert.Len(t, store.chunks, 1)
}

func TestReindexer_RunLoadError(t *testing.T) {
	boom := errors.New("no such file")
	r := NewReindexer(&stubLoader{err: boom}, NewIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, IngestConfig{}, nil), nil)

	_, err := r.Run(context.Background(), "articles.json", true)

	assert.ErrorIs(t, err, boom)
}

func TestReindexer_WatchRebuildsOnChange(t *testing.T) {
	loader := &stubLoader{articles: []entities.Article{memberArticle("Opting out", "You can opt out.")}}
	store := &mockVectorStore{}
	zcore, logs := observer.New(zap.InfoLevel)
	r := NewReindexer(loader, NewIngestUseCase(&mockEmbedder{}, store, IngestConfig{}, nil), zap.New(zcore))

	w := &chanWatcher{events: make(chan ports.FileEvent, 3)}
	w.events <- ports.FileEvent{Path: "articles.json", Operation: ports.FileModified}
	w.events <- ports.FileEvent{Path: "articles.json", Operation: ports.FileDeleted}
	w.events <- ports.FileEvent{Path: "articles.json", Operation: ports.FileCreated}
	close(w.events)

	err := r.Watch(context.Background(), w, "articles.json")

	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
	assert.Equal(t, 2, logs.FilterMessage("reindexed").Len())
	assert.Equal(t, 1, logs.FilterMessage("articles file removed, keeping current index").Len())
}

func TestReindexer_WatchKeepsGoingAfterFailure(t *testing.T) {
	loader := &stubLoader{err: errors.New("half-written file")}
	zcore, logs := observer.New(zap.InfoLevel)
	r := NewReindexer(loader, NewIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, IngestConfig{}, nil), zap.New(zcore))

	w := &chanWatcher{events: make(chan ports.FileEvent, 2)}
	w.events <- ports.FileEvent{Path: "articles.json", Operation: ports.FileModified}
	w.events <- ports.FileEvent{Path: "articles.json", Operation: ports.FileModified}
	close(w.events)

	require.NoError(t, r.Watch(context.Background(), w, "articles.json"))
	assert.Equal(t, 2, logs.FilterMessage("reindex failed").Len())
}

func TestReindexer_WatchStartError(t *testing.T) {
	boom := errors.New("inotify limit")
	r := NewReindexer(&stubLoader{}, NewIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, IngestConfig{}, nil), nil)

	err := r.Watch(context.Background(), &chanWatcher{err: boom}, "articles.json")

	assert.ErrorIs(t, err, boom)
}
