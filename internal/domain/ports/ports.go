// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TaskType identifies why a completion is being requested. Adapters look up
// sampling parameters and timeouts per task.
type TaskType string

const (
	TaskAnswer   TaskType = "answer"
	TaskFollowup TaskType = "followup"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a chat-style request to a language model.
type CompletionRequest struct {
	Task        TaskType
	Messages    []Message
	Temperature *float64 // nil uses task default
	MaxTokens   *int     // nil uses task default
}

// CompletionService talks to a hosted or local language model.
type CompletionService interface {
	// Complete returns the whole reply in one piece.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Stream returns reply fragments as they arrive. The channel is closed
	// after a token with Done or Error set; cancelling ctx stops the producer.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamToken, error)
}

// StreamToken represents a single fragment in a streaming completion.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// VectorStore persists and queries article chunk embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the chunks most similar to a query embedding, restricted to
	// one category. An empty category searches everything.
	Search(ctx context.Context, embedding []float32, category string, topK int) ([]entities.QueryResult, error)

	// Delete removes all chunks for a document.
	Delete(ctx context.Context, documentID string) error

	// Clear removes all data from the store.
	Clear(ctx context.Context) error
}

// Retriever returns ranked documents for a query within a single category.
type Retriever interface {
	Retrieve(ctx context.Context, query, category string, topN int) ([]entities.RetrievedDocument, error)
}

// DateParser extracts a calendar date from free text. found is false when
// the text holds no recognisable date; err is reserved for parser failures.
type DateParser interface {
	ParseDate(ctx context.Context, text string, now time.Time) (date time.Time, found bool, err error)
}

// ArticleLoader reads scraped articles from a source path.
type ArticleLoader interface {
	Load(ctx context.Context, path string) ([]entities.Article, error)
}

// ConversationStore owns per-session conversation history.
type ConversationStore interface {
	// Append adds a turn to the session.
	Append(ctx context.Context, sessionID string, turn entities.ConversationTurn) error

	// History returns a copy of all turns in order.
	History(ctx context.Context, sessionID string) ([]entities.ConversationTurn, error)
}

// TranscriptSink receives finished exchanges, ended-session transcripts and
// member feedback.
type TranscriptSink interface {
	RecordExchange(ctx context.Context, ex entities.Exchange) error
	RecordSession(ctx context.Context, st entities.SessionTranscript) error
	RecordFeedback(ctx context.Context, fb entities.Feedback) error
}

// Clock supplies the current time.
type Clock func() time.Time

// FileWatcher monitors a single file for changes.
type FileWatcher interface {
	// Watch starts monitoring path and emits events until ctx is cancelled.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
