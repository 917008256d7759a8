// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import (
	"strings"
	"time"
)

// Article is a scraped help-center page. The scraper is a black box that
// produces these records; ingestion only reads them.
type Article struct {
	URL      string `json:"url"`
	Category string `json:"category"`
	Header   string `json:"header"`
	Content  string `json:"content"`
}

// DocumentMetadata travels with every stored chunk and comes back on retrieval.
type DocumentMetadata struct {
	URL      string
	Category string
	Header   string
}

// Chunk represents a piece of an article for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int       // Position in article
	Embedding  []float32 // Vector representation (populated by adapter)
	Metadata   DocumentMetadata
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk Chunk
	Score float64 // Similarity score
}

// RetrievedDocument is one ranked hit handed to the context assembler.
// Rank 1 is the most relevant.
type RetrievedDocument struct {
	URL      string
	Category string
	Header   string
	BodyText string
	Rank     int
}

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn represents a single message in a chat session.
type ConversationTurn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// OptOutPeriod is derived per query from an enrollment date and never persisted.
type OptOutPeriod struct {
	EnrollmentDate time.Time
	StartDate      time.Time
	EndDate        time.Time
	Summary        string
}

// ChatRequest represents one user turn within a session.
type ChatRequest struct {
	SessionID string
	Query     string
}

// Exchange is a finished question/answer pair forwarded for transcript logging.
type Exchange struct {
	SessionID string
	Query     string
	Answer    string
	Followup  string
	At        time.Time
}

// SessionTranscript is a finished session handed to the transcript sink.
type SessionTranscript struct {
	ID         string
	MemberName string // empty when the member gave none
	Turns      []ConversationTurn
}

// Feedback is a member's rating of a finished session.
type Feedback struct {
	SessionID string
	Rating    int // 1..10
	Comment   string
	At        time.Time
}

const (
	MinRating = 1
	MaxRating = 10
)

// ValidRating reports whether r is on the 1 to 10 scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// DateOf strips the clock from t, keeping its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Transcript renders turns as "ROLE: content" blocks separated by blank lines.
func Transcript(turns []ConversationTurn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(strings.ToUpper(string(t.Role)))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
