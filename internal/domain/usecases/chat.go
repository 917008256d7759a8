// Package usecases - chat.go runs one member question through date reasoning,
// retrieval, context assembly and the streamed answer.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// DefaultTopN is how many articles are placed in the prompt.
const DefaultTopN = 3

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("query is empty")

// ChatConfig holds the retrieval policy of the chat pipeline.
type ChatConfig struct {
	Category string
	TopN     int
}

// ChatUseCase wires the answer pipeline together.
type ChatUseCase struct {
	conversations ports.ConversationStore
	dates         *OptOutCalculator
	retriever     ports.Retriever
	assembler     *ContextAssembler
	answers       *AnswerPromptBuilder
	followups     *FollowupPredictor
	transcripts   ports.TranscriptSink
	cfg           ChatConfig
	now           ports.Clock
	logger        *zap.Logger
}

// ChatDeps groups ChatUseCase collaborators.
type ChatDeps struct {
	Conversations ports.ConversationStore
	Dates         *OptOutCalculator
	Retriever     ports.Retriever
	Assembler     *ContextAssembler
	Answers       *AnswerPromptBuilder
	Followups     *FollowupPredictor
	Transcripts   ports.TranscriptSink // optional
	Clock         ports.Clock          // optional
	Logger        *zap.Logger          // optional
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(deps ChatDeps, cfg ChatConfig) *ChatUseCase {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if deps.Assembler == nil {
		deps.Assembler = NewContextAssembler(0, 0)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ChatUseCase{
		conversations: deps.Conversations,
		dates:         deps.Dates,
		retriever:     deps.Retriever,
		assembler:     deps.Assembler,
		answers:       deps.Answers,
		followups:     deps.Followups,
		transcripts:   deps.Transcripts,
		cfg:           cfg,
		now:           deps.Clock,
		logger:        deps.Logger,
	}
}

// AnswerStream is an answer in progress. Tokens must be drained or the
// context passed to Answer cancelled.
type AnswerStream struct {
	Tokens  <-chan ports.StreamToken
	Sources []entities.RetrievedDocument
	Period  *entities.OptOutPeriod
	Context string
}

// ChatResponse is a fully delivered answer.
type ChatResponse struct {
	Answer   string
	Followup string
	Sources  []entities.RetrievedDocument
	Period   *entities.OptOutPeriod
}

// Answer records the user turn and starts streaming a grounded answer.
// A session ID of "" runs without history.
func (uc *ChatUseCase) Answer(ctx context.Context, req entities.ChatRequest) (*AnswerStream, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	userTurn := entities.ConversationTurn{Role: entities.RoleUser, Content: query, Timestamp: uc.now()}
	conversation := []entities.ConversationTurn{userTurn}
	if req.SessionID != "" {
		if err := uc.conversations.Append(ctx, req.SessionID, userTurn); err != nil {
			return nil, fmt.Errorf("recording question: %w", err)
		}
		history, err := uc.conversations.History(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		conversation = history
	}

	var period *entities.OptOutPeriod
	if uc.dates != nil {
		period = uc.dates.TryCalculate(ctx, query)
	}

	docs, err := uc.retriever.Retrieve(ctx, query, uc.cfg.Category, uc.cfg.TopN)
	if err != nil {
		return nil, fmt.Errorf("retrieving articles: %w", err)
	}

	contextText := uc.assembler.Assemble(docs, conversation, period)
	tokens, err := uc.answers.Stream(ctx, query, contextText)
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("answer stream started",
		zap.String("session", req.SessionID),
		zap.Int("documents", len(docs)),
		zap.Bool("date_result", period != nil))

	return &AnswerStream{
		Tokens:  tokens,
		Sources: docs,
		Period:  period,
		Context: contextText,
	}, nil
}

// Commit is called once a stream finished cleanly. It records the assistant
// turn and the exchange, then returns the predicted follow-up topic.
func (uc *ChatUseCase) Commit(ctx context.Context, sessionID, query, answer string) string {
	if sessionID != "" {
		turn := entities.ConversationTurn{Role: entities.RoleAssistant, Content: answer, Timestamp: uc.now()}
		if err := uc.conversations.Append(ctx, sessionID, turn); err != nil {
			uc.logger.Warn("recording answer failed", zap.String("session", sessionID), zap.Error(err))
		}
	}

	var followup string
	if uc.followups != nil {
		followup = uc.followups.Predict(ctx, query, answer)
	}

	if uc.transcripts != nil {
		ex := entities.Exchange{SessionID: sessionID, Query: query, Answer: answer, Followup: followup, At: uc.now()}
		if err := uc.transcripts.RecordExchange(ctx, ex); err != nil {
			uc.logger.Warn("transcript write failed", zap.Error(err))
		}
	}
	return followup
}

// Ask answers without streaming to the caller. Nothing is recorded for the
// assistant when the stream fails.
func (uc *ChatUseCase) Ask(ctx context.Context, req entities.ChatRequest) (*ChatResponse, error) {
	stream, err := uc.Answer(ctx, req)
	if err != nil {
		return nil, err
	}
	answer, err := Collect(stream.Tokens)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	followup := uc.Commit(ctx, req.SessionID, strings.TrimSpace(req.Query), answer)
	return &ChatResponse{
		Answer:   answer,
		Followup: followup,
		Sources:  stream.Sources,
		Period:   stream.Period,
	}, nil
}
