// Package http serves the help-center chat API and a minimal chat page.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/session"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
)

// Sessions is the part of the session store the server drives directly.
type Sessions interface {
	Create(ctx context.Context, memberName string) (string, entities.ConversationTurn, error)
	End(ctx context.Context, sessionID string) ([]entities.ConversationTurn, error)
	MemberName(sessionID string) (string, error)
	Stats() map[string]int
}

// Deps groups the server's collaborators.
type Deps struct {
	Chat        *usecases.ChatUseCase
	Dates       *usecases.OptOutCalculator
	Sessions    Sessions
	Transcripts ports.TranscriptSink
	Clock       ports.Clock
	Logger      *zap.Logger
}

// Server is the HTTP server for the chat API.
type Server struct {
	deps       Deps
	addr       string
	corsOrigin string
	logger     *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, addr, corsOrigin string) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Server{
		deps:       deps,
		addr:       addr,
		corsOrigin: corsOrigin,
		logger:     deps.Logger,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("POST /api/session/end", s.handleEndSession)
	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("GET /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/optout", s.handleOptOut)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // Longer for streaming
	}

	s.logger.Info("help center server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type createSessionRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, greeting, err := s.deps.Sessions.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Greeting: greeting.Content})
}

type endSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}

	// An idle-expired session has no name left; End still returns its turns.
	name, _ := s.deps.Sessions.MemberName(req.SessionID)
	turns, err := s.deps.Sessions.End(r.Context(), req.SessionID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if s.deps.Transcripts != nil {
		st := entities.SessionTranscript{ID: req.SessionID, MemberName: name, Turns: turns}
		if err := s.deps.Transcripts.RecordSession(r.Context(), st); err != nil {
			s.logger.Warn("transcript write failed", zap.String("session", req.SessionID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ended", "turns": len(turns)})
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}
	if !entities.ValidRating(req.Rating) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("rating must be between %d and %d", entities.MinRating, entities.MaxRating))
		return
	}
	if s.deps.Transcripts != nil {
		fb := entities.Feedback{SessionID: req.SessionID, Rating: req.Rating, Comment: strings.TrimSpace(req.Comment), At: s.deps.Clock()}
		if err := s.deps.Transcripts.RecordFeedback(r.Context(), fb); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChatStream answers one question over server-sent events.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	query := r.URL.Query().Get("q")
	if sessionID == "" || strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "session and q required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	stream, err := s.deps.Chat.Answer(ctx, entities.ChatRequest{SessionID: sessionID, Query: query})
	if err != nil {
		if isNotFound(err) {
			s.writeSessionError(w, err)
			return
		}
		setSSEHeaders(w)
		s.logger.Error("answer failed", zap.String("session", sessionID), zap.Error(err))
		sendSSE(w, flusher, map[string]interface{}{"error": err.Error(), "done": true})
		return
	}

	setSSEHeaders(w)
	var answer strings.Builder
	streamErr := usecases.ErrStreamTruncated
	for tok := range stream.Tokens {
		if tok.Error != nil {
			streamErr = tok.Error
			break
		}
		if tok.Content != "" {
			answer.WriteString(tok.Content)
			sendSSE(w, flusher, map[string]interface{}{"content": tok.Content})
		}
		if tok.Done {
			streamErr = nil
			break
		}
	}
	if streamErr != nil {
		// Partial text already sent stays on screen but is never recorded.
		s.logger.Warn("answer stream failed", zap.String("session", sessionID), zap.Error(streamErr))
		sendSSE(w, flusher, map[string]interface{}{"error": streamErr.Error(), "done": true})
		return
	}

	followup := s.deps.Chat.Commit(context.WithoutCancel(ctx), sessionID, strings.TrimSpace(query), answer.String())
	sendSSE(w, flusher, map[string]interface{}{"done": true, "followup": followup})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type sourceJSON struct {
	URL      string `json:"url"`
	Category string `json:"category"`
	Header   string `json:"header"`
	Rank     int    `json:"rank"`
}

type periodJSON struct {
	EnrollmentDate string `json:"enrollment_date"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Summary        string `json:"summary"`
}

type chatResponse struct {
	Answer   string       `json:"answer"`
	Followup string       `json:"followup"`
	Sources  []sourceJSON `json:"sources"`
	OptOut   *periodJSON  `json:"opt_out,omitempty"`
}

// handleChat processes a non-streaming question.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.deps.Chat.Ask(r.Context(), entities.ChatRequest{SessionID: req.SessionID, Query: req.Query})
	switch {
	case err == nil:
	case errors.Is(err, usecases.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case isNotFound(err):
		s.writeSessionError(w, err)
		return
	default:
		s.logger.Error("answer failed", zap.String("session", req.SessionID), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	out := chatResponse{
		Answer:   resp.Answer,
		Followup: resp.Followup,
		Sources:  make([]sourceJSON, 0, len(resp.Sources)),
		OptOut:   toPeriodJSON(resp.Period),
	}
	for _, d := range resp.Sources {
		out.Sources = append(out.Sources, sourceJSON{URL: d.URL, Category: d.Category, Header: d.Header, Rank: d.Rank})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleOptOut runs the date calculator on its own.
func (s *Server) handleOptOut(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	period, err := s.deps.Dates.Calculate(r.Context(), text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toPeriodJSON(period))
	case errors.Is(err, usecases.ErrNoDate):
		writeError(w, http.StatusNotFound, "no date found")
	default:
		s.logger.Warn("date parser failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.deps.Sessions.Stats(),
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func toPeriodJSON(p *entities.OptOutPeriod) *periodJSON {
	if p == nil {
		return nil
	}
	return &periodJSON{
		EnrollmentDate: p.EnrollmentDate.Format(time.DateOnly),
		StartDate:      p.StartDate.Format(time.DateOnly),
		EndDate:        p.EndDate.Format(time.DateOnly),
		Summary:        p.Summary,
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, data map[string]interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the status code while keeping streaming working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
