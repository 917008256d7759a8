// Package transcript records finished exchanges, session transcripts and
// feedback as structured log entries.
package transcript

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// ZapSink implements ports.TranscriptSink on a dedicated logger, so
// transcripts can be routed to their own output by name.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink logging under the "transcript" name.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("transcript")}
}

func (s *ZapSink) RecordExchange(ctx context.Context, ex entities.Exchange) error {
	s.logger.Info("exchange",
		zap.String("session_id", ex.SessionID),
		zap.Time("at", ex.At),
		zap.String("query", ex.Query),
		zap.String("answer", ex.Answer),
		zap.String("followup", ex.Followup),
	)
	return nil
}

func (s *ZapSink) RecordSession(ctx context.Context, st entities.SessionTranscript) error {
	turns := st.Turns
	fields := []zap.Field{
		zap.String("session_id", st.ID),
		zap.Int("turns", len(turns)),
		zap.String("transcript", entities.Transcript(turns)),
	}
	if len(turns) > 0 {
		fields = append(fields,
			zap.Time("started", turns[0].Timestamp),
			zap.Time("ended", turns[len(turns)-1].Timestamp))
	}
	if st.MemberName != "" {
		fields = append(fields, zap.String("member", st.MemberName))
	}
	s.logger.Info("session ended", fields...)
	return nil
}

func (s *ZapSink) RecordFeedback(ctx context.Context, fb entities.Feedback) error {
	if !entities.ValidRating(fb.Rating) {
		return fmt.Errorf("rating %d outside %d..%d", fb.Rating, entities.MinRating, entities.MaxRating)
	}
	s.logger.Info("feedback",
		zap.String("session_id", fb.SessionID),
		zap.Time("at", fb.At),
		zap.Int("rating", fb.Rating),
		zap.String("comment", fb.Comment),
	)
	return nil
}
