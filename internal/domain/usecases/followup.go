package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// FollowupPredictor suggests the next topic after an answer. It is
// best-effort: failures produce an empty label.
type FollowupPredictor struct {
	llm    ports.CompletionService
	logger *zap.Logger
}

// NewFollowupPredictor creates a FollowupPredictor.
func NewFollowupPredictor(llm ports.CompletionService, logger *zap.Logger) *FollowupPredictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowupPredictor{llm: llm, logger: logger}
}

func followupPrompt(query, answer string) string {
	return fmt.Sprintf("Based on the user's question: '%s' and your answer: '%s', "+
		"predict ONE likely follow-up topic keywords based on the context. "+
		"Output ONLY the topic keywords (e.g. 'Opting Out', 'Pension Transfer'). "+
		"Do NOT frame it as a question. Do not include 'Do you need info on'. ", query, answer)
}

// Predict returns a short topic label, or "" when the model call fails or
// produces nothing usable.
func (p *FollowupPredictor) Predict(ctx context.Context, query, answer string) string {
	reply, err := p.llm.Complete(ctx, ports.CompletionRequest{
		Task:     ports.TaskFollowup,
		Messages: []ports.Message{{Role: "user", Content: followupPrompt(query, answer)}},
	})
	if err != nil {
		p.logger.Warn("follow-up prediction failed", zap.Error(err))
		return ""
	}
	return cleanLabel(reply)
}

// cleanLabel keeps the first non-empty line and strips quoting and emphasis.
func cleanLabel(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "*\"'`")
		line = strings.TrimSpace(strings.TrimSuffix(line, "."))
		if line != "" {
			return line
		}
	}
	return ""
}
