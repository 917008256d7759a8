package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

func TestFollowupPredictor_ReturnsLabel(t *testing.T) {
	llm := &fakeLLM{reply: "  'Pension Transfer'\n"}
	p := NewFollowupPredictor(llm, nil)

	got := p.Predict(context.Background(), "How do I opt out?", "Use the website.")

	assert.Equal(t, "Pension Transfer", got)
	req := llm.lastRequest()
	assert.Equal(t, ports.TaskFollowup, req.Task)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Based on the user's question: 'How do I opt out?' and your answer: 'Use the website.'")
	assert.Contains(t, req.Messages[0].Content, "Do NOT frame it as a question.")
}

func TestFollowupPredictor_ErrorYieldsEmpty(t *testing.T) {
	p := NewFollowupPredictor(&fakeLLM{replyErr: errors.New("timeout")}, nil)

	assert.Equal(t, "", p.Predict(context.Background(), "q", "a"))
}

func TestCleanLabel(t *testing.T) {
	tests := map[string]string{
		"Opting Out":            "Opting Out",
		"**Opting Out**":        "Opting Out",
		"\"Refunds.\"":          "Refunds",
		"\n\n  Contributions \n": "Contributions",
		"Tax relief\nMore text": "Tax relief",
		"   ":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanLabel(in), "input %q", in)
	}
}
