package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// NotFoundPhrase is what the model must say when the context has no answer.
const NotFoundPhrase = "I cannot find that information in the help articles provided."

// ErrStreamTruncated is reported when the model stream ends without a
// completion signal.
var ErrStreamTruncated = errors.New("completion stream ended unexpectedly")

const answerInstructions = "INSTRUCTIONS:\n" +
	"1. **Greetings & Pleasantries**: If the user says 'Hello', 'Good morning', 'Thanks', or 'Thank you', respond politely and naturally. You do NOT need context for this.\n" +
	"2. **Information Queries**: For questions about NEST, pensions, or account details, you must answer based **ONLY** on the provided context below. " +
	"3. **Privacy & Security**: You are a public help bot. You do **NOT** have access to member accounts. **NEVER** ask for personal details like NEST ID, NNI, or Date of Birth. If a user asks about their specific account (e.g., 'What is my balance?'), explain that you cannot access their account and guide them to log in to the website.\n" +
	"If the context contains instructions, options, or steps (e.g., 'Website', 'Phone', 'Post'), you MUST summarize them clearly for the user. " +
	"ADVANCED REASONING: If the DATE CALCULATION RESULT (below) is available, use it to answer specific date questions perfectly. " +
	"Do NOT try to do the math yourself if the result is provided. Trust the 'DATE CALCULATION RESULT'. " +
	"Do NOT simply say 'check the link' if the content is available in the text. " +
	"Do NOT fabricate information. " +
	"Do NOT mention external resources or say '(link provided)' unless the link path is explicitly present in the CONTEXT. " +
	"Always format links as Markdown: `[Link Text](url)`. " +
	"Be conversational but do NOT ask identifying questions. " +
	"If the answer is not in the context, say '" + NotFoundPhrase + "'\n\n"

// AnswerPromptBuilder composes the grounded system prompt and streams the
// model's answer.
type AnswerPromptBuilder struct {
	llm ports.CompletionService
	now ports.Clock
}

// NewAnswerPromptBuilder creates an AnswerPromptBuilder. A nil clock means time.Now.
func NewAnswerPromptBuilder(llm ports.CompletionService, now ports.Clock) *AnswerPromptBuilder {
	if now == nil {
		now = time.Now
	}
	return &AnswerPromptBuilder{llm: llm, now: now}
}

// BuildSystemPrompt returns the policy preamble followed by the context block.
func (b *AnswerPromptBuilder) BuildSystemPrompt(contextText string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful and strict assistant for a Help Center. ")
	fmt.Fprintf(&sb, "TODAY'S DATE: %s\n", b.now().Format(longDate))
	sb.WriteString(answerInstructions)
	sb.WriteString("CONTEXT:\n")
	sb.WriteString(contextText)
	return sb.String()
}

// Request builds the streaming completion request for query.
func (b *AnswerPromptBuilder) Request(query, contextText string) ports.CompletionRequest {
	return ports.CompletionRequest{
		Task: ports.TaskAnswer,
		Messages: []ports.Message{
			{Role: "system", Content: b.BuildSystemPrompt(contextText)},
			{Role: "user", Content: query},
		},
	}
}

// Stream issues one streaming completion and forwards non-empty fragments.
// The returned channel closes after a Done token or a token carrying Error.
// There is no retry; cancelling ctx stops delivery and, when the consumer is
// still reading, ends the stream with ctx's error.
func (b *AnswerPromptBuilder) Stream(ctx context.Context, query, contextText string) (<-chan ports.StreamToken, error) {
	upstream, err := b.llm.Stream(ctx, b.Request(query, contextText))
	if err != nil {
		return nil, fmt.Errorf("starting answer stream: %w", err)
	}

	// One slot so the terminal token fits once the consumer has caught up.
	out := make(chan ports.StreamToken, 1)
	go func() {
		defer close(out)

		send := func(tok ports.StreamToken) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}
		finish := func(err error) {
			tok := ports.StreamToken{Done: true, Error: err}
			select {
			case out <- tok:
			case <-ctx.Done():
				select {
				case out <- tok:
				default:
				}
			}
		}

		for tok := range upstream {
			switch {
			case tok.Error != nil:
				finish(tok.Error)
				return
			case tok.Done:
				if tok.Content != "" && !send(ports.StreamToken{Content: tok.Content}) {
					finish(ctx.Err())
					return
				}
				if !send(ports.StreamToken{Done: true}) {
					finish(ctx.Err())
				}
				return
			case tok.Content == "":
				continue
			}
			if !send(ports.StreamToken{Content: tok.Content}) {
				finish(ctx.Err())
				return
			}
		}

		if ctx.Err() != nil {
			finish(ctx.Err())
			return
		}
		finish(ErrStreamTruncated)
	}()

	return out, nil
}

// Collect drains a token stream into the full answer text. A stream that
// closes without a Done token is reported as ErrStreamTruncated.
func Collect(tokens <-chan ports.StreamToken) (string, error) {
	var sb strings.Builder
	for tok := range tokens {
		if tok.Error != nil {
			return sb.String(), tok.Error
		}
		sb.WriteString(tok.Content)
		if tok.Done {
			return sb.String(), nil
		}
	}
	return sb.String(), ErrStreamTruncated
}
