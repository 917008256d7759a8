package usecases

import (
	"fmt"
	"strings"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// NoDocumentsMarker replaces the document blocks when retrieval finds nothing.
const NoDocumentsMarker = "No relevant documents found."

const (
	DefaultHistoryTurns  = 6
	DefaultTurnCharLimit = 150

	documentSeparator = "\n---\n"
	dateBlockOpen     = "\n\n*** DATE CALCULATION RESULT ***\n"
	dateBlockClose    = "\n*********************************\n"
	historyBlockOpen  = "\n\nRECENT CONVERSATION:\n"
)

// ContextAssembler builds the context block of the answer prompt from
// retrieved documents, an optional opt-out calculation and recent turns.
type ContextAssembler struct {
	historyTurns  int
	turnCharLimit int
}

// NewContextAssembler creates a ContextAssembler. Non-positive limits fall
// back to the defaults.
func NewContextAssembler(historyTurns, turnCharLimit int) *ContextAssembler {
	if historyTurns <= 0 {
		historyTurns = DefaultHistoryTurns
	}
	if turnCharLimit <= 0 {
		turnCharLimit = DefaultTurnCharLimit
	}
	return &ContextAssembler{historyTurns: historyTurns, turnCharLimit: turnCharLimit}
}

// Assemble concatenates, in order: the document blocks (or NoDocumentsMarker),
// the date block when period is set, and the conversation block when the
// conversation has more than one turn. Documents keep their retrieval order.
func (a *ContextAssembler) Assemble(docs []entities.RetrievedDocument, conversation []entities.ConversationTurn, period *entities.OptOutPeriod) string {
	var sb strings.Builder

	if len(docs) == 0 {
		sb.WriteString(NoDocumentsMarker)
	} else {
		for i, d := range docs {
			if i > 0 {
				sb.WriteString(documentSeparator)
			}
			fmt.Fprintf(&sb, "Source (%s): %s\n%s", d.Category, d.Header, d.BodyText)
		}
	}

	if period != nil {
		sb.WriteString(dateBlockOpen)
		sb.WriteString(period.Summary)
		sb.WriteString(dateBlockClose)
	}

	if len(conversation) > 1 {
		recent := conversation
		if len(recent) > a.historyTurns {
			recent = recent[len(recent)-a.historyTurns:]
		}
		sb.WriteString(historyBlockOpen)
		for _, turn := range recent {
			sb.WriteString(strings.ToUpper(string(turn.Role)))
			sb.WriteString(": ")
			sb.WriteString(truncateRunes(turn.Content, a.turnCharLimit))
			sb.WriteString("...\n")
		}
	}

	return sb.String()
}

// truncateRunes keeps at most limit characters without splitting a rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
