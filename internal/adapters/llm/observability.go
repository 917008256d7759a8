package llm

import (
	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

// CallEvent records metadata about a single model invocation.
type CallEvent struct {
	Task      ports.TaskType
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
	Streamed  bool
	Attempts  int
}

// Observer receives events about model calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// ZapObserver logs call events as structured entries.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver creates an Observer that logs to logger.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{logger: logger}
}

func (o *ZapObserver) OnCallComplete(event CallEvent) {
	fields := []zap.Field{
		zap.String("task", string(event.Task)),
		zap.String("model", event.Model),
		zap.Int64("latency_ms", event.LatencyMs),
		zap.Bool("streamed", event.Streamed),
		zap.Int("attempts", event.Attempts),
	}
	if event.Success {
		o.logger.Info("llm_call", fields...)
		return
	}
	o.logger.Warn("llm_call", append(fields, zap.String("error_code", event.ErrorCode))...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
