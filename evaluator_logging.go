package rimepatch

import (
	"time"

	"github.com/rs/zerolog"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Check    string
	Expr     string
	Document string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZerologEvaluatorLogger writes evaluations at debug level and failures at
// warn level.
func ZerologEvaluatorLogger(logger zerolog.Logger) EvaluatorLogger {
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		entry := logger.Debug()
		if event.Err != nil {
			entry = logger.Warn().Err(event.Err)
		}
		entry.
			Str("engine", event.Engine).
			Str("check", event.Check).
			Str("expr", event.Expr).
			Str("document", event.Document).
			Dur("duration", event.Duration).
			Msg("check evaluated")
	})
}
