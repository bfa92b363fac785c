package convert

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with conversion-specific helpers so stages log
// with consistent field names. Log output is informational only.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger writing JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// LogStage logs the completion of a pipeline stage.
func (l *Logger) LogStage(ctx context.Context, stage string, args ...any) {
	l.InfoContext(ctx, "stage complete", append([]any{"stage", stage}, args...)...)
}

// LogBatch logs the outcome of one feature batch.
func (l *Logger) LogBatch(ctx context.Context, r BatchResult) {
	if r.Err != nil {
		l.ErrorContext(ctx, "feature batch failed, skipping",
			"batch", r.Index,
			"start", r.Start,
			"end", r.End,
			"written", r.Written,
			"error", r.Err,
		)

		return
	}

	l.DebugContext(ctx, "feature batch converted",
		"batch", r.Index,
		"start", r.Start,
		"end", r.End,
		"written", r.Written,
	)
}

// LogFeatureClass logs the summary of a converted feature class.
func (l *Logger) LogFeatureClass(ctx context.Context, s ClassReport) {
	if s.FailedBatches > 0 {
		l.WarnContext(ctx, "feature class converted with failures",
			"class", s.Class,
			"total", s.Inventory.TotalFeatures,
			"processed", s.Inventory.FeaturesProcessed,
			"written", s.Written,
			"failed_batches", s.FailedBatches,
			"covered_cells", s.CoveredCells,
		)

		return
	}

	l.InfoContext(ctx, "feature class converted",
		"class", s.Class,
		"total", s.Inventory.TotalFeatures,
		"written", s.Written,
		"covered_cells", s.CoveredCells,
	)
}
