package pipeline

import (
	"sync"

	"go.uber.org/zap"

	"detype/internal/normalize"
)

// Sink receives one diagnostic per matched snippet, success or failure.
type Sink interface {
	Emit(d normalize.Diagnostic)
}

// CollectSink gathers diagnostics into a slice. Safe for concurrent use.
type CollectSink struct {
	mu          sync.Mutex
	diagnostics []normalize.Diagnostic
}

func (s *CollectSink) Emit(d normalize.Diagnostic) {
	s.mu.Lock()
	s.diagnostics = append(s.diagnostics, d)
	s.mu.Unlock()
}

// Diagnostics returns a copy of everything emitted so far.
func (s *CollectSink) Diagnostics() []normalize.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]normalize.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// LogSink writes diagnostics to a zap logger: successes at info,
// failures at warn.
type LogSink struct {
	Logger *zap.Logger
}

func (s *LogSink) Emit(d normalize.Diagnostic) {
	fields := []zap.Field{
		zap.String("path", d.Path),
		zap.String("lang", d.Lang),
	}
	if d.Severity == normalize.SeverityFailed {
		s.Logger.Warn(d.Message, fields...)
		return
	}
	if d.Output != "" {
		fields = append(fields, zap.String("output", d.Output))
	}
	s.Logger.Info(d.Message, fields...)
}

// TeeSink fans a diagnostic out to several sinks.
type TeeSink []Sink

func (t TeeSink) Emit(d normalize.Diagnostic) {
	for _, s := range t {
		s.Emit(d)
	}
}
