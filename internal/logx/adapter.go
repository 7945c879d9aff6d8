package logx

import "log/slog"

type slogAdapter struct {
	l *slog.Logger
}

// NewSlogAdapter wraps an *slog.Logger in the Logger contract.
func NewSlogAdapter(l *slog.Logger) Logger {
	return &slogAdapter{l: l}
}

func (a *slogAdapter) Debug(msg string, fields ...Field) { a.l.Debug(msg, toSlogArgs(fields)...) }

func (a *slogAdapter) Info(msg string, fields ...Field) { a.l.Info(msg, toSlogArgs(fields)...) }

func (a *slogAdapter) Warn(msg string, fields ...Field) { a.l.Warn(msg, toSlogArgs(fields)...) }

func (a *slogAdapter) Error(msg string, fields ...Field) { a.l.Error(msg, toSlogArgs(fields)...) }

// With attaches fields to every subsequent entry.
func (a *slogAdapter) With(fields ...Field) Logger {
	return &slogAdapter{l: a.l.With(toSlogArgs(fields)...)}
}

// Sync is a no-op: slog handlers flush on every write.
func (a *slogAdapter) Sync() error { return nil }

func toSlogArgs(fields []Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, slog.Any(f.Key, f.Value))
	}
	return args
}
