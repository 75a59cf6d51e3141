// Package logging defines the printf-style logger used by the upgrade engine
// and the drop utility, along with an adapter onto log/slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type (
	// Logger is the sink for diagnostic output.
	Logger interface {
		Infof(format string, args ...any)
		Warnf(format string, args ...any)
		Errorf(format string, args ...any)
	}

	slogLogger struct {
		log *slog.Logger
	}
)

// Discard drops every message.
var Discard Logger = NewSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))

// NewSlog adapts a *slog.Logger. A nil logger falls back to slog.Default().
func NewSlog(log *slog.Logger) Logger {
	if log == nil {
		log = slog.Default()
	}

	return &slogLogger{log: log}
}

// NewText writes text-formatted records at info level and above to w.
func NewText(w io.Writer) Logger {
	return NewSlog(slog.New(slog.NewTextHandler(w, nil)))
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.write(slog.LevelInfo, format, args)
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.write(slog.LevelWarn, format, args)
}

func (l *slogLogger) Errorf(format string, args ...any) {
	l.write(slog.LevelError, format, args)
}

func (l *slogLogger) write(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}

	l.log.Log(ctx, level, fmt.Sprintf(format, args...))
}
