package logger

import (
	"context"
	"log/slog"
	"runtime"
)

type sourceHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

// NewSourceHandler wraps a handler so records at or above minLevel carry
// their source location. Routine info logs stay compact while warnings and
// errors remain traceable to a call site.
//
// The wrapped handler should be built with AddSource: false; this wrapper
// attaches the source attribute itself.
func NewSourceHandler(handler slog.Handler, minLevel slog.Level) slog.Handler {
	return &sourceHandler{
		handler:  handler,
		minLevel: minLevel,
	}
}

func (h *sourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.minLevel {
		// Skip this frame plus the slog internal frame to reach the caller.
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		frames := runtime.CallersFrames(pcs[:])
		frame, _ := frames.Next()

		r.AddAttrs(slog.Attr{
			Key: slog.SourceKey,
			Value: slog.AnyValue(&slog.Source{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			}),
		})
	}

	return h.handler.Handle(ctx, r)
}

func (h *sourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sourceHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *sourceHandler) WithGroup(name string) slog.Handler {
	return &sourceHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func (h *sourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}
