package logging

import (
	"context"
	"log/slog"
)

// fanoutHandler sends each record to every output handler that accepts its
// level, so a terminal and a log file can use different formats.
type fanoutHandler struct {
	outputs []slog.Handler
}

func newFanoutHandler(outputs ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(outputs))
	for _, h := range outputs {
		if h != nil {
			kept = append(kept, h)
		}
	}
	switch len(kept) {
	case 0:
		return NoopHandler{}
	case 1:
		return kept[0]
	}
	return &fanoutHandler{outputs: kept}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, out := range h.outputs {
		if out.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(h.outputs) - 1
	for i, out := range h.outputs {
		if !out.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if i < last {
			rec = record.Clone()
		}
		if err := out.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(out slog.Handler) slog.Handler { return out.WithAttrs(attrs) })
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return h.each(func(out slog.Handler) slog.Handler { return out.WithGroup(name) })
}

func (h *fanoutHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.outputs))
	for i, out := range h.outputs {
		next[i] = fn(out)
	}
	return &fanoutHandler{outputs: next}
}
