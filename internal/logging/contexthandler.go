package logging

import (
	"context"
	"log/slog"

	"github.com/fates3gx/sdk/internal/state"
)

// ContextProvider returns the attributes stamped on each record.
type ContextProvider func() []slog.Attr

// ContextHandler adds the provider's attributes to every record it passes on.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.inner.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.inner.WithGroup(name), h.provider)
}

// RuntimeProvider stamps map_generation and side from rt's published stamp,
// so records logged off the hook thread (summary writer, storage) are safe.
func RuntimeProvider(rt *state.Runtime) ContextProvider {
	return func() []slog.Attr {
		gen, side := rt.Stamp()
		return []slog.Attr{
			slog.Uint64("map_generation", uint64(gen)),
			slog.String("side", side.String()),
		}
	}
}
