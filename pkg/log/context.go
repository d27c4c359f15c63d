package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the logger stored in ctx, or the global logger.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// ConnContext detaches a connection's logging scope from the request that
// opened it. The request context is cancelled once the upgrade handler
// returns, but the connection keeps the request's log fields plus conn_id.
func ConnContext(reqCtx context.Context, connID string) context.Context {
	l := Ctx(reqCtx).With().Str(FieldConnID, connID).Logger()
	return WithLogger(context.Background(), l)
}
