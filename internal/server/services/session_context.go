package services

import "context"

// SessionContext carries the session secret presented by the caller. It is
// built once per request by the transport and passed explicitly to the
// services.
type SessionContext struct {
	Secret string
}

// Authenticated reports whether the caller presented any secret at all.
func (sc SessionContext) Authenticated() bool {
	return sc.Secret != ""
}

type sessionContextKey struct{}

func WithSessionContext(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sc)
}

// SessionFromContext returns the SessionContext stored in ctx, or the zero
// value when there is none.
func SessionFromContext(ctx context.Context) SessionContext {
	sc, _ := ctx.Value(sessionContextKey{}).(SessionContext)
	return sc
}
