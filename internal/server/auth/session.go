package auth

import "context"

type sessionKey struct{}

// Session is the per-request authentication state resolved from the
// session cookie. A zero Session means an anonymous caller.
type Session struct {
	UserID string
}

func (s Session) Authenticated() bool { return s.UserID != "" }

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored in ctx, or an anonymous one.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
