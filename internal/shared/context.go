package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the loaded session to the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the session loaded by the app middleware,
// or nil when the request carried no session cookie.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
