package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/state"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already resolved by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}

type sessionKey struct{}

// session is the dashboard session of one request.
type session struct {
	ID    string
	State state.State
}

func withSession(ctx context.Context, sess *session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFrom returns the request's session, or an empty one outside the
// session middleware.
func sessionFrom(ctx context.Context) *session {
	if sess, ok := ctx.Value(sessionKey{}).(*session); ok {
		return sess
	}
	return &session{}
}
