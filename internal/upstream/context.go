package upstream

import (
	"context"
	"net/http"
)

type contextKey string

const ctxKeyCookies contextKey = "upstream_cookies"

// ContextWithCookies attaches the session's upstream cookies to ctx so every
// call made with ctx is authenticated as that session.
func ContextWithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, ctxKeyCookies, cookies)
}

// CookiesFromContext returns the upstream cookies stored in ctx.
func CookiesFromContext(ctx context.Context) []*http.Cookie {
	if v, ok := ctx.Value(ctxKeyCookies).([]*http.Cookie); ok {
		return v
	}
	return nil
}
