package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/state"
)

// loadSession resolves the session cookie to its stored state and attaches
// both, plus the audit metadata, to the request context. Unknown or
// malformed IDs get a fresh ID and the zero state; the cookie is only set
// once the session is saved.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := &session{ID: state.NewSessionID()}

		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil && state.ValidSessionID(c.Value) {
			st, err := s.sessions.Get(ctx, c.Value)
			switch {
			case err == nil:
				sess = &session{ID: c.Value, State: st}
			case errors.Is(err, state.ErrSessionNotFound):
				logging.FromContext(ctx).Debug("unknown session, starting fresh")
			default:
				respondStatus(w, r, err, http.StatusInternalServerError)
				return
			}
		}

		ctx = core.ContextWithSessionID(ctx, sess.ID)
		ctx = WithRequestMetadata(ctx, r)
		ctx = withSession(ctx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticated reports whether the request belongs to a logged-in session.
func (s *Server) authenticated(r *http.Request) bool {
	return sessionFrom(r.Context()).State.Authenticated()
}

// saveSession stores next for the request's session and (re)issues the
// session cookie.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, next state.State) error {
	sess := sessionFrom(r.Context())
	if err := s.sessions.Put(r.Context(), sess.ID, next); err != nil {
		return err
	}
	sess.State = next

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearSession deletes the stored session and expires the cookie.
func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess.ID != "" {
		if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
			logging.FromContext(r.Context()).Warn("delete session failed", "error", err)
		}
	}
	sess.State = state.State{}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
