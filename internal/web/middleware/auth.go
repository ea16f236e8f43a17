package middleware

import (
	"log/slog"
	"net/http"
)

// RequireAuth returns middleware that sends unauthenticated requests to
// loginPath. Full-page requests get a 303 redirect. HTMX requests get an
// HX-Redirect header instead, since htmx would otherwise swap the login
// page into the target element.
func RequireAuth(isAuthenticated func(*http.Request) bool, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("auth: unauthenticated request",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)
			RedirectToLogin(w, r, loginPath)
		})
	}
}

// RedirectToLogin sends the client to loginPath in the form its request
// type expects.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
