package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX, JSON, or HTML)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls s.respondError(w, r, err)
//  3. Upstream 401/403 clears the session and redirects to the login page
//  4. Anything else is mapped via core.MapError and logged with the request ID
//  5. The user message is rendered with a Retry link back to the failed page

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/upstream"
	"github.com/JonMunkholm/roledash/internal/web/templates"
	appmw "github.com/JonMunkholm/roledash/internal/web/middleware"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status reported for err.
func statusFor(err error) int {
	code := upstream.StatusCode(err)
	switch {
	case upstream.IsAuthFailure(err), errors.Is(err, state.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrPDFUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrTooManyRenders):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case code == http.StatusNotFound:
		return http.StatusNotFound
	case code != 0,
		errors.Is(err, upstream.ErrMalformedResponse),
		errors.Is(err, flatten.ErrInvalidPayload):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with user-friendly messages.
// An upstream auth failure ends the dashboard session and sends the client
// to the login page; every other error is reported with a Retry link.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if upstream.IsAuthFailure(err) || errors.Is(err, state.ErrSessionNotFound) {
		logging.FromContext(r.Context()).Info("session rejected, signing out",
			"path", r.URL.Path,
			"error", err,
		)
		s.clearSession(w, r)
		if wantsJSON(r) && !isHTMX(r) {
			respondStatus(w, r, err, http.StatusUnauthorized)
			return
		}
		appmw.RedirectToLogin(w, r, LoginPath)
		return
	}
	respondStatus(w, r, err, statusFor(err))
}

// respondStatus logs err and writes its user message with statusCode in the
// format the request expects.
func respondStatus(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders a full error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	page := templates.Layout("Error", nil,
		templates.StatusMessage(msg.Message, msg.Action, msg.Code, retryURL(r)))
	_ = page.Render(r.Context(), w)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// htmx ignores non-2xx bodies unless told where to put them.
	w.Header().Set("HX-Reswap", "innerHTML")
	w.WriteHeader(statusCode)
	_ = templates.StatusMessage(msg.Message, msg.Action, msg.Code, retryURL(r)).Render(r.Context(), w)
}

// retryURL is where the Retry link of a failed request points. Only
// idempotent requests are retried. Partial requests retry the whole page
// the browser is on, provided HX-Current-URL names a page on this host.
func retryURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	if isHTMX(r) {
		if cur, ok := sameHostPath(r.Header.Get("HX-Current-URL"), r.Host); ok {
			return cur
		}
	}
	return r.URL.RequestURI()
}

// sameHostPath reduces an absolute http(s) URL on host to its path and query.
func sameHostPath(raw, host string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host != host {
		return "", false
	}
	return u.RequestURI(), true
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSONError writes a JSON error that has no core.UserMessage mapping.
func writeJSONError(w http.ResponseWriter, statusCode int, message, code string) {
	respondErrorJSON(w, core.UserMessage{Message: message, Code: code}, statusCode)
}
