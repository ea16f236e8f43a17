package web

// This file contains shared utilities and helper functions used across handlers.

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/web/templates"
)

// parseIntParam parses an integer query parameter. Missing, malformed or
// below-min values yield defaultVal.
func parseIntParam(r *http.Request, name string, defaultVal, min int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < min {
		return defaultVal
	}
	return i
}

// viewQuery reads the dashboard's query parameters.
func viewQuery(r *http.Request) core.ViewQuery {
	q := r.URL.Query()
	return core.ViewQuery{
		Product: q.Get("product"),
		Bias:    q.Get("bias"),
		Page:    parseIntParam(r, "page", 0, 0),
		Size:    parseIntParam(r, "size", 0, 1),
		RMPage:  parseIntParam(r, "rm_page", 1, 1),
		Expand:  q.Get("expand"),
	}
}

// roleOptions lists the roles an admin can view the dashboard as.
func roleOptions() []string {
	opts := []string{roles.NameAdmin}
	for _, r := range roles.ScopedRoles() {
		opts = append(opts, r.String())
	}
	return opts
}

// headerFor describes the session for the page header.
func headerFor(st state.State) *templates.Header {
	h := &templates.Header{
		Email:         st.Email,
		Role:          st.ViewRole().String(),
		AdminLoggedIn: st.AdminLoggedIn,
	}
	if st.AdminLoggedIn {
		h.RoleOptions = roleOptions()
	}
	return h
}

// renderPage writes body wrapped in the page layout, or alone for htmx
// requests that swap it into an existing page.
func renderPage(w http.ResponseWriter, r *http.Request, title string, st state.State, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	c := body
	if !isHTMX(r) {
		c = templates.Layout(title, headerFor(st), body)
	}
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "title", title, "error", err)
	}
}
