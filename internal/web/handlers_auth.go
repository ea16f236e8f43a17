package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/web/templates"
)

// maxFormSize bounds login and role-switch form bodies.
const maxFormSize = 64 << 10

// handleLoginPage renders the sign-in form. Signed-in sessions go straight
// to the dashboard.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.authenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.LoginPage("", "").Render(r.Context(), w)
}

// handleLogin authenticates against the analytics service. A successful
// login starts a new session ID so a pre-login cookie cannot be reused.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		s.renderLogin(w, r, "", http.StatusBadRequest, "The sign-in form could not be read")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		s.renderLogin(w, r, email, http.StatusBadRequest, "Email and password are required")
		return
	}

	sess := sessionFrom(r.Context())
	oldID := sess.ID
	sess.ID = state.NewSessionID()
	ctx := core.ContextWithSessionID(r.Context(), sess.ID)

	next, err := s.service.Login(ctx, state.State{}, email, password)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, core.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		logging.FromContext(ctx).Warn("login failed", "email", email, "error", err)
		s.renderLogin(w, r, email, status, core.FormatUserError(err))
		return
	}

	if err := s.saveSession(w, r, next); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.sessions.Delete(ctx, oldID); err != nil {
		logging.FromContext(ctx).Warn("delete previous session failed", "error", err)
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, email string, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.LoginPage(email, msg).Render(r.Context(), w)
}

// handleLogout ends the upstream and dashboard sessions.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess.State.Authenticated() {
		if _, err := s.service.Logout(r.Context(), sess.State); err != nil {
			logging.FromContext(r.Context()).Warn("logout failed", "error", err)
		}
	}
	s.clearSession(w, r)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// handleSwitchRole lets an admin view the dashboard as another role.
// Non-admin sessions are left unchanged.
func (s *Server) handleSwitchRole(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		respondStatus(w, r, err, http.StatusBadRequest)
		return
	}

	sess := sessionFrom(r.Context())
	next := s.service.SwitchRole(r.Context(), sess.State, r.PostFormValue("role"))
	if err := s.saveSession(w, r, next); err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/dashboard")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SessionInfo is the JSON view of the signed-in session.
type SessionInfo struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	AdminLoggedIn bool   `json:"admin_logged_in"`
	View          string `json:"view"`
}

// handleSessionInfo reports who is signed in and which view they get. With
// ?check=1 it also confirms the session with the analytics service.
func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State

	if r.URL.Query().Get("check") != "" {
		if err := s.service.CheckSession(r.Context(), st); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	def, _ := core.ViewFor(st.ViewRole())
	writeJSON(w, r, SessionInfo{
		Email:         st.Email,
		Role:          st.ViewRole().String(),
		AdminLoggedIn: st.AdminLoggedIn,
		View:          string(def.Info.Key),
	})
}

// handleHealth reports liveness and the PDF render slots in use.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"renders": s.service.Renders().Status(),
	})
}
