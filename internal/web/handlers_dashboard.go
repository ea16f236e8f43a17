package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/roledash/internal/charts"
	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/web/templates"
)

// handleRoot sends signed-in users to their dashboard.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDashboard renders the view the session's role dispatches to.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State

	data, err := s.service.LoadView(r.Context(), st, viewQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.rememberCustomers(w, r, data.Customers)

	renderPage(w, r, data.Def.Info.Title, st, templates.Dashboard(data, r.URL.RequestURI()))
}

// handleCharts renders the view's charts as a standalone go-echarts page,
// embedded by the dashboard in an iframe.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State

	data, err := s.service.LoadView(r.Context(), st, viewQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body, err := charts.RenderPage(charts.Page(data.Def.Info.Title, data.Charts...))
	if err != nil {
		respondStatus(w, r, err, http.StatusInternalServerError)
		return
	}

	if s.cfg.Security.EnableCSP {
		w.Header().Set("Content-Security-Policy", chartsCSP)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleCustomers renders one page of the matched-customer table for the
// selected segment and bias.
func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State
	q := viewQuery(r)

	ct, err := s.service.Customers(r.Context(), st, core.CustomerQuery{
		Product: q.Product,
		Bias:    q.Bias,
		Page:    q.Page,
		Size:    q.Size,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.rememberCustomers(w, r, ct)

	renderPage(w, r, "Customers", st, templates.CustomerTable(ct))
}

// rememberCustomers stores the matched customers in the session so a
// page refresh keeps the last result.
func (s *Server) rememberCustomers(w http.ResponseWriter, r *http.Request, ct *core.CustomerTable) {
	if ct == nil {
		return
	}
	st := sessionFrom(r.Context()).State
	next := state.Reduce(st, state.SetCustomers{Customers: ct.All})
	if err := s.saveSession(w, r, next); err != nil {
		logging.FromContext(r.Context()).Warn("store matched customers failed", "error", err)
	}
}

// handleRecommendations renders the recommendation table of one customer.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State
	customerID := chi.URLParam(r, "customerID")

	rt, err := s.service.CustomerRecommendations(r.Context(), st, customerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	renderPage(w, r, "Recommendations", st, templates.Recommendations(rt))
}

// handleKnowledgeTable renders one server-side page of the knowledge quiz
// table, with at most one row expanded.
func (s *Server) handleKnowledgeTable(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State
	page := parseIntParam(r, "page", 1, 1)

	kt, err := s.service.KnowledgeTable(r.Context(), st, page, r.URL.Query().Get("expand"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	renderPage(w, r, "Knowledge Quiz Scores", st, templates.KnowledgeTable(kt))
}
