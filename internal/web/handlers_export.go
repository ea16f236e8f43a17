package web

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/roles"
)

// handleExportCSV downloads the session's dashboard data as CSV. The
// legacy format is the default; ?format=rfc4180 opts into strict quoting.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err == nil && f != export.FormatCSV && f != export.FormatCSVStrict {
		err = fmt.Errorf("%w: %q is not a csv format", export.ErrUnknownFormat, f)
	}
	if err != nil {
		respondStatus(w, r, err, http.StatusBadRequest)
		return
	}
	s.writeExport(w, r, f)
}

// handleExport serves /api/export.pdf and /api/export.xlsx; the format is
// the path extension.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(strings.TrimPrefix(path.Ext(r.URL.Path), "."))
	if err != nil {
		respondStatus(w, r, err, http.StatusBadRequest)
		return
	}
	s.writeExport(w, r, f)
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, f export.Format) {
	st := sessionFrom(r.Context()).State

	doc, err := s.service.Export(r.Context(), st, f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(doc.Body)
}

// handleExportRows returns the field/value table as JSON, the same rows the
// PDF and Excel exports contain.
func (s *Server) handleExportRows(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State

	rows, err := s.service.ExportRows(r.Context(), st)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"header": export.TableHeader,
		"rows":   rows,
	})
}

// ColumnsResponse lists the columns a role sees in one table.
type ColumnsResponse struct {
	Table   string              `json:"table"`
	Role    string              `json:"role"`
	Columns []roles.ColumnEntry `json:"columns"`
}

// handleColumns resolves the visible columns of ?table= (default
// recommendations) for the session's role.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).State

	table := r.URL.Query().Get("table")
	if table == "" {
		table = roles.TableRecommendations
	}
	if _, ok := s.service.Catalog().Table(table); !ok {
		writeJSONError(w, http.StatusNotFound, "unknown table", "TBL001")
		return
	}

	// Permissions are keyed by the raw session role, as in the dashboard tables.
	cols, err := s.service.Columns(table, st.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, ColumnsResponse{Table: table, Role: st.Role, Columns: cols})
}
