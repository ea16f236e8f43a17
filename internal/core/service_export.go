package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/state"
)

// ViewRecord fetches the session's dashboard payload and flattens it.
// Every role exports GET /dashboard-data, including the default view.
func (s *Service) ViewRecord(ctx context.Context, st state.State) (*flatten.Record, error) {
	body, err := s.api.DashboardData(sessionContext(ctx, st), st.EnteredRole())
	if err != nil {
		return nil, fmt.Errorf("dashboard data: %w", err)
	}
	rec, err := flatten.Flatten(body)
	if err != nil {
		return nil, fmt.Errorf("dashboard data: %w", err)
	}
	return rec, nil
}

// ExportRows returns the flattened payload as field/value rows.
func (s *Service) ExportRows(ctx context.Context, st state.State) ([]export.Row, error) {
	rec, err := s.ViewRecord(ctx, st)
	if err != nil {
		return nil, err
	}
	return export.ToRows(rec), nil
}

// Export renders the session's dashboard payload as format f and records an
// audit entry. PDF rendering is bounded by the render limiter.
func (s *Service) Export(ctx context.Context, st state.State, f export.Format) (*export.Document, error) {
	rec, err := s.ViewRecord(ctx, st)
	if err != nil {
		return nil, err
	}

	var doc *export.Document
	render := func(ctx context.Context) error {
		d, err := s.exporter.Export(ctx, f, rec)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}

	if f == export.FormatPDF {
		err = s.renders.Do(ctx, render)
	} else {
		err = render(ctx)
	}
	if err != nil {
		return nil, err
	}

	entry := NewAuditEntry(ctx, ActionExport)
	entry.Email = st.Email
	entry.Role = st.Role
	entry.Format = string(f)
	entry.Fields = rec.Len()
	recordAudit(ctx, s.audit, entry)

	logging.FromContext(ctx).Info("dashboard exported",
		"format", f,
		"fields", rec.Len(),
		"bytes", len(doc.Body),
	)
	return doc, nil
}
