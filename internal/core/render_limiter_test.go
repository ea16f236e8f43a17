package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
)

// heldPDF blocks every render until release is closed.
type heldPDF struct {
	started chan struct{}
	release chan struct{}
}

func newHeldPDF() *heldPDF {
	return &heldPDF{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (h *heldPDF) RenderPDF(ctx context.Context, _ string, rows []export.Row) ([]byte, error) {
	h.started <- struct{}{}
	select {
	case <-h.release:
		return []byte("%PDF-1.4"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newExportService(t *testing.T, pdf export.PDFRenderer, limiter *core.RenderLimiter, sink core.AuditSink) *core.Service {
	t.Helper()
	api := &fakeUpstream{dashboard: []byte(`{"kpis":{"total":{"value":3}}}`)}
	svc, err := core.NewService(core.ServiceConfig{
		API:      api,
		Exporter: export.New(pdf, ""),
		Renders:  limiter,
		Audit:    sink,
	})
	require.NoError(t, err)
	return svc
}

func TestExport_PDFRendersAreBounded(t *testing.T) {
	defer goleak.VerifyNone(t)

	pdf := newHeldPDF()
	limiter := core.NewRenderLimiter(1, 50*time.Millisecond)
	sink := &memorySink{}
	svc := newExportService(t, pdf, limiter, sink)
	st := state.State{Role: roles.NameComplianceOfficer}
	ctx := context.Background()

	type result struct {
		doc *export.Document
		err error
	}
	first := make(chan result, 1)
	go func() {
		doc, err := svc.Export(ctx, st, export.FormatPDF)
		first <- result{doc, err}
	}()
	<-pdf.started

	assert.Equal(t, core.RenderLimiterStatus{Active: 1, Available: 0, MaxConcurrent: 1}, limiter.Status())

	_, err := svc.Export(ctx, st, export.FormatPDF)
	require.ErrorIs(t, err, core.ErrTooManyRenders)
	assert.Equal(t, "EXP003", core.MapError(err).Code)

	// CSV and XLSX do not wait for a render slot.
	for _, f := range []export.Format{export.FormatCSV, export.FormatCSVStrict, export.FormatXLSX} {
		doc, err := svc.Export(ctx, st, f)
		require.NoError(t, err, "format %s", f)
		assert.Equal(t, f.Filename(), doc.Filename)
	}

	close(pdf.release)
	got := <-first
	require.NoError(t, got.err)
	assert.Equal(t, "dashboard_data.pdf", got.doc.Filename)

	require.NoError(t, limiter.WaitForDrain(ctx))
	assert.Equal(t, 0, limiter.Status().Active)
	assert.Len(t, sink.entries, 4, "the rejected export is not audited")
}

func TestRenderLimiter_WaitForDrain(t *testing.T) {
	pdf := newHeldPDF()
	limiter := core.NewRenderLimiter(2, time.Second)
	svc := newExportService(t, pdf, limiter, nil)

	require.NoError(t, limiter.WaitForDrain(context.Background()), "idle limiter drains at once")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Export(context.Background(), state.State{}, export.FormatPDF)
		done <- err
	}()
	<-pdf.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(short), context.DeadlineExceeded)

	drained := make(chan error, 1)
	go func() { drained <- limiter.WaitForDrain(context.Background()) }()
	close(pdf.release)

	require.NoError(t, <-done)
	require.NoError(t, <-drained)
}

func TestRenderLimiter_CallerCancelWhileWaiting(t *testing.T) {
	pdf := newHeldPDF()
	limiter := core.NewRenderLimiter(1, time.Minute)
	svc := newExportService(t, pdf, limiter, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Export(context.Background(), state.State{}, export.FormatPDF)
		done <- err
	}()
	<-pdf.started

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := svc.Export(ctx, state.State{}, export.FormatPDF)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.False(t, errors.Is(err, core.ErrTooManyRenders))

	close(pdf.release)
	require.NoError(t, <-done)
}

func TestNewRenderLimiter_Defaults(t *testing.T) {
	st := core.NewRenderLimiter(0, 0).Status()
	assert.Equal(t, core.DefaultMaxConcurrentRenders, st.MaxConcurrent)
	assert.Equal(t, core.DefaultMaxConcurrentRenders, st.Available)
}
