package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// ============================================================================
// View Rendering Benchmarks
// ============================================================================

var benchPayload = gjson.Parse(`{
	"kpis": {
		"clients_with_bias": {"value": 1204},
		"avg_account_tenure": {"value": 6.25},
		"avg_risk_tolerance": {"value": "Moderate"},
		"clients_by_segment": {"value": {"Retail": 120, "HNI": 45, "UHNI": 9}}
	},
	"charts": {
		"knowledge_quiz_distribution": {"data": {"80-100": 12, "0-20": 3, "20-40": 9, "40-60": 20, "60-80": 31}},
		"top_countries": {"data": [{"name": "India", "value": 300}, {"name": "UAE", "value": 42}]},
		"bias_prevalence": {"data": {"Retail": {"Herding": 0.4, "Anchoring": 0.2}, "HNI": {"Herding": 0.1}}}
	},
	"compliance_summary": {"overall_compliance_score": 87.5}
}`)

var benchView = ViewDefinition{
	Cards: []Card{
		{Title: "Clients", Path: "kpis.clients_with_bias.value"},
		{Title: "Tenure", Path: "kpis.avg_account_tenure.value"},
		{Title: "Risk", Path: "kpis.avg_risk_tolerance.value"},
		{Title: "Missing", Path: "kpis.nope.value"},
	},
	Charts: []ChartSpec{
		{Title: "Segments", Kind: ChartBar, Path: "kpis.clients_by_segment.value"},
		{Title: "Quiz", Kind: ChartBar, Path: "charts.knowledge_quiz_distribution.data", SortNumeric: true},
		{Title: "Countries", Kind: ChartHorizontalBar, Path: "charts.top_countries.data"},
		{Title: "Prevalence", Kind: ChartHeatMap, Path: "charts.bias_prevalence.data", Scale: 100},
		{Title: "Compliance", Kind: ChartGauge, Path: "compliance_summary.overall_compliance_score"},
	},
	RolePayload: true,
}

// BenchmarkCardValue benchmarks KPI card rendering.
// Every role view renders its cards on each request.
func BenchmarkCardValue(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range benchView.Cards {
			c.Value(benchPayload)
		}
	}
}

// BenchmarkBuildCharts benchmarks building every chart of a view.
func BenchmarkBuildCharts(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildCharts(benchView, benchPayload)
	}
}

// BenchmarkAggregateCharts benchmarks the default view's charts with a
// realistic customer flow.
func BenchmarkAggregateCharts(b *testing.B) {
	insights := roles.DefaultCatalog().Insights
	flows := generateFlows(200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AggregateCharts(&insights, flows)
	}
}

// BenchmarkParsePayload benchmarks payload validation.
func BenchmarkParsePayload(b *testing.B) {
	body := []byte(benchPayload.Raw)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = parsePayload(body)
	}
}

// ============================================================================
// Table Rendering Benchmarks
// ============================================================================

// BenchmarkRenderRow benchmarks rendering one recommendation row with every
// catalog column.
func BenchmarkRenderRow(b *testing.B) {
	cols, err := roles.DefaultCatalog().Columns(roles.TableRecommendations, "Unmapped Role")
	if err != nil {
		b.Fatal(err)
	}
	row := gjson.Parse(`{"product_name":"Liquid Fund","product_id":"P1","match_score":0.8123,"risk_level":"High","knowledge_min":42,"matched_biases":["Herding","Anchoring"],"reason":"fit"}`)
	rc := roles.RowContext{Segment: "Retail"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		renderRow(cols, row, rc)
	}
}

// ============================================================================
// Error Mapping Benchmarks
// ============================================================================

// BenchmarkMapError benchmarks error classification.
// Pattern errors walk the whole pattern list in the worst case.
func BenchmarkMapError(b *testing.B) {
	errs := []error{
		&upstream.StatusError{Code: 401},
		&upstream.StatusError{Code: 503},
		errors.New("dial tcp: connection refused"),
		errors.New("rate limit exceeded"),
		errors.New("something nobody anticipated"),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, err := range errs {
			MapError(err)
		}
	}
}

// BenchmarkToPgText benchmarks text conversion for audit inserts.
func BenchmarkToPgText(b *testing.B) {
	testCases := []string{
		"Compliance Officer",
		"  padded  ",
		"",
		strings.Repeat("x", 512),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgText(tc)
		}
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

// BenchmarkBuildChartsParallel benchmarks concurrent view rendering.
func BenchmarkBuildChartsParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			BuildCharts(benchView, benchPayload)
		}
	})
}

// BenchmarkMapErrorParallel benchmarks parallel error classification.
func BenchmarkMapErrorParallel(b *testing.B) {
	err := errors.New("context deadline exceeded")
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			MapError(err)
		}
	})
}

// ============================================================================
// Memory Allocation Benchmarks
// ============================================================================

// BenchmarkConversionsAllocs measures allocations in audit conversions.
func BenchmarkConversionsAllocs(b *testing.B) {
	b.Run("ToPgUUID", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			ToPgUUID("6f1c7f9e-3a57-4c39-9b6b-1f0e2d6c8a11")
		}
	})

	b.Run("ToPgInet", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			ToPgInet("203.0.113.7:51234")
		}
	})

	b.Run("CardValue", func(b *testing.B) {
		b.ReportAllocs()
		c := benchView.Cards[0]
		for i := 0; i < b.N; i++ {
			c.Value(benchPayload)
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateFlows generates n sankey rows over a small set of categories so
// nodes repeat the way real flows do.
func generateFlows(n int) []upstream.SankeyRow {
	segments := []string{"Retail", "HNI", "UHNI"}
	risks := []string{"Low", "Medium", "High"}
	biases := []string{"Herding", "Anchoring", "Loss Aversion", "Overconfidence"}

	rows := make([]upstream.SankeyRow, n)
	for i := range rows {
		rows[i] = upstream.SankeyRow{
			Segment: segments[i%len(segments)],
			Risk:    risks[i%len(risks)],
			Bias:    biases[i%len(biases)],
			Product: fmt.Sprintf("Product %d", i%7),
			Count:   float64(i%13 + 1),
		}
	}
	return rows
}
