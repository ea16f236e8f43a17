package charts

import (
	"bytes"
	"testing"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/upstream"
)

const payload = `{
	"charts": {
		"clients_by_segment": {"data": {"Starters": 12, "Growth": 30, "Conservative": 7}},
		"portfolio_mix": {"data": [{"label": "Cash", "value": 20}, {"label": "ETF", "value": 50}]},
		"rka_distribution": {"data": {"Pass": 70, "Fail": 30}},
		"bias_prevalence": {"data": {"Growth": {"Herding": 0.4, "Framing": 0.1}, "Starters": {"Herding": 0.2, "Anchoring": 0.5}}},
		"knowledge_quiz_distribution": {"data": {"20-40": 5, "0-20": 2, "80-100": 1, "n/a": 3}}
	},
	"compliance_summary": {"overall_compliance_score": 82.5}
}`

func field(path string) gjson.Result {
	return gjson.Get(payload, path)
}

func TestPoints(t *testing.T) {
	got := Points(field("charts.clients_by_segment.data"))
	assert.Equal(t, []Point{{"Starters", 12}, {"Growth", 30}, {"Conservative", 7}}, got)

	got = Points(field("charts.portfolio_mix.data"))
	assert.Equal(t, []Point{{"Cash", 20}, {"ETF", 50}}, got)

	list := gjson.Parse(`[{"name":"Retirement Fund ","value":92.4}]`)
	assert.Equal(t, []Point{{"Retirement Fund", 92.4}}, Points(list))

	assert.Empty(t, Points(field("charts.missing.data")))
	assert.Empty(t, Points(gjson.Parse(`42`)))
}

func TestSortByLeadingNumber(t *testing.T) {
	in := Points(field("charts.knowledge_quiz_distribution.data"))
	got := SortByLeadingNumber(in)

	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"0-20", "20-40", "80-100", "n/a"}, names)
	assert.Equal(t, "20-40", in[0].Name, "input must not be reordered")
}

func TestBuilders_MissingDataYieldsNil(t *testing.T) {
	missing := field("charts.nothing")

	assert.Nil(t, Bar("x", missing))
	assert.Nil(t, HorizontalBar("x", missing))
	assert.Nil(t, Pie("x", missing))
	assert.Nil(t, Donut("x", missing))
	assert.Nil(t, HeatMap("x", missing, 100))
	assert.Nil(t, Gauge("x", missing))
	assert.Nil(t, Sankey("x", nil))
}

func TestBar_Renders(t *testing.T) {
	bar := Bar("Clients by Segment", field("charts.clients_by_segment.data"))
	require.NotNil(t, bar)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, bar))
	html := buf.String()
	assert.Contains(t, html, "Clients by Segment")
	assert.Contains(t, html, "Conservative")
	assert.Contains(t, html, "chart_clients_by_segment")
}

func TestGauge(t *testing.T) {
	g := Gauge("Compliance", field("compliance_summary.overall_compliance_score"))
	require.NotNil(t, g)

	assert.NotNil(t, Gauge("Compliance", gjson.Parse(`"75%"`)))
	assert.Nil(t, Gauge("Compliance", gjson.Parse(`"n/a"`)))
	assert.Nil(t, Gauge("Compliance", gjson.Parse(`null`)))
}

func TestHeatMap(t *testing.T) {
	hm := HeatMap("Bias Prevalence", field("charts.bias_prevalence.data"), 100)
	require.NotNil(t, hm)

	var buf bytes.Buffer
	require.NoError(t, hm.Render(&buf))
	assert.Contains(t, buf.String(), "Anchoring")
}

func TestSankeyGraph(t *testing.T) {
	rows := []upstream.SankeyRow{
		{Segment: "Starters", Risk: "Low", Bias: "Herding", Product: "Liquid Fund", Count: 3},
		{Segment: "Starters", Risk: "Low", Bias: "Framing", Product: "Liquid Fund", Count: 2},
		{Segment: "Growth", Risk: "High", Bias: "Herding", Product: "Smart Beta ETF", Count: 4},
	}

	nodes, flows := SankeyGraph(rows)
	assert.Equal(t, []string{"Starters", "Low", "Herding", "Liquid Fund", "Framing", "Growth", "High", "Smart Beta ETF"}, nodes)

	assert.Equal(t, Flow{"Starters", "Low", 5}, flows[0], "repeated links are summed")
	assert.Len(t, flows, 8)

	var total float64
	for _, f := range flows {
		if f.Source == "Herding" {
			total += f.Value
		}
	}
	assert.Equal(t, 7.0, total)
}

func TestPage_SkipsNilCharts(t *testing.T) {
	page := Page("Dashboard",
		Bar("Clients by Segment", field("charts.clients_by_segment.data")),
		Donut("Portfolio Mix", field("charts.portfolio_mix.data")),
		Pie("RKA", field("charts.missing")),
	)
	assert.Len(t, page.Charts, 2)

	out, err := RenderPage(page)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Portfolio Mix")

	var _ components.Charter = Pie("RKA", field("charts.rka_distribution.data"))
}
