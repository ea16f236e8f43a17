package core

import (
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/charts"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// BuildChart builds one chart of a role view from its payload. It returns
// nil when the payload does not carry the chart's data.
func BuildChart(spec ChartSpec, payload gjson.Result) components.Charter {
	data := payload.Get(spec.Path)

	switch spec.Kind {
	case ChartBar:
		points := charts.Points(data)
		if spec.SortNumeric {
			points = charts.SortByLeadingNumber(points)
		}
		if c := charts.BarFromPoints(spec.Title, points); c != nil {
			return c
		}
	case ChartHorizontalBar:
		if c := charts.HorizontalBar(spec.Title, data); c != nil {
			return c
		}
	case ChartDonut:
		if c := charts.Donut(spec.Title, data); c != nil {
			return c
		}
	case ChartPie:
		if c := charts.Pie(spec.Title, data); c != nil {
			return c
		}
	case ChartHeatMap:
		if c := charts.HeatMap(spec.Title, data, spec.Scale); c != nil {
			return c
		}
	case ChartGauge:
		if c := charts.Gauge(spec.Title, data); c != nil {
			return c
		}
	}
	return nil
}

// BuildCharts builds every chart of def that the payload carries, in
// definition order.
func BuildCharts(def ViewDefinition, payload gjson.Result) []components.Charter {
	var out []components.Charter
	for _, spec := range def.Charts {
		if c := BuildChart(spec, payload); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// AggregateCharts builds the default view's charts: top products, top
// biases and the customer flow.
func AggregateCharts(insights *roles.Insights, flows []upstream.SankeyRow) []components.Charter {
	var out []components.Charter
	if insights != nil {
		if c := charts.HorizontalBarFromPoints("Top Products", insightPoints(insights.TopProducts)); c != nil {
			out = append(out, c)
		}
		if c := charts.HorizontalBarFromPoints("Top Biases", insightPoints(insights.TopBiases)); c != nil {
			out = append(out, c)
		}
	}
	if c := charts.Sankey("Customer Flow", flows); c != nil {
		out = append(out, c)
	}
	return out
}

func insightPoints(list []roles.Insight) []charts.Point {
	out := make([]charts.Point, len(list))
	for i, in := range list {
		out[i] = charts.Point{Name: in.Name, Value: in.Value}
	}
	return out
}
