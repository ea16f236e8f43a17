// Package charts builds the dashboard's chart widgets from KPI payload
// fragments using go-echarts.
//
// Every builder takes the gjson.Result at the chart's payload path and
// returns nil when that result is missing or holds no data, so a view can
// skip charts its payload does not carry.
package charts

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/tidwall/gjson"
)

// Palette used across the dashboard's charts.
const (
	colorPrimary   = "#00B2B2"
	colorSecondary = "#206374"
	colorAccent    = "#4174F4"
	colorMuted     = "#A8FFFF"
)

var palette = []string{colorPrimary, colorSecondary, colorMuted, colorAccent}

const (
	defaultWidth  = "560px"
	defaultHeight = "360px"
)

// Point is one labelled value of a category chart.
type Point struct {
	Name  string
	Value float64
}

// Points reads a chart series from r. Two shapes are accepted: an object
// mapping category to value, kept in document order, or a list of objects
// carrying "name" or "label" plus "value".
func Points(r gjson.Result) []Point {
	var out []Point
	switch {
	case r.IsObject():
		r.ForEach(func(k, v gjson.Result) bool {
			out = append(out, Point{Name: k.String(), Value: v.Float()})
			return true
		})
	case r.IsArray():
		for _, item := range r.Array() {
			name := item.Get("name")
			if !name.Exists() {
				name = item.Get("label")
			}
			out = append(out, Point{
				Name:  strings.TrimSpace(name.String()),
				Value: item.Get("value").Float(),
			})
		}
	}
	return out
}

var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// SortByLeadingNumber orders points whose names start with a number, such
// as score buckets "0-20" and "20-40", numerically. Names without a number
// keep their relative order after the numbered ones.
func SortByLeadingNumber(points []Point) []Point {
	out := append([]Point(nil), points...)
	key := func(p Point) (float64, bool) {
		m := leadingNumber.FindStringSubmatch(p.Name)
		if m == nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		return f, err == nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := key(out[i])
		b, bok := key(out[j])
		if aok != bok {
			return aok
		}
		return aok && a < b
	})
	return out
}

var nonIdent = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// chartID derives a stable DOM id from a title so rendered pages are
// reproducible.
func chartID(title string) string {
	id := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if id == "" {
		id = "chart"
	}
	return "chart_" + id
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     defaultWidth,
		Height:    defaultHeight,
		ChartID:   chartID(title),
	})
}

func titleOpts(title string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title})
}

func names(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Name
	}
	return out
}

func barData(points []Point) []opts.BarData {
	out := make([]opts.BarData, len(points))
	for i, p := range points {
		out[i] = opts.BarData{
			Name:      p.Name,
			Value:     p.Value,
			ItemStyle: &opts.ItemStyle{Color: colorPrimary},
		}
	}
	return out
}

func pieData(points []Point) []opts.PieData {
	out := make([]opts.PieData, len(points))
	for i, p := range points {
		out[i] = opts.PieData{
			Name:      p.Name,
			Value:     p.Value,
			ItemStyle: &opts.ItemStyle{Color: palette[i%len(palette)]},
		}
	}
	return out
}

// Bar is a vertical category bar chart.
func Bar(title string, r gjson.Result) *charts.Bar {
	return BarFromPoints(title, Points(r))
}

// BarFromPoints is Bar for points already extracted or reordered.
func BarFromPoints(title string, points []Point) *charts.Bar {
	if len(points) == 0 {
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(title),
		titleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(names(points)).AddSeries(title, barData(points))
	return bar
}

// HorizontalBar is a bar chart with categories on the vertical axis.
func HorizontalBar(title string, r gjson.Result) *charts.Bar {
	return HorizontalBarFromPoints(title, Points(r))
}

// HorizontalBarFromPoints is HorizontalBar for points already extracted.
func HorizontalBarFromPoints(title string, points []Point) *charts.Bar {
	bar := BarFromPoints(title, points)
	if bar == nil {
		return nil
	}
	bar.XYReversal()
	return bar
}

// Pie is a full pie chart.
func Pie(title string, r gjson.Result) *charts.Pie {
	return pie(title, Points(r), nil)
}

// Donut is a ring chart.
func Donut(title string, r gjson.Result) *charts.Pie {
	return pie(title, Points(r), []string{"45%", "70%"})
}

func pie(title string, points []Point, radius []string) *charts.Pie {
	if len(points) == 0 {
		return nil
	}
	p := charts.NewPie()
	p.SetGlobalOptions(
		initOpts(title),
		titleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	seriesOpts := []charts.SeriesOpts{
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
	}
	if radius != nil {
		seriesOpts = append(seriesOpts, charts.WithPieChartOpts(opts.PieChart{Radius: radius}))
	}
	p.AddSeries(title, pieData(points), seriesOpts...)
	return p
}

// HeatMap renders a row → column → value matrix, such as segment → bias →
// prevalence. Values are multiplied by scale; prevalence fractions use 100.
// Rows become the horizontal axis in document order and columns the
// vertical axis in first-seen order.
func HeatMap(title string, r gjson.Result, scale float64) *charts.HeatMap {
	if !r.IsObject() {
		return nil
	}
	if scale == 0 {
		scale = 1
	}

	var (
		rows   []string
		cols   []string
		colIdx = map[string]int{}
		cells  []opts.HeatMapData
		peak   float64
	)
	r.ForEach(func(row, inner gjson.Result) bool {
		x := len(rows)
		rows = append(rows, row.String())
		inner.ForEach(func(col, v gjson.Result) bool {
			y, ok := colIdx[col.String()]
			if !ok {
				y = len(cols)
				colIdx[col.String()] = y
				cols = append(cols, col.String())
			}
			val := v.Float() * scale
			if val > peak {
				peak = val
			}
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{x, y, val}})
			return true
		})
		return true
	})
	if len(cells) == 0 {
		return nil
	}
	if peak <= 0 {
		peak = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(title),
		titleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: rows}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: cols}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			InRange:    &opts.VisualMapInRange{Color: []string{"#e0f7fa", colorAccent}},
		}),
	)
	hm.SetXAxis(rows).AddSeries(title, cells)
	return hm
}

// Gauge is a radial gauge for a single score such as overall compliance.
func Gauge(title string, r gjson.Result) *charts.Gauge {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	val := r.Float()
	if r.Type == gjson.String {
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(r.Str), "%"), 64)
		if err != nil {
			return nil
		}
		val = f
	}

	g := charts.NewGauge()
	g.SetGlobalOptions(
		initOpts(title),
		titleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	g.AddSeries(title, []opts.GaugeData{{Name: title, Value: val}})
	return g
}

// Render writes a chart's standalone HTML to w.
func Render(w io.Writer, c interface{ Render(io.Writer) error }) error {
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Page assembles charts into one flex-layout page. Nil entries are skipped.
func Page(title string, list ...components.Charter) *components.Page {
	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetLayout(components.PageFlexLayout)
	for _, c := range list {
		if c == nil || isNilChart(c) {
			continue
		}
		page.AddCharts(c)
	}
	return page
}

// RenderPage renders a page into memory.
func RenderPage(page *components.Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart page: %w", err)
	}
	return buf.Bytes(), nil
}

// isNilChart catches typed nil pointers wrapped in the Charter interface.
func isNilChart(c components.Charter) bool {
	switch v := c.(type) {
	case *charts.Bar:
		return v == nil
	case *charts.Pie:
		return v == nil
	case *charts.HeatMap:
		return v == nil
	case *charts.Gauge:
		return v == nil
	case *charts.Sankey:
		return v == nil
	}
	return false
}
