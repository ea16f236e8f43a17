package core

import (
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/roles"
)

// MissingValue is shown in place of a KPI the payload does not carry.
const MissingValue = "-"

// ViewInfo contains display information about a dashboard view.
type ViewInfo struct {
	Key   roles.ViewKey // Unique identifier: "compliance-officer"
	Title string        // Page heading: "Compliance Officer Dashboard"
	Role  string        // Role name shown in loading and empty messages
	Order int           // Position in the admin "view as" menu
}

// Card is one KPI tile. Path is a gjson path into the view payload.
type Card struct {
	Title  string
	Path   string
	Suffix string // Appended to present values, e.g. "%"
}

// Value returns the card's display text, or MissingValue when the payload
// has no value at Path.
func (c Card) Value(payload gjson.Result) string {
	v := payload.Get(c.Path)
	if !v.Exists() || v.Type == gjson.Null {
		return MissingValue
	}

	var text string
	switch v.Type {
	case gjson.String:
		text = v.Str
	case gjson.Number:
		text = flatten.FormatNumber(v.Num)
	case gjson.True, gjson.False:
		text = v.Raw
	default:
		text = flatten.Stringify(v)
	}
	if text == "" {
		return MissingValue
	}
	return text + c.Suffix
}

// ChartKind selects the chart widget for a ChartSpec.
type ChartKind string

const (
	ChartBar           ChartKind = "bar"
	ChartHorizontalBar ChartKind = "horizontal_bar"
	ChartDonut         ChartKind = "donut"
	ChartPie           ChartKind = "pie"
	ChartHeatMap       ChartKind = "heatmap"
	ChartGauge         ChartKind = "gauge"
)

// ChartSpec places one chart of a view. Path is a gjson path into the view
// payload.
type ChartSpec struct {
	Title       string
	Kind        ChartKind
	Path        string
	Scale       float64 // HeatMap only; 0 means 1
	SortNumeric bool    // Order categories by their leading number
}

// ViewDefinition contains everything needed to render a view.
//
// Role-scoped views read their cards and charts from the role payload. The
// default view has no role payload; it aggregates matched customers, top
// insights and the customer flow instead.
type ViewDefinition struct {
	Info   ViewInfo
	Cards  []Card
	Charts []ChartSpec

	// RolePayload is true when the view renders GET /dashboard-data.
	RolePayload bool

	// KnowledgeTable adds the server-paginated knowledge quiz table.
	KnowledgeTable bool

	// Aggregate adds the customer segment table, top insights and the
	// customer flow diagram.
	Aggregate bool
}
