package charts

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/JonMunkholm/roledash/internal/upstream"
)

// Flow is one weighted link between two sankey nodes.
type Flow struct {
	Source string
	Target string
	Value  float64
}

// SankeyGraph builds the node list and links of the segment → risk → bias
// → product flow. Nodes are unique in first-seen order. Each row adds its
// count to three links, and repeated links are summed in place.
func SankeyGraph(rows []upstream.SankeyRow) ([]string, []Flow) {
	var nodes []string
	seen := map[string]bool{}
	addNode := func(name string) {
		if !seen[name] {
			seen[name] = true
			nodes = append(nodes, name)
		}
	}

	var flows []Flow
	index := map[[2]string]int{}
	addFlow := func(src, dst string, v float64) {
		key := [2]string{src, dst}
		if i, ok := index[key]; ok {
			flows[i].Value += v
			return
		}
		index[key] = len(flows)
		flows = append(flows, Flow{Source: src, Target: dst, Value: v})
	}

	for _, r := range rows {
		addNode(r.Segment)
		addNode(r.Risk)
		addNode(r.Bias)
		addNode(r.Product)

		addFlow(r.Segment, r.Risk, r.Count)
		addFlow(r.Risk, r.Bias, r.Count)
		addFlow(r.Bias, r.Product, r.Count)
	}
	return nodes, flows
}

// Sankey renders the customer flow diagram of the default view.
func Sankey(title string, rows []upstream.SankeyRow) *charts.Sankey {
	nodes, flows := SankeyGraph(rows)
	if len(flows) == 0 {
		return nil
	}

	sNodes := make([]opts.SankeyNode, len(nodes))
	for i, n := range nodes {
		sNodes[i] = opts.SankeyNode{Name: n}
	}
	sLinks := make([]opts.SankeyLink, len(flows))
	for i, f := range flows {
		sLinks[i] = opts.SankeyLink{Source: f.Source, Target: f.Target, Value: float32(f.Value)}
	}

	s := charts.NewSankey()
	s.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1200px",
			Height:    "900px",
			ChartID:   chartID(title),
		}),
		titleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)
	s.AddSeries(title, sNodes, sLinks,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return s
}
