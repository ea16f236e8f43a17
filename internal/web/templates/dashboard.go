package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/roles"
)

// Dashboard renders the body of a dashboard view. Failed sections render a
// status message with a retry link to retryURL.
func Dashboard(v *core.ViewData, retryURL string) templ.Component {
	return component(func(ctx context.Context, p *page) error {
		def := v.Def

		p.raw(`<h1>`)
		p.text(def.Info.Title)
		p.raw(`</h1>`)

		if def.RolePayload {
			p.raw(`<section class="cards">`)
			for _, c := range v.Cards {
				p.raw(`<div class="card"><div class="label">`)
				p.text(c.Title)
				p.raw(`</div><div class="value">`)
				p.text(c.Value)
				p.raw(`</div></div>`)
			}
			p.raw(`</section>`)
		}

		if len(v.Charts) > 0 {
			p.raw(`<iframe class="charts" src="/dashboard/charts" title="Charts"></iframe>`)
		} else if def.RolePayload {
			p.raw(`<p class="muted">No chart data available for `)
			p.text(def.Info.Role)
			p.raw(`.</p>`)
		}

		if def.KnowledgeTable {
			p.raw(`<section id="rm-table"><h2>Knowledge Quiz Scores</h2>`)
			switch {
			case v.KnowledgeErr != nil:
				renderSectionError(p, v.KnowledgeErr, retryURL)
			case v.Knowledge != nil:
				renderKnowledge(p, v.Knowledge)
			}
			p.raw(`</section>`)
		}

		if def.Aggregate {
			if v.InsightsErr != nil {
				p.raw(`<h2>Top Insights</h2>`)
				renderSectionError(p, v.InsightsErr, retryURL)
			}
			if v.FlowsErr != nil {
				p.raw(`<h2>Customer Flow</h2>`)
				renderSectionError(p, v.FlowsErr, retryURL)
			}
			switch {
			case v.CustomersErr != nil:
				p.raw(`<section id="customers"><h2>Customers by Segment</h2>`)
				renderSectionError(p, v.CustomersErr, retryURL)
				p.raw(`</section>`)
			case v.Customers != nil:
				renderCustomers(p, v.Customers)
			}
		}
		return nil
	})
}

func renderSectionError(p *page, err error, retryURL string) {
	msg := core.MapError(err)
	renderStatus(p, msg.Message, msg.Action, msg.Code, retryURL)
}

// CustomerTable renders the matched-customer section, including its
// segment and bias filters.
func CustomerTable(ct *core.CustomerTable) templ.Component {
	return component(func(_ context.Context, p *page) error {
		renderCustomers(p, ct)
		return nil
	})
}

func renderCustomers(p *page, ct *core.CustomerTable) {
	p.raw(`<section id="customers"><h2>Customers by Segment</h2>`)

	p.raw(`<form method="get" action="/dashboard/customers" hx-get="/dashboard/customers" hx-target="#customers" hx-swap="outerHTML" hx-trigger="change">`)
	p.raw(`<select name="product">`)
	var biases []string
	for _, seg := range ct.Segments {
		p.raw(`<option`)
		p.attr("value", seg.Product)
		if seg.Product == ct.Product {
			p.raw(` selected`)
			biases = seg.Biases
		}
		p.raw(`>`)
		p.text(seg.Product)
		p.raw(`</option>`)
	}
	p.raw(`</select> <select name="bias">`)
	for _, b := range biases {
		p.raw(`<option`)
		p.attr("value", b)
		if b == ct.Bias {
			p.raw(` selected`)
		}
		p.raw(`>`)
		p.text(b)
		p.raw(`</option>`)
	}
	p.raw(`</select> <noscript><button type="submit">Apply</button></noscript></form>`)

	if ct.Page.Total == 0 {
		p.raw(`<p class="muted">No customers match this segment and bias.</p></section>`)
		return
	}

	renderTable(p, ct.Columns, ct.Rows)

	link := func(pageIndex int) string {
		return withQuery("/dashboard/customers", map[string]string{
			"product": ct.Product,
			"bias":    ct.Bias,
			"page":    itoa(pageIndex),
			"size":    itoa(ct.Page.PageSize),
		})
	}
	p.raw(`<div class="pager">`)
	if ct.Page.CanPrevious() {
		pagerLink(p, "Previous", link(ct.Page.PageIndex-1), "#customers")
	}
	p.textf("Page %d of %d", ct.Page.Number(), ct.Page.PageCount)
	if ct.Page.CanNext() {
		pagerLink(p, "Next", link(ct.Page.PageIndex+1), "#customers")
	}
	p.raw(`</div></section>`)
}

func pagerLink(p *page, label, href, target string) {
	p.raw(`<a`)
	p.attr("href", href)
	p.attr("hx-get", href)
	p.attr("hx-target", target)
	p.raw(` hx-swap="outerHTML">`)
	p.text(label)
	p.raw(`</a>`)
}

// KnowledgeTable renders the server-paginated knowledge quiz table.
func KnowledgeTable(kt *core.KnowledgeTable) templ.Component {
	return component(func(_ context.Context, p *page) error {
		p.raw(`<section id="rm-table"><h2>Knowledge Quiz Scores</h2>`)
		renderKnowledge(p, kt)
		p.raw(`</section>`)
		return nil
	})
}

func renderKnowledge(p *page, kt *core.KnowledgeTable) {
	if len(kt.Customers) == 0 {
		p.raw(`<p class="muted">No knowledge quiz data.</p>`)
		return
	}

	link := func(pageIndex int, expand string) string {
		return withQuery("/dashboard/rm-table", map[string]string{
			"page":   itoa(pageIndex),
			"expand": expand,
		})
	}

	p.raw(`<table><thead><tr><th>Customer ID</th><th>Base Knowledge Score</th><th>Bias</th><th>Products</th></tr></thead><tbody>`)
	for _, c := range kt.Customers {
		expanded := kt.Expansion.IsExpanded(c.CustomerID)
		toggle := c.CustomerID
		if expanded {
			toggle = ""
		}

		p.raw(`<tr><td>`)
		pagerLink(p, c.CustomerID, link(kt.Page.PageIndex, toggle), "#rm-table")
		p.raw(`</td><td>`)
		p.text(flatten.FormatNumber(c.BaseKnowledgeScore))
		p.raw(`</td><td>`)
		p.text(c.Bias)
		p.raw(`</td><td>`)
		p.text(itoa(len(c.Products)))
		p.raw(`</td></tr>`)

		if !expanded {
			continue
		}
		p.raw(`<tr><td colspan="4"><table><thead><tr><th>Product</th><th>Quiz Score</th><th>Minimum</th><th>Meets Requirement</th></tr></thead><tbody>`)
		for _, prod := range c.Products {
			tone := roles.ToneBad
			verdict := "No"
			if prod.MeetsRequirement {
				tone, verdict = roles.ToneGood, "Yes"
			}
			p.raw(`<tr><td>`)
			p.text(prod.ProductName)
			p.raw(`<span class="sub">`)
			p.text(prod.ProductID)
			p.raw(`</span></td><td>`)
			p.text(flatten.FormatNumber(prod.KnowledgeQuizScore))
			p.raw(`</td><td>`)
			p.text(flatten.FormatNumber(prod.KnowledgeMinRequired))
			p.raw(`</td><td`)
			p.attr("class", "tone-"+string(tone))
			p.raw(`>`)
			p.text(verdict)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></td></tr>`)
	}
	p.raw(`</tbody></table>`)

	p.raw(`<div class="pager">`)
	if kt.Page.CanPrevious() {
		pagerLink(p, "Previous", link(kt.Page.Previous(), ""), "#rm-table")
	}
	p.textf("Page %d of %d", kt.Page.PageIndex, kt.Page.TotalPages)
	if kt.Page.CanNext() {
		pagerLink(p, "Next", link(kt.Page.Next(), ""), "#rm-table")
	}
	p.raw(`</div>`)
}

// Recommendations renders the recommendation table of one customer.
func Recommendations(rt *core.RecommendationTable) templ.Component {
	return component(func(_ context.Context, p *page) error {
		p.raw(`<p><a href="/dashboard">Back to dashboard</a></p><h1>Recommendations for `)
		p.text(rt.CustomerID)
		p.raw(`</h1>`)
		if rt.Segment != "" {
			p.raw(`<p class="muted">Segment: `)
			p.text(rt.Segment)
			p.raw(`</p>`)
		}
		if len(rt.Rows) == 0 {
			p.raw(`<p class="muted">No recommendations for this customer.</p>`)
			return nil
		}
		renderTable(p, rt.Columns, rt.Rows)
		return nil
	})
}

func renderTable(p *page, cols []roles.ColumnEntry, rows [][]roles.Cell) {
	p.raw(`<table><thead><tr>`)
	for _, c := range cols {
		p.raw(`<th>`)
		p.text(c.Header)
		p.raw(`</th>`)
	}
	p.raw(`</tr></thead><tbody>`)
	for _, row := range rows {
		p.raw(`<tr>`)
		for _, cell := range row {
			renderCell(p, cell)
		}
		p.raw(`</tr>`)
	}
	p.raw(`</tbody></table>`)
}

func renderCell(p *page, c roles.Cell) {
	p.raw(`<td`)
	if c.Tone != "" && c.Tone != roles.ToneNeutral && len(c.Tags) == 0 {
		p.attr("class", "tone-"+string(c.Tone))
	}
	p.raw(`>`)

	switch {
	case len(c.Tags) > 0:
		for _, t := range c.Tags {
			p.raw(`<span class="tag">`)
			p.text(t)
			p.raw(`</span>`)
		}
	case c.Href != "":
		p.raw(`<a`)
		p.attr("href", c.Href)
		p.raw(`>`)
		p.text(c.Text)
		p.raw(`</a>`)
	default:
		p.text(c.Text)
	}

	if c.Sub != "" {
		p.raw(`<span class="sub">`)
		p.text(c.Sub)
		p.raw(`</span>`)
	}
	p.raw(`</td>`)
}
