package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/roledash/internal/flatten"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/table"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// CardValue is a rendered KPI card.
type CardValue struct {
	Title string
	Value string
}

// ViewQuery carries the request parameters a view reads.
type ViewQuery struct {
	Product string // Default view segment filter
	Bias    string // Default view bias filter
	Page    int    // Customer table page, 0-based
	Size    int    // Customer table page size
	RMPage  int    // Knowledge table page, 1-based
	Expand  string // Expanded knowledge table row
}

// ViewData is everything needed to render one dashboard view.
//
// Sections of the default view load independently: a failed section
// carries its error and the rest of the view still renders. Upstream auth
// failures are never captured; they fail the whole load.
type ViewData struct {
	Def     ViewDefinition
	Role    roles.Role
	Payload gjson.Result
	Cards   []CardValue
	Charts  []components.Charter

	Customers    *CustomerTable
	CustomersErr error
	Insights     *roles.Insights
	InsightsErr  error
	Flows        []upstream.SankeyRow
	FlowsErr     error
	Knowledge    *KnowledgeTable
	KnowledgeErr error
}

// LoadView dispatches the session's role to its view and fetches the data
// the view renders.
func (s *Service) LoadView(ctx context.Context, st state.State, q ViewQuery) (*ViewData, error) {
	role := st.ViewRole()
	def, ok := ViewFor(role)
	if !ok {
		return nil, fmt.Errorf("no view registered for %q", roles.Dispatch(role))
	}

	log := logging.WithFields(ctx, "view", def.Info.Key, "role", st.Role)
	ctx = sessionContext(ctx, st)
	data := &ViewData{Def: def, Role: role}

	g, gctx := errgroup.WithContext(ctx)

	if def.RolePayload {
		g.Go(func() error {
			body, err := s.api.DashboardData(gctx, st.EnteredRole())
			if err != nil {
				return fmt.Errorf("dashboard data: %w", err)
			}
			payload, err := parsePayload(body)
			if err != nil {
				return err
			}
			data.Payload = payload
			return nil
		})
	}

	if def.KnowledgeTable {
		g.Go(func() error {
			kt, err := s.knowledgeTable(gctx, st, q.RMPage, q.Expand)
			data.Knowledge, data.KnowledgeErr = kt, err
			return authOnly(err)
		})
	}

	if def.Aggregate {
		// Only an admin session sees matched customers and live insights.
		if st.AdminLoggedIn {
			g.Go(func() error {
				ct, err := s.customers(gctx, st, CustomerQuery{
					Product: q.Product,
					Bias:    q.Bias,
					Page:    q.Page,
					Size:    q.Size,
				})
				data.Customers, data.CustomersErr = ct, err
				return authOnly(err)
			})
			g.Go(func() error {
				ins, err := s.api.TopInsights(gctx)
				if err != nil {
					data.InsightsErr = fmt.Errorf("top insights: %w", err)
					return authOnly(err)
				}
				data.Insights = ins
				return nil
			})
		} else {
			fallback := s.Catalog().Insights
			data.Insights = &fallback
		}

		g.Go(func() error {
			flows, err := s.api.SankeyData(gctx)
			if err != nil {
				data.FlowsErr = fmt.Errorf("sankey data: %w", err)
				return authOnly(err)
			}
			data.Flows = flows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("view load failed", "error", err)
		return nil, err
	}

	for _, sectionErr := range []error{data.CustomersErr, data.InsightsErr, data.FlowsErr, data.KnowledgeErr} {
		if sectionErr != nil {
			log.Warn("view section failed", "error", sectionErr)
		}
	}

	if def.RolePayload {
		data.Cards = make([]CardValue, len(def.Cards))
		for i, c := range def.Cards {
			data.Cards[i] = CardValue{Title: c.Title, Value: c.Value(data.Payload)}
		}
		data.Charts = BuildCharts(def, data.Payload)
	}
	if def.Aggregate {
		data.Charts = append(data.Charts, AggregateCharts(data.Insights, data.Flows)...)
	}

	return data, nil
}

// authOnly lets upstream auth failures abort an errgroup while every other
// error stays with its section.
func authOnly(err error) error {
	if upstream.IsAuthFailure(err) {
		return err
	}
	return nil
}

// parsePayload checks that a view payload is a JSON object.
func parsePayload(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("dashboard data: %w", flatten.ErrInvalidPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("dashboard data: %w: not an object", flatten.ErrInvalidPayload)
	}
	return root, nil
}

// ----------------------------------------------------------------------------
// Matched customers
// ----------------------------------------------------------------------------

// CustomerQuery selects a segment and bias and a page of its customers.
type CustomerQuery struct {
	Product string
	Bias    string
	Page    int // 0-based
	Size    int
}

// CustomerTable is one page of the matched-customer table.
type CustomerTable struct {
	Product  string
	Bias     string
	Segments []roles.Segment
	Columns  []roles.ColumnEntry
	Page     table.Page[upstream.Customer]
	Rows     [][]roles.Cell

	// All is every matched customer, for storing in the session.
	All []upstream.Customer
}

// Customers fetches the customers matching a segment and bias and renders
// the requested page with the columns the session role may see.
func (s *Service) Customers(ctx context.Context, st state.State, q CustomerQuery) (*CustomerTable, error) {
	return s.customers(sessionContext(ctx, st), st, q)
}

func (s *Service) customers(ctx context.Context, st state.State, q CustomerQuery) (*CustomerTable, error) {
	cat := s.Catalog()
	product, bias := cat.Filter(q.Product, q.Bias)

	list, err := s.api.MatchedCustomers(ctx, product, bias)
	if err != nil {
		return nil, fmt.Errorf("matched customers for %s/%s: %w", product, bias, err)
	}

	cols, err := cat.Columns(roles.TableCustomers, st.Role)
	if err != nil {
		return nil, err
	}

	page := table.Paginate(list, q.Page, q.Size)
	rc := roles.RowContext{Segment: product, Bias: bias}

	rows := make([][]roles.Cell, 0, len(page.Rows))
	for _, c := range page.Rows {
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode customer %s: %w", c.CustomerID, err)
		}
		rows = append(rows, renderRow(cols, gjson.ParseBytes(raw), rc))
	}

	return &CustomerTable{
		Product:  product,
		Bias:     bias,
		Segments: cat.Segments,
		Columns:  cols,
		Page:     page,
		Rows:     rows,
		All:      list,
	}, nil
}

// ----------------------------------------------------------------------------
// Recommendations
// ----------------------------------------------------------------------------

// RecommendationTable is the product recommendation table of one customer.
type RecommendationTable struct {
	CustomerID string
	Segment    string
	Columns    []roles.ColumnEntry
	Rows       [][]roles.Cell
}

// CustomerRecommendations fetches the recommendations for a customer and
// renders them with the columns the session role may see.
func (s *Service) CustomerRecommendations(ctx context.Context, st state.State, customerID string) (*RecommendationTable, error) {
	recs, err := s.api.Recommendations(sessionContext(ctx, st), customerID)
	if err != nil {
		return nil, fmt.Errorf("recommendations for %s: %w", customerID, err)
	}

	cols, err := s.Columns(roles.TableRecommendations, st.Role)
	if err != nil {
		return nil, err
	}

	rc := roles.RowContext{Segment: recs.Segment}
	rows := make([][]roles.Cell, 0, len(recs.Rows))
	for _, r := range recs.Rows {
		rows = append(rows, renderRow(cols, r, rc))
	}

	return &RecommendationTable{
		CustomerID: customerID,
		Segment:    recs.Segment,
		Columns:    cols,
		Rows:       rows,
	}, nil
}

func renderRow(cols []roles.ColumnEntry, row gjson.Result, rc roles.RowContext) []roles.Cell {
	cells := make([]roles.Cell, len(cols))
	for i, col := range cols {
		cells[i] = col.Render(row, rc)
	}
	return cells
}

// ----------------------------------------------------------------------------
// Knowledge table
// ----------------------------------------------------------------------------

// KnowledgeTable is one server-side page of the relationship manager's
// knowledge quiz table.
type KnowledgeTable struct {
	Page      table.ManualPage
	Expansion table.Expansion
	Customers []upstream.RMCustomer
}

// KnowledgeTable fetches one page of the knowledge table. expand names the
// row to show expanded, if any.
func (s *Service) KnowledgeTable(ctx context.Context, st state.State, page int, expand string) (*KnowledgeTable, error) {
	return s.knowledgeTable(sessionContext(ctx, st), st, page, expand)
}

func (s *Service) knowledgeTable(ctx context.Context, st state.State, page int, expand string) (*KnowledgeTable, error) {
	mp := table.NewManualPage(page, 0)

	res, err := s.api.RMData(ctx, mp.PageIndex, st.EnteredRole())
	if err != nil {
		return nil, fmt.Errorf("knowledge table page %d: %w", mp.PageIndex, err)
	}

	return &KnowledgeTable{
		Page:      table.NewManualPage(res.PageIndex, res.TotalPages),
		Expansion: table.Expansion{}.Toggle(expand),
		Customers: res.Customers,
	}, nil
}
