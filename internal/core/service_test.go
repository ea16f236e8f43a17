package core_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/roledash/internal/core"
	_ "github.com/JonMunkholm/roledash/internal/core/views"
	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

const compliancePayload = `{
	"kpis": {
		"stop_loss_usage_rate": {"value": "42%"},
		"mean_rules_failed": {"value": 1.5}
	},
	"compliance_summary": {"overall_compliance_score": 87},
	"charts": {
		"rka_distribution": {"data": [{"label": "Pass", "value": 10}, {"label": "Fail", "value": 2}]}
	}
}`

type fakeUpstream struct {
	mu sync.Mutex

	dashboard    []byte
	dashboardErr error
	rmPage       *upstream.RMPage
	rmErr        error
	customers    []upstream.Customer
	customersErr error
	recs         *upstream.Recommendations
	insights     *roles.Insights
	insightsErr  error
	sankey       []upstream.SankeyRow
	sankeyErr    error
	perms        roles.Permissions
	login        *upstream.LoginResult
	loginErr     error

	enteredRoles []string
	cookies      []*http.Cookie
	filters      [][2]string
	loggedOut    bool
}

func (f *fakeUpstream) seen(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = upstream.CookiesFromContext(ctx)
}

func (f *fakeUpstream) DashboardData(ctx context.Context, enteredRole string) ([]byte, error) {
	f.seen(ctx)
	f.mu.Lock()
	f.enteredRoles = append(f.enteredRoles, enteredRole)
	f.mu.Unlock()
	return f.dashboard, f.dashboardErr
}

func (f *fakeUpstream) RMData(ctx context.Context, pageIndex int, _ string) (*upstream.RMPage, error) {
	if f.rmErr != nil {
		return nil, f.rmErr
	}
	p := *f.rmPage
	p.PageIndex = pageIndex
	return &p, nil
}

func (f *fakeUpstream) MatchedCustomers(_ context.Context, product, bias string) ([]upstream.Customer, error) {
	f.mu.Lock()
	f.filters = append(f.filters, [2]string{product, bias})
	f.mu.Unlock()
	return f.customers, f.customersErr
}

func (f *fakeUpstream) Recommendations(context.Context, string) (*upstream.Recommendations, error) {
	return f.recs, nil
}

func (f *fakeUpstream) TopInsights(context.Context) (*roles.Insights, error) {
	return f.insights, f.insightsErr
}

func (f *fakeUpstream) SankeyData(context.Context) ([]upstream.SankeyRow, error) {
	return f.sankey, f.sankeyErr
}

func (f *fakeUpstream) Roles(context.Context) (roles.Permissions, error) {
	return f.perms, nil
}

func (f *fakeUpstream) Login(context.Context, string, string) (*upstream.LoginResult, error) {
	return f.login, f.loginErr
}

func (f *fakeUpstream) AuthCheck(context.Context) error { return nil }

func (f *fakeUpstream) Logout(context.Context) error {
	f.loggedOut = true
	return nil
}

type memorySink struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func (m *memorySink) Record(_ context.Context, e core.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func newService(t *testing.T, api *fakeUpstream, sink core.AuditSink) *core.Service {
	t.Helper()
	svc, err := core.NewService(core.ServiceConfig{API: api, Audit: sink})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresAPI(t *testing.T) {
	_, err := core.NewService(core.ServiceConfig{})
	require.Error(t, err)
}

func TestLoadView_RoleView(t *testing.T) {
	api := &fakeUpstream{dashboard: []byte(compliancePayload)}
	svc := newService(t, api, nil)

	st := state.State{Role: roles.NameComplianceOfficer}
	data, err := svc.LoadView(context.Background(), st, core.ViewQuery{})
	require.NoError(t, err)

	assert.Equal(t, roles.ViewComplianceOfficer, data.Def.Info.Key)
	require.Len(t, data.Cards, 5)
	assert.Equal(t, "42%", data.Cards[0].Value)
	assert.Equal(t, "87", data.Cards[1].Value)
	assert.Equal(t, "1.5", data.Cards[2].Value)
	assert.Equal(t, core.MissingValue, data.Cards[3].Value, "missing KPI renders a dash")

	// Gauge and pie are present; the two bar charts have no data.
	assert.Len(t, data.Charts, 2)
	assert.Equal(t, []string{""}, api.enteredRoles, "non-admin sessions send no entered_role")
}

func TestLoadView_AdminImpersonationSendsEnteredRole(t *testing.T) {
	api := &fakeUpstream{dashboard: []byte(`{}`)}
	svc := newService(t, api, nil)

	st := state.Reduce(state.State{}, state.Login{Email: "a@x.io", Role: roles.NameAdmin})
	st = state.Reduce(st, state.SetRole{Role: roles.NamePortfolioAdviser})

	data, err := svc.LoadView(context.Background(), st, core.ViewQuery{})
	require.NoError(t, err)
	assert.Equal(t, roles.ViewPortfolioAdviser, data.Def.Info.Key)
	assert.Equal(t, []string{roles.NamePortfolioAdviser}, api.enteredRoles)
	for _, c := range data.Cards {
		assert.Equal(t, core.MissingValue, c.Value)
	}
}

func TestLoadView_UnknownRoleGetsDefaultView(t *testing.T) {
	api := &fakeUpstream{}
	svc := newService(t, api, nil)

	data, err := svc.LoadView(context.Background(), state.State{Role: "Nonexistent Role"}, core.ViewQuery{})
	require.NoError(t, err)
	assert.Equal(t, roles.ViewDefault, data.Def.Info.Key)
	assert.Nil(t, data.Customers, "only admins see matched customers")
	require.NotNil(t, data.Insights)
	assert.Equal(t, svc.Catalog().Insights.TopProducts, data.Insights.TopProducts)
	assert.Empty(t, api.filters)
}

func TestLoadView_DefaultViewSectionsFailIndependently(t *testing.T) {
	api := &fakeUpstream{
		customers: []upstream.Customer{
			{CustomerID: "C1", MatchScore: 0.9},
			{CustomerID: "C2", MatchScore: 0.4},
		},
		insightsErr: &upstream.StatusError{Code: http.StatusBadGateway},
		sankey: []upstream.SankeyRow{
			{Segment: "Retail", Risk: "High", Bias: "Herding", Product: "Liquid Fund", Count: 3},
		},
	}
	svc := newService(t, api, nil)

	st := state.Reduce(state.State{}, state.Login{Role: roles.NameAdmin})
	data, err := svc.LoadView(context.Background(), st, core.ViewQuery{Product: "Nifty50 Index Fund", Bias: "Anchoring"})
	require.NoError(t, err)

	require.NotNil(t, data.Customers)
	assert.Equal(t, "Nifty50 Index Fund", data.Customers.Product)
	assert.Equal(t, "Anchoring", data.Customers.Bias)
	assert.Len(t, data.Customers.Rows, 2)
	assert.Equal(t, "customer_id", data.Customers.Columns[0].ID, "identity column first")

	require.Error(t, data.InsightsErr)
	assert.Nil(t, data.Insights)
	assert.NoError(t, data.FlowsErr)
	assert.Len(t, data.Charts, 1, "only the sankey chart has data")
}

func TestLoadView_AuthFailureAbortsLoad(t *testing.T) {
	api := &fakeUpstream{sankeyErr: &upstream.StatusError{Code: http.StatusUnauthorized}}
	svc := newService(t, api, nil)

	_, err := svc.LoadView(context.Background(), state.State{Role: roles.NameAdmin}, core.ViewQuery{})
	require.Error(t, err)
	assert.True(t, upstream.IsAuthFailure(err))
}

func TestLoadView_RolePayloadErrors(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		api := &fakeUpstream{dashboardErr: &upstream.StatusError{Code: http.StatusInternalServerError}}
		svc := newService(t, api, nil)

		_, err := svc.LoadView(context.Background(), state.State{Role: roles.NameHeadOfAdvisory}, core.ViewQuery{})
		require.Error(t, err)
		assert.Equal(t, "API001", core.MapError(err).Code)
	})

	t.Run("payload not an object", func(t *testing.T) {
		api := &fakeUpstream{dashboard: []byte(`[1,2]`)}
		svc := newService(t, api, nil)

		_, err := svc.LoadView(context.Background(), state.State{Role: roles.NameHeadOfAdvisory}, core.ViewQuery{})
		require.Error(t, err)
		assert.Equal(t, "PAY001", core.MapError(err).Code)
	})
}

func TestLoadView_KnowledgeTable(t *testing.T) {
	api := &fakeUpstream{
		dashboard: []byte(`{}`),
		rmPage: &upstream.RMPage{
			TotalPages: 3,
			Customers:  []upstream.RMCustomer{{CustomerID: "C9"}},
		},
	}
	svc := newService(t, api, nil)

	data, err := svc.LoadView(context.Background(), state.State{Role: roles.NameRelationshipManager}, core.ViewQuery{RMPage: 3, Expand: "C9"})
	require.NoError(t, err)
	require.NotNil(t, data.Knowledge)
	assert.Equal(t, 3, data.Knowledge.Page.PageIndex)
	assert.False(t, data.Knowledge.Page.CanNext())
	assert.True(t, data.Knowledge.Page.CanPrevious())
	assert.True(t, data.Knowledge.Expansion.IsExpanded("C9"))
}

func TestCustomerRecommendations_ResolvesColumns(t *testing.T) {
	api := &fakeUpstream{recs: &upstream.Recommendations{
		Segment: "Retail",
		Rows: []gjson.Result{
			gjson.Parse(`{"product_name":"Liquid Fund","product_id":"P1","match_score":0.85,"risk_level":"Low","knowledge_min":40,"matched_biases":["Herding"],"reason":"fit"}`),
		},
	}}
	svc := newService(t, api, nil)

	tbl, err := svc.CustomerRecommendations(context.Background(), state.State{Role: roles.NameComplianceOfficer}, "C1")
	require.NoError(t, err)

	assert.Equal(t, []string{"product_name", "risk_level", "knowledge_min"}, roles.ColumnIDs(tbl.Columns))
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Liquid Fund", tbl.Rows[0][0].Text)
	assert.Equal(t, "P1", tbl.Rows[0][0].Sub)
	assert.Equal(t, roles.ToneGood, tbl.Rows[0][1].Tone)
	assert.Equal(t, "Medium", tbl.Rows[0][2].Sub)
}

func TestSyncPermissions(t *testing.T) {
	api := &fakeUpstream{perms: roles.Permissions{roles.NameRelationshipManager: {"reason"}}}
	svc := newService(t, api, nil)

	require.NoError(t, svc.SyncPermissions(context.Background()))

	cols, err := svc.Columns(roles.TableRecommendations, roles.NameRelationshipManager)
	require.NoError(t, err)
	assert.Equal(t, []string{"product_name", "reason"}, roles.ColumnIDs(cols))

	// Roles missing from the synced map fail open.
	cols, err = svc.Columns(roles.TableRecommendations, roles.NameComplianceOfficer)
	require.NoError(t, err)
	assert.Len(t, cols, 6)
}

func TestExport(t *testing.T) {
	api := &fakeUpstream{dashboard: []byte(`{"kpis":{"total":{"value":3}},"name":"x, y"}`)}
	sink := &memorySink{}
	svc := newService(t, api, sink)

	st := state.State{Role: roles.NameHeadOfAdvisory, Email: "h@x.io"}

	doc, err := svc.Export(context.Background(), st, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "dashboard_data.csv", doc.Filename)
	assert.Equal(t, "kpis.total.value,name\n3,\"x, y\"", string(doc.Body))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, core.ActionExport, sink.entries[0].Action)
	assert.Equal(t, "csv", sink.entries[0].Format)
	assert.Equal(t, 2, sink.entries[0].Fields)

	_, err = svc.Export(context.Background(), st, export.FormatPDF)
	require.ErrorIs(t, err, export.ErrPDFUnavailable)
	assert.Len(t, sink.entries, 1, "failed exports are not audited")
}

func TestExportRows(t *testing.T) {
	api := &fakeUpstream{dashboard: []byte(`{"a":{"b":1},"c":null}`)}
	svc := newService(t, api, nil)

	rows, err := svc.ExportRows(context.Background(), state.State{Role: roles.NameAdmin})
	require.NoError(t, err)
	assert.Equal(t, []export.Row{{Field: "a.b", Value: "1"}, {Field: "c", Value: "null"}}, rows)
}

func TestLoginLogout(t *testing.T) {
	api := &fakeUpstream{login: &upstream.LoginResult{
		User:    upstream.User{Email: "admin@x.io", Role: roles.NameAdmin},
		Cookies: []*http.Cookie{{Name: "session", Value: "abc"}},
	}}
	sink := &memorySink{}
	svc := newService(t, api, sink)

	st, err := svc.Login(context.Background(), state.State{}, "admin@x.io", "pw")
	require.NoError(t, err)
	assert.True(t, st.AdminLoggedIn)
	require.Len(t, st.UpstreamCookies, 1)

	st = svc.SwitchRole(context.Background(), st, "Compliance Officer")
	assert.Equal(t, roles.NameComplianceOfficer, st.Role)

	// Cookies from the session are forwarded upstream.
	api.dashboard = []byte(`{}`)
	_, err = svc.ExportRows(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, api.cookies, 1)
	assert.Equal(t, "abc", api.cookies[0].Value)

	st, err = svc.Logout(context.Background(), st)
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
	assert.True(t, api.loggedOut)

	var actions []core.AuditAction
	for _, e := range sink.entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []core.AuditAction{core.ActionLogin, core.ActionRoleSwitch, core.ActionLogout}, actions)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	api := &fakeUpstream{loginErr: &upstream.StatusError{Code: http.StatusUnauthorized}}
	svc := newService(t, api, nil)

	_, err := svc.Login(context.Background(), state.State{}, "x@x.io", "bad")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.False(t, upstream.IsAuthFailure(err), "a failed login is not a rejected session")
	assert.Equal(t, "AUTH003", core.MapError(err).Code)
}

func TestSwitchRole_NonAdminIgnored(t *testing.T) {
	svc := newService(t, &fakeUpstream{}, nil)
	st := state.State{Role: roles.NamePortfolioAdviser}

	got := svc.SwitchRole(context.Background(), st, roles.NameComplianceOfficer)
	assert.Equal(t, st, got)
}
