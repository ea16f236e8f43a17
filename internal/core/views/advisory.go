package views

import (
	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/roles"
)

func init() {
	registerRelationshipManager()
	registerPortfolioAdviser()
	registerHeadOfAdvisory()
}

func registerRelationshipManager() {
	core.RegisterView(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   roles.ViewRelationshipManager,
			Title: "Relationship Manager Dashboard",
			Role:  roles.NameRelationshipManager,
			Order: 1,
		},
		Cards: []core.Card{
			{Title: "Clients in Book", Path: "kpis.clients_in_book.value"},
			{Title: "Clients with Active Biases", Path: "kpis.clients_with_bias.value"},
			{Title: "Avg. Login Gap", Path: "kpis.avg_login_gap.value"},
		},
		Charts: []core.ChartSpec{
			{Title: "Book Average", Kind: core.ChartDonut, Path: "charts.portfolio_mix.data"},
		},
		RolePayload:    true,
		KnowledgeTable: true,
	})
}

func registerPortfolioAdviser() {
	core.RegisterView(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   roles.ViewPortfolioAdviser,
			Title: "Portfolio Adviser Dashboard",
			Role:  roles.NamePortfolioAdviser,
			Order: 2,
		},
		Cards: []core.Card{
			{Title: "Mean Active Biases", Path: "kpis.mean_active_biases.value"},
			{Title: "Clients Trading Complex Products", Path: "kpis.clients_trading_complex.value"},
		},
		Charts: []core.ChartSpec{
			{Title: "Clients by Segment", Kind: core.ChartBar, Path: "kpis.clients_in_segment.value"},
			{Title: "Bias Prevalence", Kind: core.ChartHeatMap, Path: "charts.bias_prevalence.data", Scale: 100},
		},
		RolePayload: true,
	})
}

func registerHeadOfAdvisory() {
	core.RegisterView(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   roles.ViewHeadOfAdvisory,
			Title: "Head of Advisory Dashboard",
			Role:  roles.NameHeadOfAdvisory,
			Order: 3,
		},
		Cards: []core.Card{
			{Title: "Total Active Clients", Path: "kpis.clients_with_bias.value"},
			{Title: "Average Account Tenure", Path: "kpis.avg_account_tenure.value"},
			{Title: "Average Risk Tolerance Score", Path: "kpis.avg_risk_tolerance.value"},
			{Title: "Clients with Active Biases", Path: "kpis.clients_with_bias.value"},
			{Title: "Average Bias Severity", Path: "kpis.avg_bias_severity.value"},
		},
		Charts: []core.ChartSpec{
			{Title: "Clients by Segment", Kind: core.ChartBar, Path: "charts.clients_by_segment.data"},
			{Title: "Top-5 Countries by Client Count", Kind: core.ChartHorizontalBar, Path: "charts.top_countries.data"},
			{Title: "Knowledge Quiz Score Distribution", Kind: core.ChartBar, Path: "charts.knowledge_quiz_distribution.data", SortNumeric: true},
		},
		RolePayload: true,
	})
}
