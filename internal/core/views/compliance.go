package views

import (
	"github.com/JonMunkholm/roledash/internal/core"
	"github.com/JonMunkholm/roledash/internal/roles"
)

func init() {
	registerComplianceOfficer()
}

func registerComplianceOfficer() {
	core.RegisterView(core.ViewDefinition{
		Info: core.ViewInfo{
			Key:   roles.ViewComplianceOfficer,
			Title: "Compliance Officer Dashboard",
			Role:  roles.NameComplianceOfficer,
			Order: 4,
		},
		Cards: []core.Card{
			{Title: "Client Using Stop-Loss", Path: "kpis.stop_loss_usage_rate.value"},
			{Title: "Compliance Summary", Path: "compliance_summary.overall_compliance_score"},
			{Title: "Mean Rules Failed", Path: "kpis.mean_rules_failed.value"},
			{Title: "Avg. Max Drawdown", Path: "kpis.avg_max_drawdown.value"},
			{Title: "Avg. Leverage Ratio", Path: "kpis.avg_leverage_ratio.value"},
		},
		Charts: []core.ChartSpec{
			{Title: "Overall Compliance", Kind: core.ChartGauge, Path: "compliance_summary.overall_compliance_score"},
			{Title: "RKA Distribution", Kind: core.ChartPie, Path: "charts.rka_distribution.data"},
			{Title: "Compliance Alert Summary", Kind: core.ChartBar, Path: "charts.compliance_alerts.data"},
			{Title: "Risk Profile Distribution", Kind: core.ChartHorizontalBar, Path: "charts.risk_profile_distribution.data"},
		},
		RolePayload: true,
	})
}
