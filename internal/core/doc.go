// Package core provides the business logic of the role-based dashboard.
//
// This package sits between the HTTP layer and the analytics API. It
// decides which view a session renders, fetches and shapes the data behind
// it, and exports the view payload. It can be used by web handlers, the
// CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - View Definitions: Registered via the registry, each view lists its
//     KPI cards and charts as gjson paths into the role payload.
//   - Service: The main entry point for all operations (views, tables,
//     export, login).
//   - Audit: Logins, role switches and exports are recorded to an
//     [AuditSink].
//
// # View Registry
//
// Views are registered at init time using [RegisterView], usually from the
// views subpackage:
//
//	core.RegisterView(ViewDefinition{
//	    Info: ViewInfo{Key: roles.ViewComplianceOfficer, Title: "Compliance Officer Dashboard"},
//	    Cards: []Card{
//	        {Title: "Mean Rules Failed", Path: "kpis.mean_rules_failed.value"},
//	    },
//	    Charts: []ChartSpec{
//	        {Title: "Overall Compliance", Kind: ChartGauge, Path: "compliance_summary.overall_compliance_score"},
//	    },
//	    RolePayload: true,
//	})
//
// [ViewFor] maps a session role to its definition through roles.Dispatch.
// Every role outside the four advisory roles gets the default view.
//
// # Loading a View
//
// [Service.LoadView] fetches everything a view needs concurrently. Role
// views fail as a whole. The default view loads its customer table, top
// insights and customer flow as independent sections, so one failing
// section does not hide the others. Upstream 401 and 403 responses always
// fail the load so the caller can send the user back to the login page.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - AUTH001-AUTH003: Session and credential errors
//   - API001-API005: Analytics service errors (status, timeouts, network)
//   - PAY001: Payload errors
//   - EXP001-EXP003: Export errors (format, PDF, render capacity)
//
// # Maintenance
//
// [StartSessionSweeper] periodically purges idle sessions from the session
// store.
package core
