package roles

// ViewKey identifies a whole dashboard view.
type ViewKey string

const (
	ViewDefault             ViewKey = "default"
	ViewRelationshipManager ViewKey = "relationship-manager"
	ViewPortfolioAdviser    ViewKey = "portfolio-adviser"
	ViewHeadOfAdvisory      ViewKey = "head-of-advisory"
	ViewComplianceOfficer   ViewKey = "compliance-officer"
)

// Dispatch selects the view for r. The four advisory roles get their own
// scoped view; every other role, including unauthenticated and admin,
// gets the default aggregate view.
func Dispatch(r Role) ViewKey {
	switch r {
	case RoleRelationshipManager:
		return ViewRelationshipManager
	case RolePortfolioAdviser:
		return ViewPortfolioAdviser
	case RoleHeadOfAdvisory:
		return ViewHeadOfAdvisory
	case RoleComplianceOfficer:
		return ViewComplianceOfficer
	case RoleUnauthenticated, RoleDefaultAdmin:
		return ViewDefault
	default:
		return ViewDefault
	}
}

// DispatchName parses name and dispatches it.
func DispatchName(name string) ViewKey {
	return Dispatch(ParseRole(name))
}
