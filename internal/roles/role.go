// Package roles models dashboard roles, the column permissions attached to
// them, and the choice of dashboard view per role.
package roles

// Role is the closed set of roles the dashboard distinguishes.
// Any string that is not one of the named advisory roles parses to
// RoleDefaultAdmin, except the empty string which is RoleUnauthenticated.
type Role int

const (
	RoleUnauthenticated Role = iota
	RoleRelationshipManager
	RolePortfolioAdviser
	RoleHeadOfAdvisory
	RoleComplianceOfficer
	RoleDefaultAdmin
)

// Canonical role names as issued by the upstream API.
const (
	NameRelationshipManager = "Relationship Manager"
	NamePortfolioAdviser    = "Portfolio Adviser"
	NameHeadOfAdvisory      = "Head of Advisory"
	NameComplianceOfficer   = "Compliance Officer"
	NameAdmin               = "Admin"
)

// ParseRole maps a role name to a Role. It never fails.
func ParseRole(name string) Role {
	switch name {
	case "":
		return RoleUnauthenticated
	case NameRelationshipManager:
		return RoleRelationshipManager
	case NamePortfolioAdviser:
		return RolePortfolioAdviser
	case NameHeadOfAdvisory:
		return RoleHeadOfAdvisory
	case NameComplianceOfficer:
		return RoleComplianceOfficer
	default:
		return RoleDefaultAdmin
	}
}

// String returns the canonical name of r.
func (r Role) String() string {
	switch r {
	case RoleUnauthenticated:
		return ""
	case RoleRelationshipManager:
		return NameRelationshipManager
	case RolePortfolioAdviser:
		return NamePortfolioAdviser
	case RoleHeadOfAdvisory:
		return NameHeadOfAdvisory
	case RoleComplianceOfficer:
		return NameComplianceOfficer
	default:
		return NameAdmin
	}
}

// Scoped reports whether r has a dedicated, role-scoped dashboard.
func (r Role) Scoped() bool {
	switch r {
	case RoleRelationshipManager, RolePortfolioAdviser, RoleHeadOfAdvisory, RoleComplianceOfficer:
		return true
	default:
		return false
	}
}

// ScopedRoles lists the roles with dedicated dashboards, in menu order.
func ScopedRoles() []Role {
	return []Role{
		RoleRelationshipManager,
		RolePortfolioAdviser,
		RoleHeadOfAdvisory,
		RoleComplianceOfficer,
	}
}
