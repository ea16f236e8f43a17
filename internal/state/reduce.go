package state

import "github.com/JonMunkholm/roledash/internal/upstream"

// Action is one state transition. The set of actions is closed.
type Action interface {
	apply(State) State
}

// Login records a successful upstream login.
type Login struct {
	Email string
	Role  string
}

// SetRole switches the role an admin views the dashboard as.
type SetRole struct {
	Role string
}

// SetCustomers replaces the matched-customer list of the default view.
type SetCustomers struct {
	Customers []upstream.Customer
}

// SetCookies replaces the upstream session cookies.
type SetCookies struct {
	Cookies []StoredCookie
}

// Logout clears the session.
type Logout struct{}

// Reduce returns the state that results from applying a to s.
// It never mutates s, and a nil action returns s unchanged.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (a Login) apply(s State) State {
	return State{
		Role:            a.Role,
		AdminLoggedIn:   a.Role == AdminRole,
		Email:           a.Email,
		UpstreamCookies: s.UpstreamCookies,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Only an admin may switch roles; for anyone else SetRole is a no-op.
func (a SetRole) apply(s State) State {
	if !s.AdminLoggedIn {
		return s
	}
	s.Role = a.Role
	s.Customers = nil
	return s
}

func (a SetCustomers) apply(s State) State {
	s.Customers = append([]upstream.Customer(nil), a.Customers...)
	return s
}

func (a SetCookies) apply(s State) State {
	s.UpstreamCookies = append([]StoredCookie(nil), a.Cookies...)
	return s
}

func (Logout) apply(s State) State {
	return State{UpdatedAt: s.UpdatedAt}
}
