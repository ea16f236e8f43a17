// Package state holds the per-session dashboard state and the pure reducer
// that evolves it.
//
// Handlers never mutate a State directly. They load it from a Store, apply
// one Action with Reduce, and put the result back.
package state

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// AdminRole is the upstream role name that may view the dashboard as any
// other role.
const AdminRole = roles.NameAdmin

// StoredCookie is the persisted form of an upstream session cookie.
type StoredCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

// State is everything the dashboard remembers about one browser session.
type State struct {
	Role            string              `json:"role"`
	AdminLoggedIn   bool                `json:"admin_logged_in"`
	Email           string              `json:"email,omitempty"`
	Customers       []upstream.Customer `json:"customers,omitempty"`
	UpstreamCookies []StoredCookie      `json:"upstream_cookies,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Authenticated reports whether a user has logged in.
func (s State) Authenticated() bool {
	return s.Role != ""
}

// ViewRole is the role the dashboard renders for.
func (s State) ViewRole() roles.Role {
	return roles.ParseRole(s.Role)
}

// EnteredRole is the role an admin is viewing as, sent upstream as
// entered_role. It is empty for non-admin sessions.
func (s State) EnteredRole() string {
	if !s.AdminLoggedIn {
		return ""
	}
	return s.Role
}

// Cookies converts the stored upstream cookies for forwarding.
func (s State) Cookies() []*http.Cookie {
	if len(s.UpstreamCookies) == 0 {
		return nil
	}
	out := make([]*http.Cookie, 0, len(s.UpstreamCookies))
	for _, c := range s.UpstreamCookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}

// StoreCookies converts upstream response cookies for persistence.
func StoreCookies(cookies []*http.Cookie) []StoredCookie {
	out := make([]StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		out = append(out, StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}
	return out
}
