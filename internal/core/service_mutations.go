package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/upstream"
)

// ErrInvalidCredentials is returned by Login when the analytics service
// rejects the email and password. It does not wrap the upstream 401, so
// callers never mistake it for a rejected session.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Login authenticates against the analytics service and returns the state
// of the freshly logged-in session.
func (s *Service) Login(ctx context.Context, st state.State, email, password string) (state.State, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		if upstream.IsAuthFailure(err) {
			return st, fmt.Errorf("login %s: %w", email, ErrInvalidCredentials)
		}
		return st, fmt.Errorf("login %s: %w", email, err)
	}

	if res.User.Email != "" {
		email = res.User.Email
	}
	next := state.Reduce(st, state.Login{Email: email, Role: res.User.Role})
	next = state.Reduce(next, state.SetCookies{Cookies: state.StoreCookies(res.Cookies)})

	entry := NewAuditEntry(ctx, ActionLogin)
	entry.Email = next.Email
	entry.Role = next.Role
	recordAudit(ctx, s.audit, entry)

	return next, nil
}

// Logout ends the upstream session. Auth failures mean the session is
// already gone and are not reported.
func (s *Service) Logout(ctx context.Context, st state.State) (state.State, error) {
	err := s.api.Logout(sessionContext(ctx, st))
	if err != nil && !upstream.IsAuthFailure(err) {
		logging.FromContext(ctx).Warn("upstream logout failed", "error", err)
	}

	entry := NewAuditEntry(ctx, ActionLogout)
	entry.Email = st.Email
	entry.Role = st.Role
	recordAudit(ctx, s.audit, entry)

	return state.Reduce(st, state.Logout{}), nil
}

// SwitchRole lets an admin view the dashboard as role. Names outside the
// closed role set fall back to the admin role. Non-admin sessions are
// returned unchanged.
func (s *Service) SwitchRole(ctx context.Context, st state.State, role string) state.State {
	if !st.AdminLoggedIn {
		return st
	}
	name := roles.ParseRole(role).String()
	if name == "" {
		name = roles.NameAdmin
	}
	next := state.Reduce(st, state.SetRole{Role: name})

	entry := NewAuditEntry(ctx, ActionRoleSwitch)
	entry.Email = st.Email
	entry.Role = name
	recordAudit(ctx, s.audit, entry)

	return next
}

// CheckSession asks the analytics service whether the session is still
// valid.
func (s *Service) CheckSession(ctx context.Context, st state.State) error {
	if !st.Authenticated() {
		return state.ErrSessionNotFound
	}
	return s.api.AuthCheck(sessionContext(ctx, st))
}
