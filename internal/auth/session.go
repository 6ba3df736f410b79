package auth

import "fmt"

// Session is the login state of one user interaction: a CLI run, a TUI
// program, or a single HTTP request. The zero value is logged out.
type Session struct {
	username      string
	role          Role
	authenticated bool
}

// Authenticated reports whether the session has logged in.
func (s *Session) Authenticated() bool { return s != nil && s.authenticated }

// Role returns the session role, or "" when logged out.
func (s *Session) Role() Role {
	if !s.Authenticated() {
		return ""
	}
	return s.role
}

// Username returns the logged-in username, or "".
func (s *Session) Username() string {
	if !s.Authenticated() {
		return ""
	}
	return s.username
}

// Logout clears the role and the authenticated flag.
func (s *Session) Logout() {
	s.username = ""
	s.role = ""
	s.authenticated = false
}

// CanWrite reports whether the session may perform write actions.
func (s *Session) CanWrite() bool {
	return s.Role() == RoleTreasurer
}

// Require returns nil if the session may perform action. Only the
// Treasurer may perform gated actions.
func (s *Session) Require(action Action) error {
	if !s.Authenticated() {
		return fmt.Errorf("%s: %w", action, ErrNotAuthenticated)
	}
	if s.role != RoleTreasurer {
		return fmt.Errorf("%s as %s: %w", action, s.role, ErrUnauthorized)
	}
	return nil
}
