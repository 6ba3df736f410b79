// Package auth gates write actions behind a static two-user credential table.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

// Role is what a logged-in user is allowed to do.
type Role string

const (
	RoleTreasurer Role = "Bendahara"
	RoleMember    Role = "Anggota"
)

// Usernames of the two built-in accounts.
const (
	UserTreasurer = "bendahara"
	UserMember    = "anggota"
)

// Action names a gated operation.
type Action string

const (
	ActionAddTransaction    Action = "add_transaction"
	ActionDeleteTransaction Action = "delete_transaction"
	ActionAddMember         Action = "add_member"
	ActionDeleteMember      Action = "delete_member"
	ActionExport            Action = "export"
)

var (
	// ErrAuth matches every authentication or authorization failure.
	ErrAuth = errors.New("auth error")

	ErrBadCredentials   = fmt.Errorf("%w: invalid username or password", ErrAuth)
	ErrUnauthorized     = fmt.Errorf("%w: not permitted", ErrAuth)
	ErrNotAuthenticated = fmt.Errorf("%w: login required", ErrUnauthorized)
)

// Account is one row of the credential table.
type Account struct {
	Password string
	Role     Role
}

// Credentials maps usernames to accounts.
type Credentials map[string]Account

// DefaultUsers builds the standard table: bendahara is the Treasurer and
// anggota is a read-only Member.
func DefaultUsers(treasurerPassword, memberPassword string) Credentials {
	return Credentials{
		UserTreasurer: {Password: treasurerPassword, Role: RoleTreasurer},
		UserMember:    {Password: memberPassword, Role: RoleMember},
	}
}

// Gate validates logins against a fixed credential table.
type Gate struct {
	creds Credentials
}

// NewGate returns a gate over a copy of creds.
func NewGate(creds Credentials) *Gate {
	c := make(Credentials, len(creds))
	for user, acct := range creds {
		c[user] = acct
	}
	return &Gate{creds: c}
}

// Login checks username and password and updates sess. On failure the
// session is left logged out.
func (g *Gate) Login(sess *Session, username, password string) error {
	sess.Logout()

	acct, ok := g.creds[username]
	if !ok || acct.Password == "" {
		return ErrBadCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(acct.Password)) != 1 {
		return ErrBadCredentials
	}

	sess.username = username
	sess.role = acct.Role
	sess.authenticated = true
	return nil
}

// Configured reports whether username has a non-empty password.
func (g *Gate) Configured(username string) bool {
	acct, ok := g.creds[username]
	return ok && acct.Password != ""
}

// Usernames returns the known usernames, Treasurer first.
func (g *Gate) Usernames() []string {
	var out []string
	for _, u := range []string{UserTreasurer, UserMember} {
		if _, ok := g.creds[u]; ok {
			out = append(out, u)
		}
	}
	for u := range g.creds {
		if u != UserTreasurer && u != UserMember {
			out = append(out, u)
		}
	}
	return out
}
