// Package session holds the explicit session context passed to every core
// operation. A Session is a value: transitions return a new Session rather
// than mutating shared state.
package session

import (
	apperrors "expensetracker/internal/errors"
)

// Session is the authenticated identity of the current interaction.
// AccountID pins the session to one credential row, so a session outlives
// neither the deletion of its account nor the reuse of its username.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	AccountID     uint   `json:"-"`
}

// Anonymous returns the initial, unauthenticated session.
func Anonymous() Session {
	return Session{}
}

// Authenticated returns a session for username that is not yet bound to a
// credential row.
func Authenticated(username string) Session {
	return Session{Authenticated: true, Username: username}
}

// ForAccount returns a session bound to the credential row accountID.
func ForAccount(accountID uint, username string) Session {
	return Session{Authenticated: true, Username: username, AccountID: accountID}
}

// Require returns ErrUnauthorized unless the session is authenticated with a
// non-empty username.
func (s Session) Require() error {
	if !s.Authenticated || s.Username == "" {
		return apperrors.ErrUnauthorized
	}
	return nil
}
