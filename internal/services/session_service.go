package services

import (
	"context"
	"strings"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/session"
)

// sessionService implements the session state machine over the credential
// store and the ledger registry.
type sessionService struct {
	credentials CredentialServicer
	registry    LedgerRegistry
}

// NewSessionService creates a new SessionServicer.
func NewSessionService(credentials CredentialServicer, registry LedgerRegistry) SessionServicer {
	return &sessionService{credentials: credentials, registry: registry}
}

// Login returns a session bound to the verified account.
func (s *sessionService) Login(ctx context.Context, username, password string) (session.Session, error) {
	username = strings.TrimSpace(username)
	ok, err := s.credentials.Verify(ctx, username, password)
	if err != nil {
		return session.Anonymous(), err
	}
	if !ok {
		return session.Anonymous(), apperrors.ErrInvalidCredentials
	}

	account, err := s.credentials.Lookup(ctx, username)
	if err != nil {
		return session.Anonymous(), err
	}
	if account == nil {
		return session.Anonymous(), apperrors.ErrInvalidCredentials
	}
	return session.ForAccount(account.ID, account.Username), nil
}

// Signup creates an account. It never logs the new user in.
func (s *sessionService) Signup(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return apperrors.ErrPasswordMismatch
	}
	if err := s.credentials.CreateAccount(ctx, username, password); err != nil {
		return err
	}
	logger.Named("session").Infow("account created", "username", username)
	return nil
}

// Logout returns the anonymous session.
func (s *sessionService) Logout(session.Session) session.Session {
	return session.Anonymous()
}

// DeleteAccount removes the ledger and then the credential row of the
// session's user. The confirmation must name the session's own user. The
// username stays taken until the ledger is gone, so a failed deletion never
// hands the old ledger to a new account.
func (s *sessionService) DeleteAccount(ctx context.Context, sess session.Session, confirmUsername string) (session.Session, error) {
	if err := sess.Require(); err != nil {
		return sess, err
	}
	if confirmUsername != sess.Username {
		return sess, apperrors.WithMessage(apperrors.ErrForbidden, "only your own account can be deleted")
	}

	if err := s.checkAccount(ctx, sess); err != nil {
		return sess, err
	}

	if err := s.registry.Destroy(sess.Username); err != nil {
		return sess, err
	}
	if err := s.credentials.DeleteAccount(ctx, sess.Username); err != nil {
		return sess, err
	}

	logger.Named("session").Infow("account deleted", "username", sess.Username)
	return session.Anonymous(), nil
}

// Ledger resolves the ledger of an authenticated session, creating it on
// first access. Sessions of deleted accounts are rejected so a ledger is
// never recreated for them.
func (s *sessionService) Ledger(ctx context.Context, sess session.Session) (*ledger.Ledger, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := s.checkAccount(ctx, sess); err != nil {
		return nil, err
	}
	return s.registry.GetOrCreate(ctx, sess.Username)
}

// checkAccount rejects sessions whose account no longer exists, including
// sessions of a deleted account whose username has since been taken again.
func (s *sessionService) checkAccount(ctx context.Context, sess session.Session) error {
	account, err := s.credentials.Lookup(ctx, sess.Username)
	if err != nil {
		return err
	}
	if account == nil || account.ID != sess.AccountID {
		return apperrors.ErrUnauthorized
	}
	return nil
}
