package services

import (
	"context"
	"sync"
	"testing"

	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/notify"
	"expensetracker/internal/session"
	"expensetracker/internal/testutil"
)

func init() {
	logger.Init("test", "")
}

// testStack wires the services over an isolated credential database and a
// temporary ledger directory.
type testStack struct {
	credentials CredentialServicer
	sessions    SessionServicer
	registry    *ledger.Registry
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := testutil.SetupTestDB(t)
	reg := testutil.SetupTestRegistry(t)
	creds := NewCredentialService(db)
	return &testStack{
		credentials: creds,
		sessions:    NewSessionService(creds, reg),
		registry:    reg,
	}
}

// signedIn creates an account for username and returns its session.
func (s *testStack) signedIn(t *testing.T, username string) session.Session {
	t.Helper()
	ctx := context.Background()
	testutil.AssertNoError(t, s.sessions.Signup(ctx, username, testutil.TestPassword, testutil.TestPassword))
	sess, err := s.sessions.Login(ctx, username, testutil.TestPassword)
	testutil.AssertNoError(t, err)
	return sess
}

// recordingPublisher keeps every published alert.
type recordingPublisher struct {
	mu     sync.Mutex
	alerts []notify.Alert
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, alert notify.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, alert)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []notify.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Alert(nil), p.alerts...)
}
