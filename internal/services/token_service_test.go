package services

import (
	"context"
	"testing"
	"time"

	"expensetracker/internal/testutil"
)

func TestTokenRevocation(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(testutil.SetupTestDB(t))

	revoked, err := svc.IsRevoked(ctx, "token-1")
	testutil.AssertNoError(t, err)
	if revoked {
		t.Fatal("fresh token should not be revoked")
	}

	expires := time.Now().Add(time.Hour)
	testutil.AssertNoError(t, svc.Revoke(ctx, "token-1", "alice", expires))

	revoked, err = svc.IsRevoked(ctx, "token-1")
	testutil.AssertNoError(t, err)
	if !revoked {
		t.Fatal("token should be revoked")
	}

	t.Run("revoking twice is harmless", func(t *testing.T) {
		testutil.AssertNoError(t, svc.Revoke(ctx, "token-1", "alice", expires))
	})

	t.Run("empty token id", func(t *testing.T) {
		testutil.AssertAppError(t, svc.Revoke(ctx, "", "alice", expires), "INVALID_INPUT")
	})
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(testutil.SetupTestDB(t))
	now := time.Now()

	testutil.AssertNoError(t, svc.Revoke(ctx, "old", "alice", now.Add(-time.Minute)))
	testutil.AssertNoError(t, svc.Revoke(ctx, "live", "alice", now.Add(time.Hour)))

	n, err := svc.PurgeExpired(ctx, now)
	testutil.AssertNoError(t, err)
	if n != 1 {
		t.Errorf("expected 1 purged token, got %d", n)
	}

	revoked, _ := svc.IsRevoked(ctx, "live")
	if !revoked {
		t.Error("unexpired revocation must be kept")
	}
}
