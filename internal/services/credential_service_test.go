package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"expensetracker/internal/models"
	"expensetracker/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCredentialService(db)

		testutil.AssertNoError(t, svc.CreateAccount(ctx, "alice", "password123"))

		var account models.UserAccount
		if err := db.Where("username = ?", "alice").First(&account).Error; err != nil {
			t.Fatalf("expected stored account: %v", err)
		}
		if account.PasswordHash == "" || account.PasswordHash == "password123" {
			t.Errorf("expected a password hash, got %q", account.PasswordHash)
		}
	})

	t.Run("hashes are salted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCredentialService(db)

		testutil.AssertNoError(t, svc.CreateAccount(ctx, "alice", "same-password"))
		testutil.AssertNoError(t, svc.CreateAccount(ctx, "bob", "same-password"))

		var accounts []models.UserAccount
		db.Order("id").Find(&accounts)
		if len(accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(accounts))
		}
		if accounts[0].PasswordHash == accounts[1].PasswordHash {
			t.Error("expected different hashes for the same password")
		}
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCredentialService(db)

		testutil.AssertNoError(t, svc.CreateAccount(ctx, "dup", "first-password"))
		err := svc.CreateAccount(ctx, "dup", "second-password")
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")

		ok, err := svc.Verify(ctx, "dup", "first-password")
		testutil.AssertNoError(t, err)
		if !ok {
			t.Error("first password should still verify")
		}
		ok, _ = svc.Verify(ctx, "dup", "second-password")
		if ok {
			t.Error("duplicate signup must not overwrite the hash")
		}
	})

	t.Run("duplicate inserted after the existence check", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewCredentialService(db)

		// A competing signup lands between the existence check and the insert.
		err := db.Callback().Create().Before("gorm:create").Register("test:competing_signup", func(tx *gorm.DB) {
			tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
				"racer", "x")
		})
		if err != nil {
			t.Fatalf("register callback: %v", err)
		}

		testutil.AssertAppError(t, svc.CreateAccount(ctx, "racer", "password123"), "DUPLICATE_USERNAME")
	})

	t.Run("empty_username", func(t *testing.T) {
		svc := NewCredentialService(testutil.SetupTestDB(t))
		testutil.AssertAppError(t, svc.CreateAccount(ctx, "  ", "password123"), "INVALID_INPUT")
	})

	t.Run("empty_password", func(t *testing.T) {
		svc := NewCredentialService(testutil.SetupTestDB(t))
		testutil.AssertAppError(t, svc.CreateAccount(ctx, "alice", ""), "INVALID_INPUT")
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewCredentialService(db)
	testutil.CreateTestUserWithUsername(t, db, "alice")

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"correct password", "alice", testutil.TestPassword, true},
		{"wrong password", "alice", "wrong", false},
		{"unknown user", "mallory", testutil.TestPassword, false},
		{"empty password", "alice", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Verify(ctx, tt.username, tt.password)
			testutil.AssertNoError(t, err)
			if got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestCredentialDeleteAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewCredentialService(db)
	testutil.CreateTestUserWithUsername(t, db, "alice")

	testutil.AssertNoError(t, svc.DeleteAccount(ctx, "alice"))

	ok, err := svc.Verify(ctx, "alice", testutil.TestPassword)
	testutil.AssertNoError(t, err)
	if ok {
		t.Error("deleted account should not verify")
	}
	exists, err := svc.Exists(ctx, "alice")
	testutil.AssertNoError(t, err)
	if exists {
		t.Error("deleted account should not exist")
	}

	t.Run("idempotent", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteAccount(ctx, "alice"))
	})
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewCredentialService(db)
	alice := testutil.CreateTestUserWithUsername(t, db, "alice")

	account, err := svc.Lookup(ctx, "alice")
	testutil.AssertNoError(t, err)
	if account == nil || account.ID != alice.ID {
		t.Fatalf("expected account %d, got %+v", alice.ID, account)
	}

	missing, err := svc.Lookup(ctx, "mallory")
	testutil.AssertNoError(t, err)
	if missing != nil {
		t.Errorf("expected no account, got %+v", missing)
	}
}

func TestDeletedAccountIDIsNotReused(t *testing.T) {
	ctx := context.Background()
	svc := NewCredentialService(testutil.SetupTestDB(t))

	testutil.AssertNoError(t, svc.CreateAccount(ctx, "alice", "password123"))
	first, _ := svc.Lookup(ctx, "alice")
	testutil.AssertNoError(t, svc.DeleteAccount(ctx, "alice"))
	testutil.AssertNoError(t, svc.CreateAccount(ctx, "alice", "password123"))
	second, _ := svc.Lookup(ctx, "alice")

	if first == nil || second == nil {
		t.Fatal("expected both accounts to be found")
	}
	if first.ID == second.ID {
		t.Errorf("recreated account reused id %d", first.ID)
	}
}
