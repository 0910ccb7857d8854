package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/ledger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

// --- mock services ---

type mockSessionService struct {
	loginFn         func(ctx context.Context, username, password string) (session.Session, error)
	signupFn        func(ctx context.Context, username, password, confirm string) error
	deleteAccountFn func(ctx context.Context, s session.Session, confirmUsername string) (session.Session, error)
}

func (m *mockSessionService) Login(ctx context.Context, username, password string) (session.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return session.ForAccount(1, username), nil
}

func (m *mockSessionService) Signup(ctx context.Context, username, password, confirm string) error {
	if m.signupFn != nil {
		return m.signupFn(ctx, username, password, confirm)
	}
	return nil
}

func (m *mockSessionService) Logout(_ session.Session) session.Session {
	return session.Anonymous()
}

func (m *mockSessionService) DeleteAccount(ctx context.Context, s session.Session, confirmUsername string) (session.Session, error) {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, s, confirmUsername)
	}
	return session.Anonymous(), nil
}

func (m *mockSessionService) Ledger(_ context.Context, _ session.Session) (*ledger.Ledger, error) {
	return nil, apperrors.ErrLedgerNotFound
}

type mockTokenService struct {
	revoked   map[string]time.Time
	revokeErr error
}

func newMockTokenService() *mockTokenService {
	return &mockTokenService{revoked: map[string]time.Time{}}
}

func (m *mockTokenService) Revoke(_ context.Context, tokenID, _ string, expiresAt time.Time) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *mockTokenService) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func (m *mockTokenService) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

var (
	_ services.SessionServicer = (*mockSessionService)(nil)
	_ services.TokenServicer   = (*mockTokenService)(nil)
)

// --- test helpers ---

func setupAuthRouter(handler *AuthHandler, tokens *middleware.TokenManager) *gin.Engine {
	r := gin.New()
	r.POST("/auth/signup", handler.Signup)
	r.POST("/auth/login", handler.Login)
	protected := r.Group("", tokens.AuthMiddleware())
	protected.POST("/auth/logout", handler.Logout)
	protected.GET("/session", handler.GetSession)
	protected.DELETE("/account", handler.DeleteAccount)
	return r
}

func newAuthFixture(sessions *mockSessionService) (*gin.Engine, *middleware.TokenManager, *mockTokenService) {
	tokenSvc := newMockTokenService()
	tokens := middleware.NewTokenManager("test-secret", time.Hour, tokenSvc)
	return setupAuthRouter(NewAuthHandler(sessions, tokenSvc, tokens), tokens), tokens, tokenSvc
}

// --- tests ---

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got [3]string
		sessions := &mockSessionService{
			signupFn: func(_ context.Context, username, password, confirm string) error {
				got = [3]string{username, password, confirm}
				return nil
			},
		}
		r, _, _ := newAuthFixture(sessions)

		rec := doRequest(r, "POST", "/auth/signup",
			`{"username":"alice","password":"s3cret","confirm_password":"s3cret"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got != [3]string{"alice", "s3cret", "s3cret"} {
			t.Errorf("unexpected signup arguments: %v", got)
		}
		if parseJSON(t, rec)["token"] != nil {
			t.Error("signup must not log the user in")
		}
	})

	t.Run("returns 400 on missing username", func(t *testing.T) {
		r, _, _ := newAuthFixture(&mockSessionService{})

		rec := doRequest(r, "POST", "/auth/signup", `{"password":"s3cret","confirm_password":"s3cret"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on padded username", func(t *testing.T) {
		r, _, _ := newAuthFixture(&mockSessionService{})

		rec := doRequest(r, "POST", "/auth/signup", `{"username":" alice ","password":"x","confirm_password":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on password mismatch", func(t *testing.T) {
		sessions := &mockSessionService{
			signupFn: func(_ context.Context, _, _, _ string) error {
				return apperrors.ErrPasswordMismatch
			},
		}
		r, _, _ := newAuthFixture(sessions)

		rec := doRequest(r, "POST", "/auth/signup", `{"username":"alice","password":"a","confirm_password":"b"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PASSWORD_MISMATCH")
	})

	t.Run("returns 409 on duplicate username", func(t *testing.T) {
		sessions := &mockSessionService{
			signupFn: func(_ context.Context, _, _, _ string) error {
				return apperrors.ErrDuplicateUsername
			},
		}
		r, _, _ := newAuthFixture(sessions)

		rec := doRequest(r, "POST", "/auth/signup", `{"username":"alice","password":"x","confirm_password":"x"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns token and session", func(t *testing.T) {
		r, tokens, _ := newAuthFixture(&mockSessionService{})

		rec := doRequest(r, "POST", "/auth/login", `{"username":"alice","password":"s3cret"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		if token == "" {
			t.Fatal("expected non-empty token")
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			t.Fatalf("issued token does not parse: %v", err)
		}
		if claims.Username != "alice" {
			t.Errorf("expected username alice in token, got %q", claims.Username)
		}
		sess := result["session"].(map[string]interface{})
		if sess["authenticated"] != true || sess["username"] != "alice" {
			t.Errorf("unexpected session: %v", sess)
		}
		if result["expires_at"] == nil {
			t.Error("expected expires_at")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		sessions := &mockSessionService{
			loginFn: func(_ context.Context, _, _ string) (session.Session, error) {
				return session.Anonymous(), apperrors.ErrInvalidCredentials
			},
		}
		r, _, _ := newAuthFixture(sessions)

		rec := doRequest(r, "POST", "/auth/login", `{"username":"alice","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on empty body", func(t *testing.T) {
		r, _, _ := newAuthFixture(&mockSessionService{})

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_SessionAndLogout(t *testing.T) {
	r, tokens, tokenSvc := newAuthFixture(&mockSessionService{})
	token, claims, err := tokens.Issue(session.ForAccount(1, "alice"))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := doAuthedRequest(r, "GET", "/session", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sess := parseJSON(t, rec)["session"].(map[string]interface{})
	if sess["username"] != "alice" {
		t.Errorf("expected alice, got %v", sess["username"])
	}

	rec = doAuthedRequest(r, "POST", "/auth/logout", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	after := parseJSON(t, rec)["session"].(map[string]interface{})
	if after["authenticated"] != false {
		t.Errorf("expected anonymous session after logout, got %v", after)
	}
	if _, ok := tokenSvc.revoked[claims.ID]; !ok {
		t.Error("expected token to be revoked")
	}

	rec = doAuthedRequest(r, "GET", "/session", "", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestAuthHandler_LogoutRevocationFailure(t *testing.T) {
	r, tokens, tokenSvc := newAuthFixture(&mockSessionService{})
	tokenSvc.revokeErr = apperrors.Wrap(apperrors.ErrStorageUnavailable, fmt.Errorf("db down"))
	token, _, _ := tokens.Issue(session.ForAccount(1, "alice"))

	rec := doAuthedRequest(r, "POST", "/auth/logout", "", token)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "STORAGE_UNAVAILABLE")
}

func TestAuthHandler_DeleteAccount(t *testing.T) {
	t.Run("deletes own account and revokes token", func(t *testing.T) {
		var gotSession session.Session
		var gotConfirm string
		sessions := &mockSessionService{
			deleteAccountFn: func(_ context.Context, s session.Session, confirm string) (session.Session, error) {
				gotSession, gotConfirm = s, confirm
				return session.Anonymous(), nil
			},
		}
		r, tokens, tokenSvc := newAuthFixture(sessions)
		token, claims, _ := tokens.Issue(session.ForAccount(1, "alice"))

		rec := doAuthedRequest(r, "DELETE", "/account", `{"confirm_username":"alice"}`, token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSession.Username != "alice" || gotConfirm != "alice" {
			t.Errorf("unexpected delete arguments: %v %q", gotSession, gotConfirm)
		}
		if _, ok := tokenSvc.revoked[claims.ID]; !ok {
			t.Error("expected token to be revoked")
		}
	})

	t.Run("returns 403 when confirmation does not match", func(t *testing.T) {
		sessions := &mockSessionService{
			deleteAccountFn: func(_ context.Context, s session.Session, _ string) (session.Session, error) {
				return s, apperrors.ErrForbidden
			},
		}
		r, tokens, tokenSvc := newAuthFixture(sessions)
		token, _, _ := tokens.Issue(session.ForAccount(1, "alice"))

		rec := doAuthedRequest(r, "DELETE", "/account", `{"confirm_username":"bob"}`, token)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
		if len(tokenSvc.revoked) != 0 {
			t.Error("token must stay valid when deletion is refused")
		}
	})

	t.Run("returns 401 without token", func(t *testing.T) {
		r, _, _ := newAuthFixture(&mockSessionService{})

		rec := doRequest(r, "DELETE", "/account", `{"confirm_username":"alice"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
