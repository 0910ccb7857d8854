package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/session"
	"expensetracker/internal/validator"
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "")
	validator.Register()
}

func injectSession(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetSession(c, session.Authenticated(username))
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doAuthedRequest(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func TestParsePathID(t *testing.T) {
	tests := []struct {
		raw    string
		wantOK bool
	}{
		{"1", true},
		{"4294967295", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
		{"4294967296", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}
			_, err := parsePathID(c, "id")
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestParseDateQuery(t *testing.T) {
	t.Run("absent returns nil", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		d, err := parseDateQuery(c, "from")
		if err != nil || d != nil {
			t.Fatalf("expected nil date and no error, got %v, %v", d, err)
		}
	})

	t.Run("parses ISO date", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?from=2024-02-29", nil)
		d, err := parseDateQuery(c, "from")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.String() != "2024-02-29" {
			t.Errorf("expected 2024-02-29, got %s", d)
		}
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?to=29/02/2024", nil)
		_, err := parseDateQuery(c, "to")
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("expected INVALID_INPUT, got %v", err)
		}
	})
}

func TestRespondWithError_UnknownErrorIsInternal(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { respondWithError(c, errTest) })

	rec := doRequest(r, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	if strings.Contains(rec.Body.String(), errTest.Error()) {
		t.Error("internal error text leaked into the response")
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("sqlite: database is locked")
