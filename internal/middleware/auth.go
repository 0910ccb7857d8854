package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/session"
)

const (
	issuer = "expensetracker-api"

	sessionKey = "session"
	claimsKey  = "claims"
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	Username  string `json:"username"`
	AccountID uint   `json:"account_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies bearer tokens for sessions.
type TokenManager struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationChecker
}

// NewTokenManager creates a TokenManager signing with secret. Tokens live
// for ttl; revocations may be nil to skip the revocation check.
func NewTokenManager(secret string, ttl time.Duration, revocations RevocationChecker) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, revocations: revocations}
}

// Issue generates a token carrying the session's username and account id.
func (m *TokenManager) Issue(s session.Session) (string, *JWTClaims, error) {
	if err := s.Require(); err != nil {
		return "", nil, err
	}
	if s.AccountID == 0 {
		return "", nil, fmt.Errorf("session for %q is not bound to an account", s.Username)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("generate token id: %w", err)
	}

	now := time.Now()
	claims := &JWTClaims{
		Username:  s.Username,
		AccountID: s.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   s.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates tokenString and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Username == "" || claims.AccountID == 0 || claims.ID == "" {
		return nil, fmt.Errorf("token is missing required claims")
	}
	return claims, nil
}

// AuthMiddleware verifies the bearer token and stores the authenticated
// session in the context
func (m *TokenManager) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := m.Parse(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		if m.revocations != nil {
			revoked, err := m.revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Get().Errorw("revocation check failed", "error", err)
				abortWithError(c, apperrors.ErrStorageUnavailable, apperrors.ErrStorageUnavailable.Message)
				return
			}
			if revoked {
				abortUnauthorized(c, "Invalid or expired token")
				return
			}
		}

		c.Set(sessionKey, session.ForAccount(claims.AccountID, claims.Username))
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// SessionFromContext returns the session stored by AuthMiddleware, or the
// anonymous session when there is none.
func SessionFromContext(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Anonymous()
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(c *gin.Context) (*JWTClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*JWTClaims)
	return claims, ok
}

// SetSession stores s in the context. Handler tests use it in place of a
// real token.
func SetSession(c *gin.Context, s session.Session) {
	c.Set(sessionKey, s)
}

func abortUnauthorized(c *gin.Context, message string) {
	abortWithError(c, apperrors.ErrUnauthorized, message)
}

func abortWithError(c *gin.Context, sentinel *apperrors.AppError, message string) {
	c.AbortWithStatusJSON(sentinel.StatusCode, gin.H{
		"error": gin.H{"code": sentinel.Code, "message": message},
	})
}
