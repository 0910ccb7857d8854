package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

// AuthHandler handles authentication and account requests
type AuthHandler struct {
	sessionService services.SessionServicer
	tokenService   services.TokenServicer
	tokens         *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessionService services.SessionServicer, tokenService services.TokenServicer, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{sessionService: sessionService, tokenService: tokenService, tokens: tokens}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Username        string `json:"username" binding:"required,username,max=64"`
	Password        string `json:"password" binding:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"max=128"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// DeleteAccountRequest carries the username typed to confirm deletion
type DeleteAccountRequest struct {
	ConfirmUsername string `json:"confirm_username" binding:"required"`
}

// LoginResponse represents the authentication response with token
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   session.Session `json:"session"`
}

// SessionResponse wraps the current session
type SessionResponse struct {
	Message string          `json:"message,omitempty"`
	Session session.Session `json:"session"`
}

// Signup handles account creation
// @Summary     Sign up
// @Description Create an account. The new user must log in afterwards.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "Signup data"
// @Success     201 {object} MessageResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input or passwords do not match"
// @Failure     409 {object} ErrorResponse "Username already exists"
// @Router      /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.sessionService.Signup(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "Account created successfully. Please log in."})
}

// Login handles user login
// @Summary     Log in
// @Description Authenticate and receive a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} LoginResponse "Authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	sess, err := h.sessionService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, claims, err := h.tokens.Issue(sess)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Session:   sess,
	})
}

// Logout revokes the bearer token of the request
// @Summary     Log out
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SessionResponse "Anonymous session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.revokeCurrentToken(c, sess); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Message: "Logged out",
		Session: h.sessionService.Logout(sess),
	})
}

// GetSession returns the session of the request
// @Summary     Current session
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SessionResponse "Current session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess})
}

// DeleteAccount removes the caller's account and all of their data
// @Summary     Delete account
// @Description Irreversibly delete the caller's credentials, expenses and budget goals. The typed username must match the logged-in user.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DeleteAccountRequest true "Confirmation"
// @Success     200 {object} SessionResponse "Account deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Username does not match"
// @Router      /account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	sess, err := getSession(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	after, err := h.sessionService.DeleteAccount(c.Request.Context(), sess, req.ConfirmUsername)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.revokeCurrentToken(c, sess); err != nil {
		logger.Get().Warnw("token revocation after account deletion failed", "error", err)
	}

	c.JSON(http.StatusOK, SessionResponse{
		Message: "Account deleted",
		Session: after,
	})
}

func (h *AuthHandler) revokeCurrentToken(c *gin.Context, sess session.Session) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil
	}
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return h.tokenService.Revoke(c.Request.Context(), claims.ID, sess.Username, expiresAt)
}
