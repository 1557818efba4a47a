// Account HTTP handlers.
//
// This file exposes REST endpoints for signup, login, and the member's
// own account:
//   - POST   /auth/verify-code   (issue signup email code)
//   - POST   /auth/signup        (register with code)
//   - POST   /auth/login         (issue session token)
//   - POST   /auth/signout       (deactivate account)
//   - GET    /members/me         (own profile)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/services"
)

// VerifyCodeRequest is the JSON payload for requesting a signup code.
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyCodeResponse echoes the issued code. Without an SMTP relay the
// code comes back in the response body; a mail sender would replace
// this with a delivery acknowledgement.
type VerifyCodeResponse struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// IssueVerifyCode handles POST /auth/verify-code.
func (h *Handlers) IssueVerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "valid email required")
		return
	}
	code, err := h.authSvc.IssueVerifyCode(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue code")
		return
	}
	ok(c, http.StatusOK, VerifyCodeResponse{
		Email: strings.TrimSpace(strings.ToLower(req.Email)),
		Code:  code,
	})
}

// Signup handles POST /auth/signup.
func (h *Handlers) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.authSvc.Signup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVerifyCodeMismatch):
			fail(c, http.StatusBadRequest, ErrCodeVerifyCode, "verification code mismatch")
		case errors.Is(err, services.ErrDuplicateUsername):
			fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
		case errors.Is(err, services.ErrDuplicateEmail):
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		case errors.Is(err, services.ErrInvalidCredentials):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email, and password required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "signup failed")
		}
		return
	}
	ok(c, http.StatusCreated, m)
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}
	sess, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "login failed")
		return
	}
	ok(c, http.StatusOK, sess)
}

// Signout handles POST /auth/signout (authenticated). The account is
// deactivated; the session token stays cryptographically valid until
// expiry but authenticated operations reject inactive accounts.
func (h *Handlers) Signout(c *gin.Context) {
	if err := h.authSvc.Deactivate(c.Request.Context(), memberID(c)); err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "member not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "signout failed")
		return
	}
	noContent(c)
}

// Me handles GET /members/me (authenticated).
func (h *Handlers) Me(c *gin.Context) {
	m, err := h.authSvc.Profile(c.Request.Context(), memberID(c))
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "member not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "profile load failed")
		return
	}
	ok(c, http.StatusOK, m)
}
