package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

const (
	msgCheckConfirmEmail = "Check your email to confirm your account"
	msgAccountCreated    = "Account created. You can now sign in"
	msgCheckResetEmail   = "Check your email for a password reset link"
	msgEmailConfirmed    = "Email confirmed. You can now sign in"
	msgPasswordUpdated   = "Password updated. You can now sign in"
	msgSomethingWrong    = "Something went wrong. Please try again"
)

type AuthHandler struct {
	idp          service.IdentityProvider
	sessionStore sessions.Store
	cookieName   string
	logger       *zap.Logger
}

func NewAuthHandler(idp service.IdentityProvider, sessionStore sessions.Store, cookieName string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{idp: idp, sessionStore: sessionStore, cookieName: cookieName, logger: logger}
}

type SignUpRequest struct {
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"-" form:"next"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userMessage returns the text shown to the user for err. Store failures
// never leak their detail.
func userMessage(err error) string {
	for _, known := range []error{
		service.ErrPasswordMismatch, service.ErrInvalidEmail, service.ErrWeakPassword,
		service.ErrSignupsDisabled, service.ErrIdentityAlreadyExists,
		service.ErrInvalidCredentials, service.ErrEmailNotConfirmed, service.ErrBanned,
		service.ErrResetTokenInvalid, service.ErrConfirmTokenInvalid, service.ErrRefreshTokenInvalid,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return msgSomethingWrong
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrConfirmTokenInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrRefreshTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSignupsDisabled),
		errors.Is(err, service.ErrEmailNotConfirmed),
		errors.Is(err, service.ErrBanned):
		return http.StatusForbidden
	case errors.Is(err, service.ErrIdentityAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	status := authStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.Error(err))
	}
	response.Error(c, status, status, userMessage(err))
}

func signUpMessage(outcome *service.SignUpOutcome) string {
	if outcome.ConfirmationRequired {
		return msgCheckConfirmEmail
	}
	return msgAccountCreated
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	outcome, err := h.idp.SignUp(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(c, "sign up", err)
		return
	}
	c.JSON(http.StatusOK, response.APIResponse{Code: 0, Message: signUpMessage(outcome), Data: outcome})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tokens, err := h.idp.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "sign in", err)
		return
	}
	response.Success(c, tokens)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tokens, err := h.idp.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, "token refresh", err)
		return
	}
	response.Success(c, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.idp.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, "sign out", err)
		return
	}
	response.Success(c, nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.idp.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.fail(c, "password reset request", err)
		return
	}
	response.Message(c, msgCheckResetEmail)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.idp.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.fail(c, "password reset", err)
		return
	}
	response.Message(c, msgPasswordUpdated)
}

// ConfirmEmail is the target of the emailed confirmation link.
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	if err := h.idp.ConfirmEmail(c.Request.Context(), c.Query("token")); err != nil {
		if authStatus(err) == http.StatusInternalServerError {
			h.logger.Error("email confirmation failed", zap.Error(err))
		}
		redirectWith(c, "/login", "error", userMessage(err))
		return
	}
	redirectWith(c, "/login", "message", msgEmailConfirmed)
}

// Form actions. Each answers with a redirect carrying ?error= or ?message=.

func (h *AuthHandler) SignUpForm(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWith(c, "/signup", "error", "Email and password are required")
		return
	}
	outcome, err := h.idp.SignUp(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if authStatus(err) == http.StatusInternalServerError {
			h.logger.Error("sign up failed", zap.Error(err))
		}
		redirectWith(c, "/signup", "error", userMessage(err))
		return
	}
	redirectWith(c, "/signup", "message", signUpMessage(outcome))
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWith(c, "/login", "error", "Email and password are required")
		return
	}
	tokens, err := h.idp.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if authStatus(err) == http.StatusInternalServerError {
			h.logger.Error("sign in failed", zap.Error(err))
		}
		redirectWith(c, "/login", "error", userMessage(err))
		return
	}
	if err := h.saveSession(c, tokens); err != nil {
		h.logger.Error("save session failed", zap.Error(err))
		redirectWith(c, "/login", "error", msgSomethingWrong)
		return
	}
	c.Redirect(http.StatusFound, safeNext(req.Next, "/"))
}

func (h *AuthHandler) ForgotPasswordForm(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWith(c, "/forgot-password", "error", "Email is required")
		return
	}
	if err := h.idp.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if authStatus(err) == http.StatusInternalServerError {
			h.logger.Error("password reset request failed", zap.Error(err))
		}
		redirectWith(c, "/forgot-password", "error", userMessage(err))
		return
	}
	redirectWith(c, "/forgot-password", "message", msgCheckResetEmail)
}

// LogoutForm revokes the session's refresh token and clears the cookie.
func (h *AuthHandler) LogoutForm(c *gin.Context) {
	session, err := h.sessionStore.Get(c.Request, h.cookieName)
	if err == nil {
		if refresh, ok := session.Values[middleware.SessionKeyRefreshToken].(string); ok && refresh != "" {
			if err := h.idp.SignOut(c.Request.Context(), refresh); err != nil && !errors.Is(err, service.ErrRefreshTokenInvalid) {
				h.logger.Warn("sign out failed", zap.Error(err))
			}
		}
		session.Options.MaxAge = -1
		if err := session.Save(c.Request, c.Writer); err != nil {
			h.logger.Warn("clear session failed", zap.Error(err))
		}
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) saveSession(c *gin.Context, tokens *service.TokenSet) error {
	// A decode error still returns a fresh session, which overwrites the bad cookie.
	session, _ := h.sessionStore.Get(c.Request, h.cookieName)
	session.Values[middleware.SessionKeyAccessToken] = tokens.AccessToken
	session.Values[middleware.SessionKeyRefreshToken] = tokens.RefreshToken
	return session.Save(c.Request, c.Writer)
}
