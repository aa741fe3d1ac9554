package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

type AccountHandler struct {
	accounts service.AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type UpdateProfileRequest struct {
	FullName  string `json:"full_name" binding:"max=256"`
	AvatarURL string `json:"avatar_url" binding:"max=2048"`
}

// Get serves both the account page data and the JSON API; the route's gate
// decides how anonymous callers are answered and has already loaded the
// caller's profile.
func (h *AccountHandler) Get(c *gin.Context) {
	if profile := middleware.CurrentProfile(c); profile != nil {
		response.Success(c, service.AccountOf(profile))
		return
	}
	account, err := h.accounts.GetAccount(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	account, err := h.accounts.UpdateProfile(c.Request.Context(), callerID(c), service.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

func (h *AccountHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrBanned):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidAvatarURL):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("account request failed", zap.Error(err))
		response.InternalError(c, "account request failed")
	}
}
