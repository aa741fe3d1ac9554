package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

type SetAdminRequest struct {
	MakeAdmin *bool `json:"make_admin" binding:"required"`
}

type SetBanRequest struct {
	Banned *bool   `json:"banned" binding:"required"`
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

type UpdateSettingRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

type UpdateSettingsRequest struct {
	Settings []service.SettingUpdate `json:"settings" binding:"required,min=1,dive"`
}

type UserListPage struct {
	Users  []model.Profile    `json:"users"`
	Total  int                `json:"total"`
	Query  string             `json:"query"`
	Filter service.UserFilter `json:"filter"`
}

// Dashboard serves GET /admin.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.admin.Dashboard(c.Request.Context(), callerID(c))
	if err != nil {
		h.readFailed(c, err)
		return
	}
	response.Success(c, dashboard)
}

// Users serves GET /admin/users?q=&filter=.
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), callerID(c))
	if err != nil {
		h.readFailed(c, err)
		return
	}
	query := c.Query("q")
	filter := service.ParseUserFilter(c.Query("filter"))
	response.Success(c, UserListPage{
		Users:  service.FilterUsers(users, query, filter),
		Total:  len(users),
		Query:  query,
		Filter: filter,
	})
}

// Settings serves GET /admin/settings.
func (h *AdminHandler) Settings(c *gin.Context) {
	sections, err := h.admin.SettingsSections(c.Request.Context(), callerID(c))
	if err != nil {
		h.readFailed(c, err)
		return
	}
	response.Success(c, gin.H{"sections": sections})
}

func (h *AdminHandler) SetAdminStatus(c *gin.Context) {
	target, ok := h.targetID(c)
	if !ok {
		return
	}
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.admin.SetAdminStatus(c.Request.Context(), callerID(c), target, *req.MakeAdmin))
}

func (h *AdminHandler) SetBanStatus(c *gin.Context) {
	target, ok := h.targetID(c)
	if !ok {
		return
	}
	var req SetBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.admin.SetBanStatus(c.Request.Context(), callerID(c), target, *req.Banned, req.Reason))
}

func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.admin.UpdateSetting(c.Request.Context(), callerID(c), c.Param("key"), req.Value))
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.admin.UpdateMultipleSettings(c.Request.Context(), callerID(c), req.Settings))
}

func (h *AdminHandler) targetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid user id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) readFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		h.logger.Error("admin read failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, "failed to load admin data")
	}
}
