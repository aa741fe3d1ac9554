package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
)

type accountEnvelope struct {
	Code int             `json:"code"`
	Data service.Account `json:"data"`
}

func TestAccountHandler_GetUsesGateProfile(t *testing.T) {
	svc := new(MockAccountService)
	id := uuid.New()
	profile := &model.Profile{
		ID:        id,
		Email:     "ada@example.com",
		IsAdmin:   true,
		CreatedAt: time.Date(2026, 3, 9, 12, 0, 0, 0, time.Local),
	}

	r := gin.New()
	r.Use(asCaller(&id), func(c *gin.Context) {
		c.Set(middleware.ContextKeyProfile, profile)
		c.Next()
	})
	r.GET("/api/v1/account", NewAccountHandler(svc, zap.NewNop()).Get)

	w := do(r, http.MethodGet, "/api/v1/account", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body accountEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.True(t, body.Data.IsAdmin)
	assert.Equal(t, "2026-03-09", body.Data.MemberSince)
	svc.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
}

func TestAccountHandler_GetWithoutGateResolvesCaller(t *testing.T) {
	svc := new(MockAccountService)
	id := uuid.New()
	svc.On("GetAccount", mock.Anything, &id).Return(nil, service.ErrBanned)

	r := gin.New()
	r.Use(asCaller(&id))
	r.GET("/api/v1/account", NewAccountHandler(svc, zap.NewNop()).Get)

	w := do(r, http.MethodGet, "/api/v1/account", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}
