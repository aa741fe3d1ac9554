package handler

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockAdminService is a mock implementation of service.AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) SetAdminStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, makeAdmin bool) model.Result {
	return m.Called(ctx, callerID, targetID, makeAdmin).Get(0).(model.Result)
}

func (m *MockAdminService) SetBanStatus(ctx context.Context, callerID *uuid.UUID, targetID uuid.UUID, banned bool, reason *string) model.Result {
	return m.Called(ctx, callerID, targetID, banned, reason).Get(0).(model.Result)
}

func (m *MockAdminService) UpdateSetting(ctx context.Context, callerID *uuid.UUID, key string, value json.RawMessage) model.Result {
	return m.Called(ctx, callerID, key, value).Get(0).(model.Result)
}

func (m *MockAdminService) UpdateMultipleSettings(ctx context.Context, callerID *uuid.UUID, updates []service.SettingUpdate) model.Result {
	return m.Called(ctx, callerID, updates).Get(0).(model.Result)
}

func (m *MockAdminService) ListUsers(ctx context.Context, callerID *uuid.UUID) ([]model.Profile, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockAdminService) Dashboard(ctx context.Context, callerID *uuid.UUID) (*service.Dashboard, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}

func (m *MockAdminService) SettingsSections(ctx context.Context, callerID *uuid.UUID) ([]service.SettingsSection, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SettingsSection), args.Error(1)
}

// MockIdentityProvider is a mock implementation of service.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password, confirmPassword string) (*service.SignUpOutcome, error) {
	args := m.Called(ctx, email, password, confirmPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignUpOutcome), args.Error(1)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*service.TokenSet, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenSet), args.Error(1)
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*service.TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenSet), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockIdentityProvider) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockIdentityProvider) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func (m *MockIdentityProvider) ConfirmEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockIdentityProvider) RevokeSessions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockAccountService is a mock implementation of service.AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, callerID *uuid.UUID) (*service.Account, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, callerID *uuid.UUID, update service.ProfileUpdate) (*service.Account, error) {
	args := m.Called(ctx, callerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

// asCaller stands in for SessionIdentity.
func asCaller(id *uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != nil {
			c.Set(middleware.ContextKeyIdentityID, *id)
		}
		c.Next()
	}
}
