package service

import "errors"

var (
	ErrUnauthenticated       = errors.New("not signed in")
	ErrForbidden             = errors.New("admin access required")
	ErrBanned                = errors.New("account is banned")
	ErrSelfModification      = errors.New("cannot change your own admin or ban status")
	ErrUserNotFound          = errors.New("user not found")
	ErrSettingNotFound       = errors.New("setting not found")
	ErrInvalidSettingValue   = errors.New("invalid setting value")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrWeakPassword          = errors.New("password is too short")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrSignupsDisabled       = errors.New("signups are currently disabled")
	ErrEmailNotConfirmed     = errors.New("email address not confirmed")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	ErrResetTokenInvalid     = errors.New("reset link is invalid or has expired")
	ErrConfirmTokenInvalid   = errors.New("confirmation link is invalid or has expired")
	ErrRefreshTokenInvalid   = errors.New("refresh token invalid or revoked")
	ErrInvalidAvatarURL      = errors.New("avatar url must be an http or https URL")
)
