package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnlukeG/creator-cto-webkit/internal/config"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
	"github.com/johnlukeG/creator-cto-webkit/pkg/crypto"
	jwtpkg "github.com/johnlukeG/creator-cto-webkit/pkg/jwt"
)

const (
	refreshKeyPrefix = "refresh:"
	resetKeyPrefix   = "reset:"
	confirmKeyPrefix = "confirm:"
)

// TokenSet represents a set of tokens returned after authentication.
type TokenSet struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
}

// SignUpOutcome tells the caller whether the new account must confirm its
// email before signing in.
type SignUpOutcome struct {
	UserID               uuid.UUID `json:"user_id"`
	ConfirmationRequired bool      `json:"confirmation_required"`
}

// IdentityProvider owns credentials and sessions. It creates the profile
// row together with the identity.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, confirmPassword string) (*SignUpOutcome, error)
	SignIn(ctx context.Context, email, password string) (*TokenSet, error)
	// Refresh rotates a refresh token. The presented token is consumed.
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	SignOut(ctx context.Context, refreshToken string) error
	// RequestPasswordReset emails a reset link. Unknown addresses succeed
	// silently.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ConfirmEmail(ctx context.Context, token string) error
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
}

type identityProvider struct {
	identityRepo repository.IdentityRepository
	profileRepo  repository.ProfileRepository
	settings     SettingsService
	stateStore   repository.StateStore
	jwtManager   *jwtpkg.Manager
	mailer       Mailer
	cache        *ViewCache
	site         config.SiteConfig
	logger       *zap.Logger
	now          func() time.Time

	// verifyPassword compares a password with a stored hash.
	verifyPassword func(password, hash string) bool
}

func NewIdentityProvider(
	identityRepo repository.IdentityRepository,
	profileRepo repository.ProfileRepository,
	settings SettingsService,
	stateStore repository.StateStore,
	jwtManager *jwtpkg.Manager,
	mailer Mailer,
	cache *ViewCache,
	site config.SiteConfig,
	logger *zap.Logger,
) IdentityProvider {
	return &identityProvider{
		identityRepo: identityRepo,
		profileRepo:  profileRepo,
		settings:     settings,
		stateStore:   stateStore,
		jwtManager:   jwtManager,
		mailer:       mailer,
		cache:        cache,
		site:         site,
		logger:       logger,
		now:          time.Now,

		verifyPassword: crypto.CheckPassword,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (p *identityProvider) checkPassword(password string) error {
	if len([]rune(password)) < p.site.MinPasswordChars {
		return fmt.Errorf("%w: at least %d characters", ErrWeakPassword, p.site.MinPasswordChars)
	}
	return nil
}

func (p *identityProvider) SignUp(ctx context.Context, email, password, confirmPassword string) (*SignUpOutcome, error) {
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := p.checkPassword(password); err != nil {
		return nil, err
	}

	site := p.settings.Snapshot(ctx)
	if !site.AllowSignups {
		return nil, ErrSignupsDisabled
	}

	if _, err := p.identityRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrIdentityAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	identity := &model.Identity{Email: email, PasswordHash: hash}
	if !site.RequireEmailVerification {
		now := p.now()
		identity.EmailConfirmedAt = &now
	}
	if err := p.identityRepo.CreateWithProfile(ctx, identity, &model.Profile{Email: email}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrIdentityAlreadyExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	p.cache.Invalidate(ctx, ViewUsers, ViewStats, ViewSignups)
	p.logger.Info("identity created", zap.String("user_id", identity.ID.String()))

	outcome := &SignUpOutcome{UserID: identity.ID, ConfirmationRequired: site.RequireEmailVerification}
	if outcome.ConfirmationRequired {
		if err := p.sendConfirmation(ctx, identity); err != nil {
			p.logger.Error("send confirmation email failed",
				zap.String("user_id", identity.ID.String()), zap.Error(err))
		}
	}
	return outcome, nil
}

func (p *identityProvider) sendConfirmation(ctx context.Context, identity *model.Identity) error {
	token, err := p.issueEmailToken(ctx, confirmKeyPrefix, identity.ID, p.site.ConfirmTokenTTL)
	if err != nil {
		return err
	}
	link := p.site.SiteURL("/api/v1/auth/confirm", url.Values{"token": {token}})
	body := "Confirm your email address by opening the link below:\n\n" + link +
		"\n\nIf you did not create an account, you can ignore this message.\n"
	return p.mailer.Send(ctx, identity.Email, "Confirm your email", body)
}

// issueEmailToken stores the token digest for ttl and returns the raw token
// for the link.
func (p *identityProvider) issueEmailToken(ctx context.Context, prefix string, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := crypto.GenerateEmailToken()
	if err != nil {
		return "", err
	}
	if err := p.stateStore.Set(ctx, prefix+crypto.TokenDigest(token), []byte(userID.String()), ttl); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// redeemEmailToken consumes a token issued by issueEmailToken.
func (p *identityProvider) redeemEmailToken(ctx context.Context, prefix, token string, invalid error) (uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, invalid
	}
	raw, err := p.stateStore.Take(ctx, prefix+crypto.TokenDigest(token))
	if err != nil {
		return uuid.Nil, fmt.Errorf("redeem token: %w", err)
	}
	if raw == nil {
		return uuid.Nil, invalid
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return uuid.Nil, invalid
	}
	return id, nil
}

func (p *identityProvider) SignIn(ctx context.Context, email, password string) (*TokenSet, error) {
	identity, err := p.identityRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Spend the same bcrypt work so timing does not reveal registered emails.
		p.verifyPassword(password, crypto.DummyPasswordHash())
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if !p.verifyPassword(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := p.checkNotBanned(ctx, identity.ID); err != nil {
		return nil, err
	}
	if !identity.EmailConfirmed() && p.settings.Snapshot(ctx).RequireEmailVerification {
		return nil, ErrEmailNotConfirmed
	}

	if err := p.identityRepo.RecordSignIn(ctx, identity.ID, p.now()); err != nil {
		p.logger.Warn("record sign-in failed", zap.String("user_id", identity.ID.String()), zap.Error(err))
	}
	return p.issueTokens(ctx, identity.ID)
}

func (p *identityProvider) checkNotBanned(ctx context.Context, userID uuid.UUID) error {
	profile, err := p.profileRepo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile.IsBanned {
		return ErrBanned
	}
	return nil
}

func refreshKey(userID uuid.UUID, jti string) string {
	return refreshKeyPrefix + userID.String() + ":" + jti
}

func (p *identityProvider) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenSet, error) {
	access, err := p.jwtManager.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, claims, err := p.jwtManager.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := p.stateStore.Set(ctx, refreshKey(userID, claims.ID), []byte("1"), p.jwtManager.RefreshTokenTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenSet{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

func (p *identityProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	claims, err := p.jwtManager.ValidateType(refreshToken, jwtpkg.TokenTypeRefresh)
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	live, err := p.stateStore.Take(ctx, refreshKey(userID, claims.ID))
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if live == nil {
		return nil, ErrRefreshTokenInvalid
	}
	if err := p.checkNotBanned(ctx, userID); err != nil {
		return nil, err
	}
	return p.issueTokens(ctx, userID)
}

func (p *identityProvider) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := p.jwtManager.ValidateType(refreshToken, jwtpkg.TokenTypeRefresh)
	if err != nil {
		return ErrRefreshTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrRefreshTokenInvalid
	}
	return p.stateStore.Delete(ctx, refreshKey(userID, claims.ID))
}

func (p *identityProvider) RevokeSessions(ctx context.Context, userID uuid.UUID) error {
	return p.stateStore.DeletePrefix(ctx, refreshKeyPrefix+userID.String()+":")
}

func (p *identityProvider) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	identity, err := p.identityRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.logger.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}

	token, err := p.issueEmailToken(ctx, resetKeyPrefix, identity.ID, p.site.ResetTokenTTL)
	if err != nil {
		return err
	}
	link := p.site.SiteURL("/auth/callback", url.Values{
		"next":  {"/reset-password"},
		"token": {token},
	})
	body := "We received a request to reset your password. Open the link below to choose a new one:\n\n" +
		link + "\n\nIf you did not request this, you can ignore this message.\n"
	if err := p.mailer.Send(ctx, identity.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (p *identityProvider) ResetPassword(ctx context.Context, token, password string) error {
	if err := p.checkPassword(password); err != nil {
		return err
	}
	userID, err := p.redeemEmailToken(ctx, resetKeyPrefix, token, ErrResetTokenInvalid)
	if err != nil {
		return err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.identityRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("update password: %w", err)
	}

	// The reset link proves ownership of the address.
	if identity, err := p.identityRepo.GetByID(ctx, userID); err == nil && !identity.EmailConfirmed() {
		if err := p.identityRepo.ConfirmEmail(ctx, userID, p.now()); err != nil {
			p.logger.Warn("confirm email after reset failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	if err := p.RevokeSessions(ctx, userID); err != nil {
		p.logger.Warn("revoke sessions after reset failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

func (p *identityProvider) ConfirmEmail(ctx context.Context, token string) error {
	userID, err := p.redeemEmailToken(ctx, confirmKeyPrefix, token, ErrConfirmTokenInvalid)
	if err != nil {
		return err
	}
	if err := p.identityRepo.ConfirmEmail(ctx, userID, p.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConfirmTokenInvalid
		}
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

var _ IdentityProvider = (*identityProvider)(nil)
