package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

// GateMode selects how a failed authorization check is answered.
type GateMode int

const (
	// GatePage redirects: anonymous to /login, everyone else to /.
	GatePage GateMode = iota
	// GateAPI answers with the JSON envelope (401/403).
	GateAPI
)

const bannedMessage = "Your account has been banned"

type requireFunc func(ctx context.Context, identityID *uuid.UUID) (*model.Profile, error)

// RequireSignedIn must run after SessionIdentity.
func RequireSignedIn(guard service.Guard, mode GateMode, logger *zap.Logger) gin.HandlerFunc {
	return gate(mode, logger, guard.RequireSignedIn)
}

// RequireAdmin must run after SessionIdentity.
func RequireAdmin(guard service.Guard, mode GateMode, logger *zap.Logger) gin.HandlerFunc {
	return gate(mode, logger, guard.RequireAdmin)
}

func gate(mode GateMode, logger *zap.Logger, require requireFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := require(c.Request.Context(), IdentityID(c))
		if err == nil {
			c.Set(ContextKeyProfile, profile)
			c.Next()
			return
		}

		if !errors.Is(err, service.ErrUnauthenticated) &&
			!errors.Is(err, service.ErrForbidden) &&
			!errors.Is(err, service.ErrBanned) {
			logger.Error("authorization check failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.InternalError(c, "internal error")
			c.Abort()
			return
		}

		if mode == GateAPI {
			switch {
			case errors.Is(err, service.ErrUnauthenticated):
				response.Unauthorized(c, err.Error())
			case errors.Is(err, service.ErrBanned):
				response.Forbidden(c, bannedMessage)
			default:
				response.Forbidden(c, err.Error())
			}
			c.Abort()
			return
		}

		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.Redirect(http.StatusFound, "/login")
		case errors.Is(err, service.ErrBanned):
			c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(bannedMessage))
		default:
			c.Redirect(http.StatusFound, "/")
		}
		c.Abort()
	}
}

// CurrentProfile returns the profile stored by a passing gate.
func CurrentProfile(c *gin.Context) *model.Profile {
	v, ok := c.Get(ContextKeyProfile)
	if !ok {
		return nil
	}
	p, _ := v.(*model.Profile)
	return p
}
