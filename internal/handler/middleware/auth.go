package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	jwtpkg "github.com/johnlukeG/creator-cto-webkit/pkg/jwt"
)

const (
	ContextKeyIdentityID = "identity_id"
	ContextKeyProfile    = "profile"

	SessionKeyAccessToken  = "access_token"
	SessionKeyRefreshToken = "refresh_token"
)

// SessionRefresher rotates a refresh token into a new token set.
type SessionRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*service.TokenSet, error)
}

// SessionIdentity resolves the caller's identity id from a Bearer access
// token or, failing that, from the browser cookie session. An expired
// cookie access token is renewed with the session's refresh token. It never
// aborts: requests without valid credentials continue as anonymous.
func SessionIdentity(jwtManager *jwtpkg.Manager, store sessions.Store, cookieName string, refresher SessionRefresher) gin.HandlerFunc {
	accessSubject := func(token string) (uuid.UUID, bool) {
		claims, err := jwtManager.ValidateType(token, jwtpkg.TokenTypeAccess)
		if err != nil {
			return uuid.Nil, false
		}
		id, err := claims.UserID()
		return id, err == nil
	}

	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if id, ok := accessSubject(token); ok {
				c.Set(ContextKeyIdentityID, id)
			}
			c.Next()
			return
		}

		if store != nil {
			if session, err := store.Get(c.Request, cookieName); err == nil {
				access, _ := session.Values[SessionKeyAccessToken].(string)
				if id, ok := accessSubject(access); ok {
					c.Set(ContextKeyIdentityID, id)
				} else if refresh, _ := session.Values[SessionKeyRefreshToken].(string); refresh != "" && refresher != nil {
					if tokens, err := refresher.Refresh(c.Request.Context(), refresh); err == nil {
						session.Values[SessionKeyAccessToken] = tokens.AccessToken
						session.Values[SessionKeyRefreshToken] = tokens.RefreshToken
						if err := session.Save(c.Request, c.Writer); err == nil {
							c.Set(ContextKeyIdentityID, tokens.UserID)
						}
					}
				}
			}
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityID returns the caller id set by SessionIdentity, or nil for an
// anonymous request.
func IdentityID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ContextKeyIdentityID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
