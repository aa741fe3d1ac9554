package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/johnlukeG/creator-cto-webkit/internal/config"
)

// CORS is a pass-through when no origins are configured; the site's own
// pages are same-origin. "*" allows any origin without credentials.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cc := cors.DefaultConfig()
	if slices.Contains(cfg.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
		cc.AllowCredentials = cfg.AllowCredentials
	}
	if len(cfg.AllowedMethods) > 0 {
		cc.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		cc.AllowHeaders = cfg.AllowedHeaders
	} else {
		cc.AddAllowHeaders("Authorization")
	}
	if cfg.MaxAge > 0 {
		cc.MaxAge = cfg.MaxAge
	}
	return cors.New(cc)
}
