package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

const maintenanceMessage = "The site is under maintenance. Please check back soon."

// Maintenance answers 503 to non-admin callers while maintenance_mode is
// on. Paths starting with any of exempt stay reachable so admins can sign
// in and switch it off. Must run after SessionIdentity.
func Maintenance(settings service.SettingsService, guard service.Guard, logger *zap.Logger, exempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range exempt {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		if !settings.Snapshot(c.Request.Context()).MaintenanceMode {
			c.Next()
			return
		}

		caller, err := guard.ResolveCaller(c.Request.Context(), IdentityID(c))
		if err != nil {
			logger.Warn("maintenance caller lookup failed", zap.Error(err))
		} else if caller.Kind == service.CallerAdmin {
			c.Next()
			return
		}

		c.Header("Retry-After", "300")
		if strings.HasPrefix(path, "/api/") {
			response.ServiceUnavailable(c, maintenanceMessage)
		} else {
			c.String(http.StatusServiceUnavailable, maintenanceMessage)
		}
		c.Abort()
	}
}
