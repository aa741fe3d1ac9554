package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
)

func callerID(c *gin.Context) *uuid.UUID {
	return middleware.IdentityID(c)
}

// redirectWith redirects to path with a single ?error= or ?message= value.
func redirectWith(c *gin.Context, path, key, msg string) {
	c.Redirect(http.StatusFound, path+"?"+url.Values{key: {msg}}.Encode())
}

// safeNext accepts only site-relative paths so a crafted ?next= cannot send
// the browser to another origin.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}
