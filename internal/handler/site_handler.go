package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	"github.com/johnlukeG/creator-cto-webkit/pkg/response"
)

type SiteHandler struct {
	settings service.SettingsService
}

func NewSiteHandler(settings service.SettingsService) *SiteHandler {
	return &SiteHandler{settings: settings}
}

type PublicSite struct {
	SiteName     string `json:"site_name"`
	Tagline      string `json:"tagline"`
	AllowSignups bool   `json:"allow_signups"`
}

// Get serves the settings public pages render with. Access-control flags
// other than allow_signups stay private.
func (h *SiteHandler) Get(c *gin.Context) {
	snapshot := h.settings.Snapshot(c.Request.Context())
	response.Success(c, PublicSite{
		SiteName:     snapshot.SiteName,
		Tagline:      snapshot.Tagline,
		AllowSignups: snapshot.AllowSignups,
	})
}
