package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/config"
	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/metrics"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	jwtpkg "github.com/johnlukeG/creator-cto-webkit/pkg/jwt"
)

// Paths that stay reachable while maintenance mode is on.
var maintenanceExempt = []string{
	"/healthz", "/metrics", "/login", "/logout",
	"/api/v1/auth/", "/api/v1/site", "/admin", "/api/v1/admin/",
}

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	collector *metrics.Collector,
	jwtManager *jwtpkg.Manager,
	sessionStore sessions.Store,
	guard service.Guard,
	settings service.SettingsService,
	idp service.IdentityProvider,
	authLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	adminHandler *AdminHandler,
	siteHandler *SiteHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	if collector != nil {
		r.Use(middleware.Metrics(collector))
	}
	r.Use(middleware.SessionIdentity(jwtManager, sessionStore, cfg.Session.CookieName, idp))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Maintenance(settings, guard, logger, maintenanceExempt...))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if collector != nil {
		r.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	limit := func(c *gin.Context) { c.Next() }
	if authLimiter != nil {
		limit = authLimiter.Middleware()
	}

	// Form actions
	r.POST("/signup", limit, authHandler.SignUpForm)
	r.POST("/login", limit, authHandler.LoginForm)
	r.POST("/forgot-password", limit, authHandler.ForgotPasswordForm)
	r.POST("/logout", authHandler.LogoutForm)

	// Public API
	r.GET("/api/v1/site", siteHandler.Get)
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", limit, authHandler.SignUp)
		auth.POST("/login", limit, authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", limit, authHandler.ForgotPassword)
		auth.POST("/reset-password", limit, authHandler.ResetPassword)
		auth.GET("/confirm", authHandler.ConfirmEmail)
	}

	// Signed-in
	r.GET("/account", middleware.RequireSignedIn(guard, middleware.GatePage, logger), accountHandler.Get)
	account := r.Group("/api/v1/account")
	account.Use(middleware.RequireSignedIn(guard, middleware.GateAPI, logger))
	{
		account.GET("", accountHandler.Get)
		account.PATCH("/profile", accountHandler.UpdateProfile)
	}

	// Admin pages redirect; admin actions answer JSON.
	pages := r.Group("/admin")
	pages.Use(middleware.RequireAdmin(guard, middleware.GatePage, logger))
	{
		pages.GET("", adminHandler.Dashboard)
		pages.GET("/users", adminHandler.Users)
		pages.GET("/settings", adminHandler.Settings)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.RequireAdmin(guard, middleware.GateAPI, logger))
	{
		admin.POST("/users/:id/admin", adminHandler.SetAdminStatus)
		admin.POST("/users/:id/ban", adminHandler.SetBanStatus)
		admin.PUT("/settings/:key", adminHandler.UpdateSetting)
		admin.PUT("/settings", adminHandler.UpdateSettings)
	}

	return r
}
