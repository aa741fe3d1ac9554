package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/johnlukeG/creator-cto-webkit/internal/config"
	"github.com/johnlukeG/creator-cto-webkit/internal/handler"
	"github.com/johnlukeG/creator-cto-webkit/internal/handler/middleware"
	"github.com/johnlukeG/creator-cto-webkit/internal/metrics"
	"github.com/johnlukeG/creator-cto-webkit/internal/model"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
	"github.com/johnlukeG/creator-cto-webkit/internal/security"
	"github.com/johnlukeG/creator-cto-webkit/internal/service"
	jwtpkg "github.com/johnlukeG/creator-cto-webkit/pkg/jwt"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate and seed settings if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	default:
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	}

	// 6. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// 7. Repositories
	identityRepo := repository.NewPGIdentityRepository(db)
	profileRepo := repository.NewPGProfileRepository(db)
	settingRepo := repository.NewPGSettingRepository(db)
	analyticsRepo := repository.NewPGAnalyticsRepository(db)

	// 8. Services
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	mailer, err := service.NewMailer(cfg.SMTP, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}
	sanitizer := security.NewTextSanitizer()
	viewCache := service.NewViewCache(stateStore, cfg.Cache.ViewTTL, collector, logger)

	guard := service.NewGuard(profileRepo, identityRepo)
	settingsService := service.NewSettingsService(settingRepo, viewCache, sanitizer, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, viewCache, logger)
	idp := service.NewIdentityProvider(
		identityRepo, profileRepo, settingsService, stateStore,
		jwtManager, mailer, viewCache, cfg.Site, logger,
	)
	adminService := service.NewAdminService(
		guard, profileRepo, settingRepo, settingsService, analyticsService,
		idp, viewCache, collector, logger,
	)
	accountService := service.NewAccountService(guard, profileRepo, sanitizer, viewCache)

	// 9. Browser session cookies
	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	// 10. Handlers and router
	authLimiter := middleware.NewRateLimiter(
		cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst, cfg.RateLimit.CleanupInterval, logger,
	)
	defer authLimiter.Stop()
	collector.TrackRateLimiter("auth", authLimiter.LimiterCount)

	router := handler.SetupRouter(
		cfg, logger, collector, jwtManager, sessionStore, guard, settingsService, idp, authLimiter,
		handler.NewAuthHandler(idp, sessionStore, cfg.Session.CookieName, logger),
		handler.NewAccountHandler(accountService, logger),
		handler.NewAdminHandler(adminService, logger),
		handler.NewSiteHandler(settingsService),
	)

	// 11. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("base_url", cfg.Site.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
