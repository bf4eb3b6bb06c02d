package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"widgetic/accounts"
	"widgetic/admin"
	"widgetic/analytics"
	"widgetic/api"
	"widgetic/backoffice"
	"widgetic/common"
	"widgetic/config"
	"widgetic/database"
	"widgetic/site"
	"widgetic/tenants"
	"widgetic/widgets"
)

func main() {
	cfg := config.Load()
	common.SetupLogger(cfg.LogLevel, cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := common.ConnectDb(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := database.SeedSuperadmin(db, cfg.SuperadminEmail, cfg.SuperadminPassword, cfg.BcryptCost); err != nil {
		log.Fatal().Err(err).Msg("failed to seed superadmin")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("widgetic-session", store))
	router.Use(common.RequestLogger())

	accountService := accounts.NewService(db, cfg.BcryptCost)
	tenantService := tenants.NewService(db)
	widgetService := widgets.NewService(db)
	analyticsService := analytics.NewService(db)

	siteModule := site.NewSiteModule(db)
	siteModule.RegisterRoutes(router)

	apiModule := api.NewAPIModule(tenantService, widgetService, analyticsService, cfg.AllowedOrigins)
	apiModule.RegisterRoutes(router)

	adminModule := admin.NewAdminModule(accountService, tenantService, widgetService, analyticsService)
	adminModule.RegisterRoutes(router)

	backofficeModule := backoffice.NewBackofficeModule(accountService, tenantService, widgetService)
	backofficeModule.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
