// Package main is the entry point for the estatepress server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatepress/internal/cache"
	"estatepress/internal/config"
	"estatepress/internal/database"
	"estatepress/internal/engine"
	"estatepress/internal/handlers"
	"estatepress/internal/leads"
	"estatepress/internal/mailer"
	"estatepress/internal/middleware"
	"estatepress/internal/preview"
	"estatepress/internal/render"
	"estatepress/internal/router"
	"estatepress/internal/session"
	"estatepress/internal/storage"
	"estatepress/internal/store"
)

const (
	loginLimit    = 10
	loginWindow   = 15 * time.Minute
	contactLimit  = 5
	contactWindow = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// JSON logs in production, text everywhere else.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "base_url", cfg.BaseURL)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.SiteName, cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize admin templates", "error", err)
		os.Exit(1)
	}
	eng, err := engine.New(cfg.SiteName, cfg.BaseURL)
	if err != nil {
		slog.Error("failed to initialize site templates", "error", err)
		os.Exit(1)
	}

	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	leadStore := store.NewLeadStore(db)
	mediaStore := store.NewMediaStore(db)
	settingStore := store.NewSiteSettingStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Object storage is optional; without it uploads answer 503.
	storageClient, err := storage.New(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBucket:  cfg.S3BucketPublic,
		PrivateBucket: cfg.S3BucketPrivate,
		PublicURL:     cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var media *storage.Media
	if storageClient != nil {
		media = storage.NewMedia(storageClient, mediaStore)
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		if err != nil {
			slog.Error("failed to initialize smtp mailer", "error", err)
			os.Exit(1)
		}
		mail = smtp
		slog.Info("smtp mailer configured", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		slog.Warn("smtp not configured, thank-you emails are logged only")
	}

	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	previews := preview.NewTokens(cfg.PreviewToken, cfg.PreviewSecret)
	leadService := leads.NewService(leadStore, mail, settingStore, cfg.SiteName, cfg.BaseURL)

	adminHandlers := handlers.NewAdmin(renderer, sessionStore, postStore, leadStore, userStore, settingStore,
		mediaStore, media, storageClient, previews, eng, pageCache, cacheLogStore)
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, cfg.SiteName)
	publicHandlers := handlers.NewPublic(eng, postStore, settingStore, preview.NewGate(postStore, previews), leadService, pageCache)

	loginLimiter := middleware.NewRateLimiter(loginLimit, loginWindow)
	defer loginLimiter.Stop()
	contactLimiter := middleware.NewRateLimiter(contactLimit, contactWindow)
	defer contactLimiter.Stop()

	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, router.Options{
		SecureCookies:  secureCookies,
		LoginLimiter:   loginLimiter,
		ContactLimiter: contactLimiter,
	})

	// WriteTimeout covers 50 MB library uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
