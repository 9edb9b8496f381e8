package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Ry1and/flockr/internal/api"
	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/config"
	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/imaging"
	"github.com/Ry1and/flockr/internal/mail"
	redisclient "github.com/Ry1and/flockr/internal/redis"
	"github.com/Ry1and/flockr/internal/scheduler"
	"github.com/Ry1and/flockr/internal/service"
	"github.com/Ry1and/flockr/internal/snowflake"
	"github.com/Ry1and/flockr/internal/storage"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("postgres", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		fatal("redis", err)
	}
	defer rdb.Close()

	sf, err := snowflake.NewGenerator(cfg.NodeID)
	if err != nil {
		fatal("snowflake", err)
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	authn := auth.NewAuthenticator(tokens, rdb)

	var mailer mail.Sender = mail.LogSender{}
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		slog.Warn("SMTP_HOST not set, reset codes will only be logged")
	}

	// Left as a nil interface when storage is off so uploads report STORAGE_DISABLED.
	var photos service.PhotoStorage
	if cfg.StorageEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Secure:    cfg.MinIOUseSSL,
		})
		if err != nil {
			fatal("minio", err)
		}
		photos = minioClient
	} else {
		slog.Warn("MINIO_ENDPOINT not set, profile photo uploads are disabled")
	}

	// --- Repositories ---

	users := database.NewUserRepository(pool)
	channels := database.NewChannelRepository(pool)
	members := database.NewMemberRepository(pool)
	messages := database.NewMessageRepository(pool)
	reactions := database.NewReactionRepository(pool)

	// --- Gateway ---

	gwManager := gateway.NewManager(authn, channels, rdb)
	typingHandler := gateway.NewTypingHandler(channels, members, rdb, gwManager)

	// --- Services ---

	perms := service.NewPermissionChecker(users, channels, members)
	standupSvc := service.NewStandupService(channels, messages, sf, gwManager, perms)
	channelSvc := service.NewChannelService(channels, members, sf, gwManager, perms, standupSvc)
	messageSvc := service.NewMessageService(messages, reactions, channels, sf, gwManager, perms, rdb)

	// --- Handlers ---

	deps := &api.Dependencies{
		Auth: api.NewAuthHandler(service.NewAuthService(users, tokens, rdb, sf, mailer, gwManager)),
		Users: api.NewUserHandler(
			service.NewUserService(users, gwManager),
			service.NewPhotoService(users, imaging.NewFetcher(nil), photos, gwManager),
			channelSvc,
		),
		Admin:         api.NewAdminHandler(service.NewAdminService(users, gwManager, perms)),
		Channels:      api.NewChannelHandler(channelSvc),
		Messages:      api.NewMessageHandler(messageSvc),
		Reactions:     api.NewReactionHandler(service.NewReactionService(messages, reactions, gwManager, perms)),
		Standups:      api.NewStandupHandler(standupSvc),
		Search:        api.NewSearchHandler(service.NewSearchService(messages, reactions)),
		Typing:        typingHandler,
		Gateway:       gwManager,
		Authenticator: authn,
		Redis:         rdb,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.HTTPErrorHandler = api.HTTPErrorHandler
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := scheduler.NewPoller(rdb, messageSvc.DeliverScheduled, scheduler.DefaultInterval)
	go poller.Run(sigCtx)

	go func() {
		slog.Info("flockr starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			fatal("server", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down")

	standupSvc.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

func fatal(component string, err error) {
	slog.Error("startup failed", "component", component, "error", err)
	os.Exit(1)
}
