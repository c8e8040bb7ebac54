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
	"github.com/liventcord/LiventCord-sub002/internal/api"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/config"
	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/gateway"
	"github.com/liventcord/LiventCord-sub002/internal/metadata"
	redisclient "github.com/liventcord/LiventCord-sub002/internal/redis"
	"github.com/liventcord/LiventCord-sub002/internal/service"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
	"github.com/liventcord/LiventCord-sub002/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
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
	rdb.SetCacheTTL(cfg.MessageCacheTTL)

	sf, err := snowflake.NewGenerator(1, 1)
	if err != nil {
		fatal("snowflake", err)
	}
	tokenSvc := auth.NewTokenService(cfg.JWTSecret)

	var files service.FileStorage
	if cfg.MinIOEndpoint != "" {
		blobs, err := storage.NewMinIOClient(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOSecure)
		if err != nil {
			fatal("minio", err)
		}
		files = blobs
	} else {
		slog.Warn("MINIO_ENDPOINT not set, file uploads are disabled")
	}

	var fetcher metadata.Fetcher
	if cfg.MediaWorkerURL != "" {
		fetcher = metadata.NewProxyClient(cfg.MediaWorkerURL, cfg.AdminKey, cfg.ProxyTimeout)
	} else {
		fetcher = metadata.NewHTMLExtractor(cfg.ProxyTimeout)
	}

	// --- Repositories ---

	users := database.NewUserRepository(pool)
	guilds := database.NewGuildRepository(pool)
	channels := database.NewChannelRepository(pool)
	roles := database.NewRoleRepository(pool)
	members := database.NewMemberRepository(pool)
	friends := database.NewFriendRepository(pool)
	messages := database.NewMessageRepository(pool)
	attachments := database.NewAttachmentRepository(pool)
	pins := database.NewPinRepository(pool)
	messageURLs := database.NewMessageURLRepository(pool)
	mediaURLs := database.NewMediaURLRepository(pool)
	readStates := database.NewReadStateRepository(pool)
	urlMetadata := database.NewURLMetadataRepository(pool)

	// --- Gateway ---

	gwManager := gateway.NewManager(tokenSvc, members)
	broadcaster := gateway.NewBroadcaster(gwManager, rdb)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := broadcaster.Run(sigCtx); err != nil && sigCtx.Err() == nil {
			slog.Error("event stream stopped", "error", err)
		}
	}()

	// --- Services ---

	perms := service.NewPermissionChecker(guilds, members, roles, friends)
	enricher := service.NewEnrichmentQueue(service.EnrichmentConfig{
		Workers:   cfg.EnrichWorkers,
		QueueSize: cfg.EnrichQueueSize,
		Rate:      cfg.EnrichRate,
	}, fetcher, messageURLs, mediaURLs, attachments, messages, rdb, sf)
	enricher.Start()

	messageSvc := service.NewMessageService(service.MessageServiceDeps{
		Messages:    messages,
		Attachments: attachments,
		Pins:        pins,
		Channels:    channels,
		Users:       users,
		Perms:       perms,
		Cache:       rdb,
		Files:       files,
		Events:      broadcaster,
		Enricher:    enricher,
		IDs:         sf,
		MaxFileSize: cfg.MaxAttachmentSize,
	})
	searchSvc := service.NewSearchService(messages, perms)
	readStateSvc := service.NewReadStateService(readStates, channels, perms)
	mediaSvc := service.NewMediaService(mediaURLs, attachments, messageURLs, messages, channels, rdb, sf)
	metadataSvc := service.NewMetadataService(urlMetadata, cfg.MetadataIngestEnabled, cfg.MetadataDomainLimit)

	// --- Handlers ---

	deps := &api.Dependencies{
		Messages:     api.NewMessageHandler(messageSvc),
		Pins:         api.NewPinHandler(messageSvc),
		Bot:          api.NewBotHandler(messageSvc),
		Search:       api.NewSearchHandler(searchSvc),
		ReadStates:   api.NewReadStateHandler(readStateSvc),
		Media:        api.NewMediaHandler(mediaSvc, metadataSvc),
		Gateway:      gwManager,
		TokenService: tokenSvc,
		RateLimiter:  rdb,
		BotToken:     cfg.BotToken,
		AdminKey:     cfg.AdminKey,

		MaxAttachmentSize: cfg.MaxAttachmentSize,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRouter(e, deps)

	// --- Start ---

	go func() {
		slog.Info("liventcord starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			fatal("server", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if err := enricher.Stop(shutdownCtx); err != nil {
		slog.Warn("enrichment queue shutdown", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(what string, err error) {
	slog.Error(what, "error", err)
	os.Exit(1)
}
