package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/gateway"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Messages   *MessageHandler
	Pins       *PinHandler
	Bot        *BotHandler
	Search     *SearchHandler
	ReadStates *ReadStateHandler
	Media      *MediaHandler
	Gateway    *gateway.Manager

	TokenService *auth.TokenService
	RateLimiter  RateLimiter
	BotToken     string
	AdminKey     string

	// MaxAttachmentSize is the per-message attachment limit enforced by the
	// message service. The request body limit is derived from it.
	MaxAttachmentSize int64
}

// bodyLimit is twice the attachment limit plus multipart overhead.
func bodyLimit(maxAttachment int64) string {
	const overhead = 1 << 20
	return strconv.FormatInt((2*maxAttachment+overhead)/1024, 10) + "K"
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	if deps.Gateway != nil {
		e.GET("/gateway", deps.Gateway.HandleWebSocket)
	}

	api := e.Group("/api")
	if deps.MaxAttachmentSize > 0 {
		api.Use(middleware.BodyLimit(bodyLimit(deps.MaxAttachmentSize)))
	}

	// Bot bridge, authenticated by the shared bot token.
	bot := api.Group("/discord/bot", auth.BotTokenMiddleware(deps.BotToken), ValidateIDParams())
	bot.POST("/messages/bulk/:guildId/:channelId", deps.Bot.BulkUpsert)
	bot.POST("/messages/:guildId/:channelId", deps.Bot.Upsert)

	// Media worker reports.
	api.POST("/media", deps.Media.ReportMedia, auth.AdminKeyMiddleware(deps.AdminKey))

	// External metadata submissions are limited per domain by the service.
	api.POST("/v1/metadata", deps.Media.IngestMetadata, RateLimitMiddleware(deps.RateLimiter, 60, time.Minute))

	protected := api.Group("", deps.TokenService.Middleware(),
		RateLimitMiddleware(deps.RateLimiter, 50, time.Minute),
		ValidateIDParams(),
	)

	// Guild messages
	guild := protected.Group("/guilds/:guildId/channels/:channelId/messages")
	guild.GET("", deps.Messages.GetGuildMessages)
	guild.POST("", deps.Messages.PostGuildMessage)
	guild.GET("/attachments", deps.Messages.GetAttachments)
	guild.GET("/links", deps.Messages.GetLinks)
	guild.GET("/pinned", deps.Pins.ListPinned)
	guild.PATCH("/:messageId", deps.Messages.EditGuildMessage)
	guild.DELETE("/:messageId", deps.Messages.DeleteGuildMessage)
	guild.POST("/:messageId/pin", deps.Pins.Pin)
	guild.POST("/:messageId/unpin", deps.Pins.Unpin)
	guild.DELETE("/:messageId/pin", deps.Pins.Unpin)

	// DM messages
	dm := protected.Group("/dms/channels/:friendId/messages")
	dm.GET("", deps.Messages.GetDMMessages)
	dm.POST("", deps.Messages.PostDMMessage)
	dm.PATCH("/:messageId", deps.Messages.EditDMMessage)
	dm.DELETE("/:messageId", deps.Messages.DeleteDMMessage)

	// Search
	protected.POST("/guilds/:guildId/messages/search", deps.Search.SearchGuild)
	protected.GET("/dms/:dmId/messages/search", deps.Search.SearchDM)

	// Read state
	protected.POST("/channels/:channelId/read", deps.ReadStates.MarkChannelRead)
	protected.GET("/channels/:channelId/read-state", deps.ReadStates.GetReadState)
	protected.GET("/channels/:channelId/unread-count", deps.ReadStates.GetUnreadCount)
	protected.POST("/guilds/:guildId/read", deps.ReadStates.MarkGuildRead)
	protected.GET("/guilds/:guildId/unread-counts", deps.ReadStates.GetGuildUnreadCounts)
}
