package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/service"
)

// ReadStateHandler handles read marker and unread count endpoints.
type ReadStateHandler struct {
	service *service.ReadStateService
}

// NewReadStateHandler creates a ReadStateHandler.
func NewReadStateHandler(svc *service.ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{service: svc}
}

type channelReadResponse struct {
	ChannelID string     `json:"channelId"`
	LastRead  *time.Time `json:"lastRead"`
}

type guildReadResponse struct {
	GuildID  string                `json:"guildId"`
	Channels []channelReadResponse `json:"channels"`
}

type unreadCountResponse struct {
	ChannelID string `json:"channelId"`
	Count     int    `json:"count"`
}

// MarkChannelRead handles POST /api/channels/:channelId/read.
func (h *ReadStateHandler) MarkChannelRead(c echo.Context) error {
	channelID := c.Param("channelId")
	lastRead, err := h.service.MarkChannelRead(c.Request().Context(), auth.GetUserID(c), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channelReadResponse{ChannelID: channelID, LastRead: lastRead})
}

// MarkGuildRead handles POST /api/guilds/:guildId/read.
func (h *ReadStateHandler) MarkGuildRead(c echo.Context) error {
	guildID := c.Param("guildId")
	states, err := h.service.MarkGuildRead(c.Request().Context(), auth.GetUserID(c), guildID)
	if err != nil {
		return mapServiceError(c, err)
	}

	channels := make([]channelReadResponse, 0, len(states))
	for i := range states {
		channels = append(channels, channelReadResponse{ChannelID: states[i].ChannelID, LastRead: &states[i].LastRead})
	}
	return c.JSON(http.StatusOK, guildReadResponse{GuildID: guildID, Channels: channels})
}

// GetReadState handles GET /api/channels/:channelId/read-state.
func (h *ReadStateHandler) GetReadState(c echo.Context) error {
	channelID := c.Param("channelId")
	lastRead, err := h.service.GetReadState(c.Request().Context(), auth.GetUserID(c), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channelReadResponse{ChannelID: channelID, LastRead: lastRead})
}

// GetUnreadCount handles GET /api/channels/:channelId/unread-count.
func (h *ReadStateHandler) GetUnreadCount(c echo.Context) error {
	channelID := c.Param("channelId")
	count, err := h.service.GetUnreadCount(c.Request().Context(), auth.GetUserID(c), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, unreadCountResponse{ChannelID: channelID, Count: count})
}

// GetGuildUnreadCounts handles GET /api/guilds/:guildId/unread-counts.
func (h *ReadStateHandler) GetGuildUnreadCounts(c echo.Context) error {
	counts, err := h.service.GetGuildUnreadCounts(c.Request().Context(), auth.GetUserID(c), c.Param("guildId"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}
