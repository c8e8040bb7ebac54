package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
)

// PinHandler handles pinning guild messages.
type PinHandler struct {
	service *service.MessageService
}

func NewPinHandler(svc *service.MessageService) *PinHandler {
	return &PinHandler{service: svc}
}

type pinResponse struct {
	PinNotificationMessage *models.Message `json:"pinNotificationMessage,omitempty"`
}

type unpinResponse struct {
	MessageID string `json:"messageId"`
}

type pinnedMessagesResponse struct {
	Messages  []models.Message `json:"messages"`
	GuildID   string           `json:"guildId"`
	ChannelID string           `json:"channelId"`
}

// Pin handles POST /api/guilds/:guildId/channels/:channelId/messages/:messageId/pin.
// An already pinned message answers with an empty object.
func (h *PinHandler) Pin(c echo.Context) error {
	notification, err := h.service.PinMessage(c.Request().Context(),
		auth.GetUserID(c), c.Param("guildId"), c.Param("channelId"), c.Param("messageId"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, pinResponse{PinNotificationMessage: notification})
}

// Unpin handles POST /api/guilds/:guildId/channels/:channelId/messages/:messageId/unpin.
func (h *PinHandler) Unpin(c echo.Context) error {
	messageID := c.Param("messageId")
	if err := h.service.UnpinMessage(c.Request().Context(),
		auth.GetUserID(c), c.Param("guildId"), c.Param("channelId"), messageID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, unpinResponse{MessageID: messageID})
}

// ListPinned handles GET /api/guilds/:guildId/channels/:channelId/messages/pinned.
func (h *PinHandler) ListPinned(c echo.Context) error {
	guildID, channelID := c.Param("guildId"), c.Param("channelId")
	msgs, err := h.service.GetPinnedMessages(c.Request().Context(), auth.GetUserID(c), guildID, channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, pinnedMessagesResponse{Messages: msgs, GuildID: guildID, ChannelID: channelID})
}
