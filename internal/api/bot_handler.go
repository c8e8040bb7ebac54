package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
)

// BotHandler receives messages mirrored by the bot bridge.
type BotHandler struct {
	service *service.MessageService
}

func NewBotHandler(svc *service.MessageService) *BotHandler {
	return &BotHandler{service: svc}
}

type botMessageRequest struct {
	MessageID         string         `json:"messageId"`
	UserID            string         `json:"userId"`
	Content           *string        `json:"content"`
	Date              time.Time      `json:"date"`
	LastEdited        *time.Time     `json:"lastEdited"`
	AttachmentURLs    *string        `json:"attachmentUrls"`
	ReplyToID         *string        `json:"replyToId"`
	ReactionEmojisIDs *string        `json:"reactionEmojisIds"`
	Embeds            []models.Embed `json:"embeds"`
}

func (r botMessageRequest) toService() service.BotMessage {
	return service.BotMessage{
		MessageID:         r.MessageID,
		UserID:            r.UserID,
		Content:           r.Content,
		Date:              r.Date,
		LastEdited:        r.LastEdited,
		AttachmentURLs:    r.AttachmentURLs,
		ReplyToID:         r.ReplyToID,
		ReactionEmojisIDs: r.ReactionEmojisIDs,
		Embeds:            r.Embeds,
	}
}

// Upsert handles POST /api/discord/bot/messages/:guildId/:channelId.
func (h *BotHandler) Upsert(c echo.Context) error {
	var req botMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	inserted, err := h.service.UpsertBotMessage(c.Request().Context(), c.Param("guildId"), c.Param("channelId"), req.toService())
	if err != nil {
		return mapServiceError(c, err)
	}
	if inserted {
		return success(c, http.StatusOK, "Message inserted to guild.")
	}
	return success(c, http.StatusOK, "Message updated in guild.")
}

// BulkUpsert handles POST /api/discord/bot/messages/bulk/:guildId/:channelId.
func (h *BotHandler) BulkUpsert(c echo.Context) error {
	var req []botMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	batch := make([]service.BotMessage, 0, len(req))
	for _, r := range req {
		batch = append(batch, r.toService())
	}
	if err := h.service.UpsertBotMessages(c.Request().Context(), c.Param("guildId"), c.Param("channelId"), batch); err != nil {
		return mapServiceError(c, err)
	}
	return success(c, http.StatusOK, "Messages processed successfully.")
}
