package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// MessageHandler handles guild and DM message endpoints.
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

type guildMessagesResponse struct {
	Messages          []models.Message `json:"messages"`
	ChannelID         string           `json:"channelId"`
	GuildID           string           `json:"guildId"`
	OldestMessageDate *time.Time       `json:"oldestMessageDate"`
	IsOldMessages     bool             `json:"isOldMessages"`
}

type dmMessagesResponse struct {
	Messages          []models.Message `json:"messages"`
	ChannelID         string           `json:"channelId"`
	OldestMessageDate *time.Time       `json:"oldestMessageDate"`
	IsOldMessages     bool             `json:"isOldMessages"`
}

// GetGuildMessages handles GET /api/guilds/:guildId/channels/:channelId/messages.
func (h *MessageHandler) GetGuildMessages(c echo.Context) error {
	before, messageID, err := pageParams(c)
	if err != nil {
		return mapServiceError(c, err)
	}
	guildID, channelID := c.Param("guildId"), c.Param("channelId")

	page, err := h.service.GetGuildMessages(c.Request().Context(), auth.GetUserID(c), guildID, channelID, before, messageID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, guildMessagesResponse{
		Messages:          page.Messages,
		ChannelID:         channelID,
		GuildID:           guildID,
		OldestMessageDate: page.OldestMessageDate,
		IsOldMessages:     page.IsOldMessages,
	})
}

// GetDMMessages handles GET /api/dms/channels/:friendId/messages.
func (h *MessageHandler) GetDMMessages(c echo.Context) error {
	before, messageID, err := pageParams(c)
	if err != nil {
		return mapServiceError(c, err)
	}
	guildID := c.QueryParam("guildId")
	if guildID != "" && !snowflake.ValidID(guildID) {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid guildId")
	}
	userID := auth.GetUserID(c)
	friendID := c.Param("friendId")

	page, err := h.service.GetDMMessages(c.Request().Context(), userID, friendID, before, messageID, guildID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dmMessagesResponse{
		Messages:          page.Messages,
		ChannelID:         snowflake.DMChannelID(userID, friendID),
		OldestMessageDate: page.OldestMessageDate,
		IsOldMessages:     page.IsOldMessages,
	})
}

// pageParams reads the date and messageId history filters.
func pageParams(c echo.Context) (*time.Time, string, error) {
	var before *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, "", service.BadRequest("INVALID_DATE", "date must be an RFC 3339 timestamp")
		}
		t = t.UTC()
		before = &t
	}
	messageID := c.QueryParam("messageId")
	if messageID != "" && !snowflake.ValidID(messageID) {
		return nil, "", service.BadRequest("INVALID_ID", "invalid messageId")
	}
	return before, messageID, nil
}

type postMessageRequest struct {
	Content     *string `json:"content" form:"content"`
	ReplyToID   string  `json:"replyToId" form:"replyToId"`
	TemporaryID string  `json:"temporaryId" form:"temporaryId"`
}

type guildPostResponse struct {
	Message *models.Message `json:"message"`
	GuildID string          `json:"guildId"`
}

type dmPostResponse struct {
	Message   *models.Message `json:"message"`
	ChannelID string          `json:"channelId"`
}

// PostGuildMessage handles POST /api/guilds/:guildId/channels/:channelId/messages.
func (h *MessageHandler) PostGuildMessage(c echo.Context) error {
	in, err := readPostInput(c)
	if err != nil {
		return mapServiceError(c, err)
	}
	in.GuildID = c.Param("guildId")
	in.ChannelID = c.Param("channelId")
	in.AuthorID = auth.GetUserID(c)

	msg, err := h.service.PostMessage(c.Request().Context(), service.ModeGuild, in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, guildPostResponse{Message: msg, GuildID: in.GuildID})
}

// PostDMMessage handles POST /api/dms/channels/:friendId/messages.
func (h *MessageHandler) PostDMMessage(c echo.Context) error {
	in, err := readPostInput(c)
	if err != nil {
		return mapServiceError(c, err)
	}
	in.RecipientID = c.Param("friendId")
	in.AuthorID = auth.GetUserID(c)

	msg, err := h.service.PostMessage(c.Request().Context(), service.ModeDM, in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dmPostResponse{Message: msg, ChannelID: msg.ChannelID})
}

// readPostInput accepts a multipart form (content, files[], replyToId,
// isSpoilerFlags[]) or a JSON body without files.
func readPostInput(c echo.Context) (service.PostInput, error) {
	var req postMessageRequest
	var in service.PostInput

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return in, service.BadRequest("INVALID_BODY", "invalid multipart form")
		}
		if v, ok := form.Value["content"]; ok && len(v) > 0 {
			req.Content = &v[0]
		}
		req.ReplyToID = firstValue(form, "replyToId")
		req.TemporaryID = firstValue(form, "temporaryId")
		in.Files = incomingFiles(form)
	} else if err := c.Bind(&req); err != nil {
		return in, service.BadRequest("INVALID_BODY", "invalid request body")
	}

	in.Content = req.Content
	in.ReplyToID = req.ReplyToID
	in.TemporaryID = req.TemporaryID
	return in, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// incomingFiles pairs every uploaded file with the spoiler flag at the same
// position.
func incomingFiles(form *multipart.Form) []service.IncomingFile {
	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	flags := form.Value["isSpoilerFlags[]"]
	if len(flags) == 0 {
		flags = form.Value["isSpoilerFlags"]
	}

	files := make([]service.IncomingFile, 0, len(headers))
	for i, fh := range headers {
		spoiler := false
		if i < len(flags) {
			spoiler, _ = strconv.ParseBool(flags[i])
		}
		files = append(files, service.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Spoiler:     spoiler,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

type editMessageRequest struct {
	Content string `json:"content"`
}

// EditGuildMessage handles PATCH /api/guilds/:guildId/channels/:channelId/messages/:messageId.
func (h *MessageHandler) EditGuildMessage(c echo.Context) error {
	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	payload, err := h.service.EditMessage(c.Request().Context(), service.ModeGuild, service.EditInput{
		GuildID:   c.Param("guildId"),
		ChannelID: c.Param("channelId"),
		ActorID:   auth.GetUserID(c),
		MessageID: c.Param("messageId"),
		Content:   req.Content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

// EditDMMessage handles PATCH /api/dms/channels/:friendId/messages/:messageId.
func (h *MessageHandler) EditDMMessage(c echo.Context) error {
	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	payload, err := h.service.EditMessage(c.Request().Context(), service.ModeDM, service.EditInput{
		RecipientID: c.Param("friendId"),
		ActorID:     auth.GetUserID(c),
		MessageID:   c.Param("messageId"),
		Content:     req.Content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

// DeleteGuildMessage handles DELETE /api/guilds/:guildId/channels/:channelId/messages/:messageId.
func (h *MessageHandler) DeleteGuildMessage(c echo.Context) error {
	payload, err := h.service.DeleteGuildMessage(c.Request().Context(),
		auth.GetUserID(c), c.Param("guildId"), c.Param("channelId"), c.Param("messageId"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

// DeleteDMMessage handles DELETE /api/dms/channels/:friendId/messages/:messageId.
func (h *MessageHandler) DeleteDMMessage(c echo.Context) error {
	payload, err := h.service.DeleteDMMessage(c.Request().Context(),
		auth.GetUserID(c), c.Param("friendId"), c.Param("messageId"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

type attachmentsResponse struct {
	Attachments []models.AttachmentListing `json:"attachments"`
	Count       int                        `json:"count"`
}

// GetAttachments handles GET /api/guilds/:guildId/channels/:channelId/messages/attachments.
func (h *MessageHandler) GetAttachments(c echo.Context) error {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return mapServiceError(c, err)
	}
	pageSize, err := intQuery(c, "pageSize", 50)
	if err != nil {
		return mapServiceError(c, err)
	}

	items, total, err := h.service.GetAttachments(c.Request().Context(),
		auth.GetUserID(c), c.Param("guildId"), c.Param("channelId"), page, pageSize)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, attachmentsResponse{Attachments: items, Count: total})
}

type linksResponse struct {
	ChannelID string           `json:"channelId"`
	Messages  []models.Message `json:"messages"`
}

// GetLinks handles GET /api/guilds/:guildId/channels/:channelId/messages/links.
func (h *MessageHandler) GetLinks(c echo.Context) error {
	channelID := c.Param("channelId")
	msgs, err := h.service.GetLinkMessages(c.Request().Context(), auth.GetUserID(c), c.Param("guildId"), channelID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, linksResponse{ChannelID: channelID, Messages: msgs})
}

func intQuery(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.BadRequest("INVALID_"+strings.ToUpper(name), name+" must be a number")
	}
	return n, nil
}
