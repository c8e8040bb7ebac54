package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/auth"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// SearchHandler handles message search endpoints.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

type guildSearchRequest struct {
	Query        string     `json:"query"`
	ChannelID    string     `json:"channelId"`
	FromUserID   string     `json:"fromUserId"`
	BeforeDate   *time.Time `json:"beforeDate"`
	DuringDate   *time.Time `json:"duringDate"`
	AfterDate    *time.Time `json:"afterDate"`
	Page         int        `json:"page"`
	PageSize     int        `json:"pageSize"`
	ReverseOrder bool       `json:"reverseOrder"`
}

type searchResponse struct {
	TotalCount int              `json:"totalCount"`
	Messages   []models.Message `json:"messages"`
}

// SearchGuild handles POST /api/guilds/:guildId/messages/search.
func (h *SearchHandler) SearchGuild(c echo.Context) error {
	var req guildSearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	if req.ChannelID != "" && !snowflake.ValidID(req.ChannelID) {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channelId")
	}
	if req.FromUserID != "" && !snowflake.ValidUserID(req.FromUserID) {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid fromUserId")
	}

	msgs, total, err := h.service.SearchGuild(c.Request().Context(), auth.GetUserID(c), c.Param("guildId"), service.GuildSearch{
		Query:      req.Query,
		ChannelID:  req.ChannelID,
		FromUserID: req.FromUserID,
		Before:     req.BeforeDate,
		During:     req.DuringDate,
		After:      req.AfterDate,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Reverse:    req.ReverseOrder,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, searchResponse{TotalCount: total, Messages: msgs})
}

// SearchDM handles GET /api/dms/:dmId/messages/search?query&fromUserId.
func (h *SearchHandler) SearchDM(c echo.Context) error {
	fromUserID := c.QueryParam("fromUserId")
	if fromUserID != "" && !snowflake.ValidUserID(fromUserID) {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid fromUserId")
	}

	msgs, total, err := h.service.SearchDM(c.Request().Context(), auth.GetUserID(c), c.Param("dmId"), c.QueryParam("query"), fromUserID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, searchResponse{TotalCount: total, Messages: msgs})
}
