package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/service"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// MediaHandler handles reports from the metadata worker and external
// metadata submissions.
type MediaHandler struct {
	media    *service.MediaService
	metadata *service.MetadataService
}

func NewMediaHandler(media *service.MediaService, metadata *service.MetadataService) *MediaHandler {
	return &MediaHandler{media: media, metadata: metadata}
}

type mediaReportRequest struct {
	MediaURL  *models.MediaURL `json:"mediaUrl"`
	MessageID string           `json:"messageId"`
}

type mediaReportResponse struct {
	URL        string   `json:"url"`
	MessageIDs []string `json:"messageIds"`
}

// ReportMedia handles POST /api/media.
func (h *MediaHandler) ReportMedia(c echo.Context) error {
	var req mediaReportRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	if req.MediaURL == nil {
		return Error(c, http.StatusBadRequest, "MISSING_MEDIA", "mediaUrl is required")
	}
	if req.MessageID != "" && !snowflake.ValidID(req.MessageID) {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid messageId")
	}

	ids, err := h.media.AddMediaURL(c.Request().Context(), req.MediaURL, req.MessageID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, mediaReportResponse{URL: req.MediaURL.URL, MessageIDs: ids})
}

type metadataRequest struct {
	Domain      string `json:"domain"`
	RoutePath   string `json:"routePath"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SiteName    string `json:"siteName"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	Keywords    string `json:"keywords"`
	Author      string `json:"author"`
}

// IngestMetadata handles POST /api/v1/metadata.
func (h *MediaHandler) IngestMetadata(c echo.Context) error {
	var req metadataRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	record, err := h.metadata.Ingest(c.Request().Context(), &models.URLMetadata{
		Domain:      req.Domain,
		RoutePath:   req.RoutePath,
		Title:       req.Title,
		Description: req.Description,
		SiteName:    req.SiteName,
		Image:       req.Image,
		URL:         req.URL,
		Type:        req.Type,
		Keywords:    req.Keywords,
		Author:      req.Author,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}
