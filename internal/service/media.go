package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// MediaService records media discovered by the metadata worker and attaches it
// to the messages linking it.
type MediaService struct {
	media       database.MediaURLRepository
	attachments database.AttachmentRepository
	urls        database.MessageURLRepository
	messages    database.MessageRepository
	channels    database.ChannelRepository
	cache       MessageCache
	ids         *snowflake.Generator
}

func NewMediaService(
	media database.MediaURLRepository,
	attachments database.AttachmentRepository,
	urls database.MessageURLRepository,
	messages database.MessageRepository,
	channels database.ChannelRepository,
	cache MessageCache,
	ids *snowflake.Generator,
) *MediaService {
	return &MediaService{
		media:       media,
		attachments: attachments,
		urls:        urls,
		messages:    messages,
		channels:    channels,
		cache:       cache,
		ids:         ids,
	}
}

// AddMediaURL stores m and attaches it to messageID, or to every message whose
// extracted URLs contain it when messageID is empty. It returns the ids of the
// messages that gained an attachment.
func (s *MediaService) AddMediaURL(ctx context.Context, m *models.MediaURL, messageID string) ([]string, error) {
	if m == nil || strings.TrimSpace(m.URL) == "" {
		return nil, BadRequest("MISSING_URL", "mediaUrl.url is required")
	}
	if err := s.media.Upsert(ctx, m); err != nil {
		return nil, internalError("saving media url", err, "url", m.URL)
	}

	var targets []models.MessageURL
	if messageID != "" {
		msg, err := s.messages.GetByID(ctx, messageID)
		if err != nil {
			return nil, internalError("loading message", err, "messageID", messageID)
		}
		if msg == nil {
			return nil, NotFound("UNKNOWN_MESSAGE", "message not found")
		}
		channel, err := s.channels.GetByID(ctx, msg.ChannelID)
		if err != nil {
			return nil, internalError("loading channel", err, "channelID", msg.ChannelID)
		}
		target := models.MessageURL{MessageID: msg.MessageID, ChannelID: msg.ChannelID}
		if channel != nil {
			target.GuildID = channel.GuildID
		}
		targets = append(targets, target)
	} else {
		refs, err := s.urls.ListReferencing(ctx, m.URL)
		if err != nil {
			return nil, internalError("finding messages for media", err, "url", m.URL)
		}
		targets = refs
	}

	attached := []string{}
	for _, t := range targets {
		added, err := attachMedia(ctx, s.attachments, s.ids, t.ChannelID, t.MessageID, m)
		if err != nil {
			return nil, internalError("attaching media", err, "messageID", t.MessageID)
		}
		if !added {
			continue
		}
		attached = append(attached, t.MessageID)
		guildID := ""
		if t.GuildID != nil {
			guildID = *t.GuildID
		}
		invalidate(ctx, s.cache, guildID, t.ChannelID)
	}
	return attached, nil
}

// attachMedia adds m to a message as a proxied attachment unless the message
// already carries it.
func attachMedia(ctx context.Context, repo database.AttachmentRepository, ids *snowflake.Generator, channelID, messageID string, m *models.MediaURL) (bool, error) {
	proxyURL := m.URL
	name := m.FileName
	if name == "" {
		name = m.URL
	}
	return repo.AddProxied(ctx, channelID, &models.Attachment{
		FileID:      ids.NextID(),
		MessageID:   messageID,
		FileName:    name,
		FileSize:    m.FileSize,
		IsImageFile: m.IsImage,
		IsVideoFile: m.IsVideo,
		IsProxyFile: true,
		ProxyURL:    &proxyURL,
	})
}

const metadataWindow = 24 * time.Hour

// MetadataService accepts link metadata submitted by external crawlers.
type MetadataService struct {
	records     database.URLMetadataRepository
	enabled     bool
	domainLimit int
	now         func() time.Time
}

func NewMetadataService(records database.URLMetadataRepository, enabled bool, domainLimit int) *MetadataService {
	return &MetadataService{
		records:     records,
		enabled:     enabled,
		domainLimit: domainLimit,
		now:         time.Now,
	}
}

// Ingest stores one metadata record. Each (domain, routePath) is stored once
// and each domain may add domainLimit records per 24 hours.
func (s *MetadataService) Ingest(ctx context.Context, m *models.URLMetadata) (*models.URLMetadata, error) {
	if !s.enabled {
		return nil, Forbidden("INGEST_DISABLED", "metadata ingestion is disabled")
	}
	m.Domain = strings.ToLower(strings.TrimSpace(m.Domain))
	m.RoutePath = strings.TrimSpace(m.RoutePath)
	if m.Domain == "" {
		return nil, BadRequest("MISSING_DOMAIN", "domain is required")
	}
	if m.RoutePath == "" {
		m.RoutePath = "/"
	}

	exists, err := s.records.Exists(ctx, m.Domain, m.RoutePath)
	if err != nil {
		return nil, internalError("checking metadata", err, "domain", m.Domain)
	}
	if exists {
		return nil, Conflict("METADATA_EXISTS", "metadata for this route already exists")
	}

	count, err := s.records.CountDomainSince(ctx, m.Domain, s.now().Add(-metadataWindow))
	if err != nil {
		return nil, internalError("counting domain metadata", err, "domain", m.Domain)
	}
	if count >= s.domainLimit {
		slog.Info("metadata domain limit reached", "domain", m.Domain, "count", count)
		return nil, TooManyRequests("DOMAIN_LIMIT", "too many metadata submissions for this domain")
	}

	if err := s.records.Create(ctx, m); err != nil {
		return nil, internalError("saving metadata", err, "domain", m.Domain)
	}
	return m, nil
}
