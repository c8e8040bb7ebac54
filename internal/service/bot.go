package service

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

// BotMessage is a message mirrored by the bot bridge. The bridge owns the id
// and date, so re-sending a message updates it in place.
type BotMessage struct {
	MessageID         string
	UserID            string
	Content           *string
	Date              time.Time
	LastEdited        *time.Time
	AttachmentURLs    *string
	ReplyToID         *string
	ReactionEmojisIDs *string
	Embeds            []models.Embed
}

// UpsertBotMessage inserts the message or updates the stored copy. It reports
// whether a new row was inserted.
func (s *MessageService) UpsertBotMessage(ctx context.Context, guildID, channelID string, in BotMessage) (bool, error) {
	if err := validateBotMessage(in); err != nil {
		return false, err
	}
	if _, err := s.channelInGuild(ctx, guildID, channelID); err != nil {
		return false, err
	}

	existing, err := s.messages.GetByID(ctx, in.MessageID)
	if err != nil {
		return false, internalError("loading bot message", err, "messageID", in.MessageID)
	}
	inserted, err := s.applyBotMessage(ctx, guildID, channelID, in, existing)
	if err != nil {
		return false, err
	}
	invalidate(ctx, s.cache, guildID, channelID)
	return inserted, nil
}

// UpsertBotMessages applies a batch of bot messages to one channel.
func (s *MessageService) UpsertBotMessages(ctx context.Context, guildID, channelID string, batch []BotMessage) error {
	if len(batch) == 0 {
		return BadRequest("EMPTY_BATCH", "no messages provided")
	}
	ids := make([]string, 0, len(batch))
	for _, in := range batch {
		if err := validateBotMessage(in); err != nil {
			return err
		}
		ids = append(ids, in.MessageID)
	}
	if _, err := s.channelInGuild(ctx, guildID, channelID); err != nil {
		return err
	}

	existing, err := s.messages.GetExisting(ctx, ids)
	if err != nil {
		return internalError("loading bot messages", err, "channelID", channelID)
	}
	for _, in := range batch {
		if _, err := s.applyBotMessage(ctx, guildID, channelID, in, existing[in.MessageID]); err != nil {
			return err
		}
	}
	invalidate(ctx, s.cache, guildID, channelID)
	return nil
}

func (s *MessageService) applyBotMessage(ctx context.Context, guildID, channelID string, in BotMessage, existing *models.Message) (bool, error) {
	if existing != nil {
		if existing.ChannelID != channelID {
			return false, Conflict("MESSAGE_EXISTS", "message id belongs to another channel")
		}
		now := s.now().UTC()
		update := &models.Message{
			MessageID:         in.MessageID,
			ChannelID:         channelID,
			Content:           in.Content,
			LastEdited:        &now,
			ReplyToID:         in.ReplyToID,
			ReactionEmojisIDs: in.ReactionEmojisIDs,
		}
		if in.AttachmentURLs != nil {
			update.Attachments = s.attachmentsFromURLs(in.MessageID, *in.AttachmentURLs)
		}
		replaceEmbeds := len(in.Embeds) > 0
		if replaceEmbeds {
			update.Embeds = normalizeEmbeds(in.Embeds)
		}
		if err := s.messages.UpdateBotMessage(ctx, update, replaceEmbeds); err != nil {
			return false, internalError("updating bot message", err, "messageID", in.MessageID)
		}
		s.enqueueBot(guildID, channelID, in)
		return false, nil
	}

	if err := s.users.EnsurePlaceholder(ctx, in.UserID); err != nil {
		return false, internalError("provisioning bot author", err, "userID", in.UserID)
	}
	msg := &models.Message{
		MessageID:         in.MessageID,
		UserID:            in.UserID,
		ChannelID:         channelID,
		Content:           in.Content,
		Date:              in.Date.UTC(),
		LastEdited:        in.LastEdited,
		ReplyToID:         in.ReplyToID,
		ReactionEmojisIDs: in.ReactionEmojisIDs,
		Embeds:            normalizeEmbeds(in.Embeds),
		Attachments:       []models.Attachment{},
	}
	if msg.Date.IsZero() {
		msg.Date = s.now().UTC()
	}
	if in.AttachmentURLs != nil {
		msg.Attachments = s.attachmentsFromURLs(in.MessageID, *in.AttachmentURLs)
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return false, internalError("inserting bot message", err, "messageID", in.MessageID)
	}
	s.enqueueBot(guildID, channelID, in)
	return true, nil
}

func (s *MessageService) enqueueBot(guildID, channelID string, in BotMessage) {
	if s.enricher == nil || normalizeContent(in.Content) == nil {
		return
	}
	s.enricher.Enqueue(EnrichJob{
		MessageID: in.MessageID,
		ChannelID: channelID,
		GuildID:   guildID,
		UserID:    in.UserID,
		Content:   *in.Content,
	})
}

// attachmentsFromURLs turns the bridge's comma separated media list into
// proxied attachments.
func (s *MessageService) attachmentsFromURLs(messageID, raw string) []models.Attachment {
	attachments := []models.Attachment{}
	for _, part := range strings.Split(raw, ",") {
		u := strings.TrimSpace(part)
		if u == "" {
			continue
		}
		name := u
		if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
			name = path.Base(parsed.Path)
		}
		isImage, isVideo := classifyFile(name, "")
		proxyURL := u
		attachments = append(attachments, models.Attachment{
			FileID:      s.ids.NextID(),
			MessageID:   messageID,
			FileName:    name,
			IsImageFile: isImage,
			IsVideoFile: isVideo,
			IsProxyFile: true,
			ProxyURL:    &proxyURL,
		})
	}
	return attachments
}

func normalizeEmbeds(embeds []models.Embed) []models.Embed {
	out := make([]models.Embed, len(embeds))
	for i := range embeds {
		out[i] = embeds[i]
		out[i].Normalize(uuid.NewString)
	}
	return out
}

func validateBotMessage(in BotMessage) error {
	if !snowflake.ValidID(in.MessageID) {
		return BadRequest("INVALID_ID", "messageId should be 19 characters long")
	}
	if in.UserID == "" {
		return BadRequest("MISSING_USER", "userId is required")
	}
	return validateContent(in.Content)
}
