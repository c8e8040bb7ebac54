package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/liventcord/LiventCord-sub002/internal/gateway"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/permissions"
)

const pinNotificationType = "pin_notification"

// PinMessage pins a message and posts the system notification announcing it.
// It returns nil without error when the message is already pinned.
func (s *MessageService) PinMessage(ctx context.Context, actorID, guildID, channelID, messageID string) (*models.Message, error) {
	if _, err := s.guildChannel(ctx, guildID, channelID, actorID, permissions.PermManageMessages); err != nil {
		return nil, err
	}
	if _, err := s.messageInChannel(ctx, channelID, messageID); err != nil {
		return nil, err
	}

	pinned, err := s.pins.IsPinned(ctx, channelID, messageID)
	if err != nil {
		return nil, internalError("checking pin", err, "messageID", messageID)
	}
	if pinned {
		return nil, nil
	}

	now := s.now().UTC()
	marker := uuid.NewString()
	notification := &models.Message{
		MessageID:       s.ids.NextID(),
		UserID:          models.SystemUserID,
		ChannelID:       channelID,
		Content:         &marker,
		Date:            now,
		IsSystemMessage: true,
		Metadata: &models.Metadata{
			Type:         pinNotificationType,
			PinnerUserID: actorID,
			PinnedAt:     &now,
		},
		Embeds:      []models.Embed{},
		Attachments: []models.Attachment{},
	}
	pin := &models.ChannelPinnedMessage{
		ChannelID:      channelID,
		MessageID:      messageID,
		PinnedByUserID: actorID,
		PinnedAt:       now,
	}

	created, err := s.pins.PinWithNotification(ctx, pin, notification)
	if err != nil {
		return nil, internalError("pinning message", err, "messageID", messageID)
	}
	if !created {
		return nil, nil
	}

	invalidate(ctx, s.cache, guildID, channelID)
	if s.events != nil {
		s.events.ToGuild(ctx, guildID, "", gateway.EventSendMessageGuild, gateway.GuildMessageCreate{
			GuildID:   guildID,
			ChannelID: channelID,
			UserID:    models.SystemUserID,
			Messages:  []models.Message{*notification},
		})
	}
	return notification, nil
}

// UnpinMessage removes a pin. A message that is not pinned is a 404.
func (s *MessageService) UnpinMessage(ctx context.Context, actorID, guildID, channelID, messageID string) error {
	if _, err := s.guildChannel(ctx, guildID, channelID, actorID, permissions.PermManageMessages); err != nil {
		return err
	}

	removed, err := s.pins.Unpin(ctx, channelID, messageID)
	if err != nil {
		return internalError("unpinning message", err, "messageID", messageID)
	}
	if !removed {
		return NotFound("NOT_PINNED", "message is not pinned")
	}
	invalidate(ctx, s.cache, guildID, channelID)
	return nil
}

// GetPinnedMessages lists a channel's pinned messages, most recently pinned
// first.
func (s *MessageService) GetPinnedMessages(ctx context.Context, userID, guildID, channelID string) ([]models.Message, error) {
	if _, err := s.guildChannel(ctx, guildID, channelID, userID, permissions.PermReadMessages); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListPinned(ctx, channelID)
	if err != nil {
		return nil, internalError("listing pins", err, "channelID", channelID)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
