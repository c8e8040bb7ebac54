package service

import (
	"context"
	"strings"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

// ReadStateService tracks per-channel read markers and unread counts.
type ReadStateService struct {
	readStates database.ReadStateRepository
	channels   database.ChannelRepository
	perms      *PermissionChecker
}

func NewReadStateService(readStates database.ReadStateRepository, channels database.ChannelRepository, perms *PermissionChecker) *ReadStateService {
	return &ReadStateService{readStates: readStates, channels: channels, perms: perms}
}

// MarkChannelRead moves the user's marker to the newest message of the
// channel. An empty channel returns nil and writes nothing.
func (s *ReadStateService) MarkChannelRead(ctx context.Context, userID, channelID string) (*time.Time, error) {
	if err := s.requireChannelAccess(ctx, userID, channelID); err != nil {
		return nil, err
	}

	latest, err := s.readStates.LatestMessageDate(ctx, channelID)
	if err != nil {
		return nil, internalError("loading latest message date", err, "channelID", channelID)
	}
	if latest == nil {
		return nil, nil
	}
	if err := s.readStates.Upsert(ctx, userID, channelID, *latest); err != nil {
		return nil, internalError("saving read state", err, "channelID", channelID)
	}
	return latest, nil
}

// MarkGuildRead marks every non-empty channel of the guild read in one batch.
func (s *ReadStateService) MarkGuildRead(ctx context.Context, userID, guildID string) ([]models.ReadState, error) {
	if err := s.perms.RequireMember(ctx, guildID, userID); err != nil {
		return nil, err
	}

	states, err := s.readStates.LatestMessageDatesByGuild(ctx, guildID)
	if err != nil {
		return nil, internalError("loading latest message dates", err, "guildID", guildID)
	}
	if len(states) == 0 {
		return []models.ReadState{}, nil
	}
	for i := range states {
		states[i].UserID = userID
	}
	if err := s.readStates.UpsertMany(ctx, userID, states); err != nil {
		return nil, internalError("saving read states", err, "guildID", guildID)
	}
	return states, nil
}

// GetReadState returns the user's marker for a channel, nil when never read.
func (s *ReadStateService) GetReadState(ctx context.Context, userID, channelID string) (*time.Time, error) {
	if err := s.requireChannelAccess(ctx, userID, channelID); err != nil {
		return nil, err
	}
	state, err := s.readStates.Get(ctx, userID, channelID)
	if err != nil {
		return nil, internalError("loading read state", err, "channelID", channelID)
	}
	if state == nil {
		return nil, nil
	}
	return &state.LastRead, nil
}

// GetUnreadCount counts messages by other users newer than the marker.
func (s *ReadStateService) GetUnreadCount(ctx context.Context, userID, channelID string) (int, error) {
	if err := s.requireChannelAccess(ctx, userID, channelID); err != nil {
		return 0, err
	}
	count, err := s.readStates.CountUnread(ctx, userID, channelID)
	if err != nil {
		return 0, internalError("counting unread messages", err, "channelID", channelID)
	}
	return count, nil
}

// GetGuildUnreadCounts returns the unread count of every channel in a guild.
func (s *ReadStateService) GetGuildUnreadCounts(ctx context.Context, userID, guildID string) ([]models.UnreadCount, error) {
	if err := s.perms.RequireMember(ctx, guildID, userID); err != nil {
		return nil, err
	}
	counts, err := s.readStates.GuildUnreadCounts(ctx, userID, guildID)
	if err != nil {
		return nil, internalError("counting guild unread messages", err, "guildID", guildID)
	}
	if counts == nil {
		counts = []models.UnreadCount{}
	}
	return counts, nil
}

// requireChannelAccess allows guild members into guild channels and the two
// participants into a DM channel.
func (s *ReadStateService) requireChannelAccess(ctx context.Context, userID, channelID string) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return internalError("loading channel", err, "channelID", channelID)
	}
	if channel == nil {
		return NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	if channel.GuildID != nil {
		return s.perms.RequireMember(ctx, *channel.GuildID, userID)
	}
	for _, participant := range strings.Split(channel.ChannelID, "_") {
		if participant == userID {
			return nil
		}
	}
	return NotFound("UNKNOWN_CHANNEL", "channel not found")
}
