package service

import (
	"context"
	"strings"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/models"
	"github.com/liventcord/LiventCord-sub002/internal/snowflake"
)

const (
	defaultSearchPageSize = 50
	maxSearchPageSize     = 500
)

// SearchService handles guild and DM message search.
type SearchService struct {
	messages database.MessageRepository
	perms    *PermissionChecker
}

func NewSearchService(messages database.MessageRepository, perms *PermissionChecker) *SearchService {
	return &SearchService{messages: messages, perms: perms}
}

// GuildSearch narrows a guild search. Reverse returns the oldest matches
// first.
type GuildSearch struct {
	Query      string
	ChannelID  string
	FromUserID string
	Before     *time.Time
	During     *time.Time
	After      *time.Time
	Page       int
	PageSize   int
	Reverse    bool
}

// SearchGuild returns one page of matching guild messages and the total
// number of matches.
func (s *SearchService) SearchGuild(ctx context.Context, userID, guildID string, in GuildSearch) ([]models.Message, int, error) {
	if err := s.perms.RequireMember(ctx, guildID, userID); err != nil {
		return nil, 0, err
	}

	page := max(in.Page, 1)
	size := in.PageSize
	if size <= 0 {
		size = defaultSearchPageSize
	}
	size = min(size, maxSearchPageSize)

	msgs, total, err := s.messages.Search(ctx, models.MessageSearch{
		GuildID:    guildID,
		ChannelID:  in.ChannelID,
		Query:      strings.TrimSpace(in.Query),
		FromUserID: in.FromUserID,
		Before:     in.Before,
		During:     in.During,
		After:      in.After,
		Ascending:  in.Reverse,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	if err != nil {
		return nil, 0, internalError("searching guild messages", err, "guildID", guildID)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, total, nil
}

// SearchDM searches the conversation between userID and peerID. A blank query
// is a 400 and no match is a 404.
func (s *SearchService) SearchDM(ctx context.Context, userID, peerID, query, fromUserID string) ([]models.Message, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, BadRequest("EMPTY_QUERY", "query is required")
	}
	if err := s.perms.RequireDM(ctx, userID, peerID); err != nil {
		return nil, 0, err
	}

	msgs, total, err := s.messages.Search(ctx, models.MessageSearch{
		ChannelID:  snowflake.DMChannelID(userID, peerID),
		Query:      query,
		FromUserID: fromUserID,
		Limit:      defaultSearchPageSize,
	})
	if err != nil {
		return nil, 0, internalError("searching dm messages", err, "userID", userID)
	}
	if total == 0 {
		return nil, 0, NotFound("NO_RESULTS", "no messages found")
	}
	return msgs, total, nil
}
