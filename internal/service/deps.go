package service

import (
	"context"
	"io"
	"log/slog"
)

// MessageCache stores serialized message pages. It is satisfied by
// *redis.Client.
type MessageCache interface {
	GetMessagePage(ctx context.Context, key string) ([]byte, bool, error)
	SetMessagePage(ctx context.Context, guildID, channelID, key string, data []byte) error
	InvalidateMessagePages(ctx context.Context, guildID, channelID string) error
}

// FileStorage is the blob store for uploaded attachments. It is satisfied by
// *storage.MinIOClient.
type FileStorage interface {
	Upload(ctx context.Context, fileID string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, fileID string) error
}

// EventPublisher broadcasts events to connected clients. It is satisfied by
// *gateway.Broadcaster.
type EventPublisher interface {
	ToGuild(ctx context.Context, guildID, excludeUserID, event string, payload any)
	ToUsers(ctx context.Context, channelID string, userIDs []string, event string, payload any)
}

// Enqueuer accepts background enrichment jobs without blocking.
type Enqueuer interface {
	Enqueue(job EnrichJob) bool
}

// invalidate drops cached pages for a channel. Failures only log; the version
// bump already keeps stale pages from matching.
func invalidate(ctx context.Context, cache MessageCache, guildID, channelID string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateMessagePages(ctx, guildID, channelID); err != nil {
		slog.Warn("invalidating message cache", "guildID", guildID, "channelID", channelID, "error", err)
	}
}
