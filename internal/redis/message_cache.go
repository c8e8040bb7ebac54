package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	messageCachePrefix = "msgcache:"
	channelIndexPrefix = "msgcache:idx:"
	guildIndexPrefix   = "msgcache:gidx:"
	defaultCacheTTL    = 10 * time.Minute
)

// MessageCacheKey builds the cache key of one message page. The channel
// version is part of the key, so bumping it orphans older pages.
func MessageCacheKey(guildID, channelID string, version int, before *time.Time, messageID string) string {
	date := ""
	if before != nil {
		date = before.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s%s:%s:v%d?date=%s&messageId=%s", messageCachePrefix, guildID, channelID, version, date, messageID)
}

// GetMessagePage returns the serialized page stored under key.
func (c *Client) GetMessagePage(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting message page: %w", err)
	}
	return data, true, nil
}

// SetMessagePage stores a serialized page and indexes its key under the
// channel (and the channel under the guild) for invalidation.
func (c *Client) SetMessagePage(ctx context.Context, guildID, channelID, key string, data []byte) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.cacheTTL)
		idx := channelIndexPrefix + channelID
		pipe.SAdd(ctx, idx, key)
		pipe.Expire(ctx, idx, c.cacheTTL)
		if guildID != "" {
			gidx := guildIndexPrefix + guildID
			pipe.SAdd(ctx, gidx, channelID)
			pipe.Expire(ctx, gidx, c.cacheTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setting message page: %w", err)
	}
	return nil
}

// InvalidateMessagePages deletes every cached page of the channel. With an
// empty channel id it deletes the pages of every indexed channel of the guild.
func (c *Client) InvalidateMessagePages(ctx context.Context, guildID, channelID string) error {
	channels := []string{channelID}
	if channelID == "" {
		if guildID == "" {
			return nil
		}
		ids, err := c.rdb.SMembers(ctx, guildIndexPrefix+guildID).Result()
		if err != nil {
			return fmt.Errorf("reading guild cache index: %w", err)
		}
		channels = ids
	}

	for _, ch := range channels {
		idx := channelIndexPrefix + ch
		keys, err := c.rdb.SMembers(ctx, idx).Result()
		if err != nil {
			return fmt.Errorf("reading channel cache index: %w", err)
		}
		keys = append(keys, idx)
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("deleting cached pages: %w", err)
		}
	}

	if channelID == "" {
		return c.rdb.Del(ctx, guildIndexPrefix+guildID).Err()
	}
	return nil
}
