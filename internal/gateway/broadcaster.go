package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/liventcord/LiventCord-sub002/internal/redis"
)

const (
	streamReadCount = 100
	streamReadBlock = 2 * time.Second
	streamRetryWait = time.Second
)

// EventStream mirrors envelopes between gateway instances.
type EventStream interface {
	AppendEvent(ctx context.Context, origin string, data []byte) error
	ReadEvents(ctx context.Context, lastID string, count int64, block time.Duration) ([]redis.StreamEvent, error)
	LatestEventID(ctx context.Context) (string, error)
}

// Broadcaster publishes envelopes to local connections and mirrors them to
// the event stream so other instances can deliver them to their clients.
type Broadcaster struct {
	local  Dispatcher
	stream EventStream
	origin string
}

// NewBroadcaster creates a Broadcaster. stream may be nil for a single
// instance deployment.
func NewBroadcaster(local Dispatcher, stream EventStream) *Broadcaster {
	return &Broadcaster{
		local:  local,
		stream: stream,
		origin: uuid.NewString(),
	}
}

// ToGuild sends an event to every member of a guild except excludeUserID.
func (b *Broadcaster) ToGuild(ctx context.Context, guildID, excludeUserID, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshalling broadcast payload", "event", event, "error", err)
		return
	}
	b.Publish(ctx, Envelope{Type: event, Payload: raw, GuildID: guildID, ExcludeUserID: excludeUserID})
}

// ToUsers sends a DM event to the given users.
func (b *Broadcaster) ToUsers(ctx context.Context, channelID string, userIDs []string, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshalling broadcast payload", "event", event, "error", err)
		return
	}
	b.Publish(ctx, Envelope{Type: event, Payload: raw, ChannelID: channelID, UserIDs: userIDs})
}

// Publish delivers env locally and appends it to the stream. Stream failures
// are logged only.
func (b *Broadcaster) Publish(ctx context.Context, env Envelope) {
	b.deliver(env)
	if b.stream == nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("marshalling envelope", "type", env.Type, "error", err)
		return
	}
	if err := b.stream.AppendEvent(context.WithoutCancel(ctx), b.origin, data); err != nil {
		slog.Warn("mirroring event to stream failed", "type", env.Type, "error", err)
	}
}

func (b *Broadcaster) deliver(env Envelope) {
	switch {
	case env.GuildID != "":
		b.local.DispatchToGuildExcept(env.GuildID, env.ExcludeUserID, env.Type, env.Payload)
	default:
		for _, userID := range env.UserIDs {
			if userID == env.ExcludeUserID {
				continue
			}
			b.local.DispatchToUser(userID, env.Type, env.Payload)
		}
	}
}

// Run consumes envelopes published by other instances until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.stream == nil {
		<-ctx.Done()
		return nil
	}

	lastID, err := b.stream.LatestEventID(ctx)
	if err != nil {
		slog.Warn("reading event stream position failed, starting from now", "error", err)
		lastID = "$"
	}

	for {
		events, err := b.stream.ReadEvents(ctx, lastID, streamReadCount, streamReadBlock)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Warn("reading event stream failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(streamRetryWait):
			}
			continue
		}

		for _, ev := range events {
			lastID = ev.ID
			if ev.Origin == b.origin {
				continue
			}
			var env Envelope
			if err := json.Unmarshal(ev.Data, &env); err != nil {
				slog.Warn("skipping malformed stream envelope", "id", ev.ID, "error", err)
				continue
			}
			b.deliver(env)
		}
	}
}
