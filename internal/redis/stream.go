package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	// EventStream is the stream every broadcast envelope is appended to.
	EventStream      = "event_stream"
	eventStreamLen   = 10000
	eventDataField   = "data"
	eventOriginField = "origin"
)

// StreamEvent is one envelope read back from the event stream.
type StreamEvent struct {
	ID     string
	Origin string
	Data   []byte
}

// AppendEvent adds an envelope to the event stream, trimming it to roughly
// the most recent entries.
func (c *Client) AppendEvent(ctx context.Context, origin string, data []byte) error {
	err := c.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: EventStream,
		MaxLen: eventStreamLen,
		Approx: true,
		Values: map[string]any{eventOriginField: origin, eventDataField: data},
	}).Err()
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// ReadEvents returns envelopes appended after lastID, waiting up to block for
// new entries (a negative block returns immediately). A timeout with nothing
// to read returns an empty slice.
func (c *Client) ReadEvents(ctx context.Context, lastID string, count int64, block time.Duration) ([]StreamEvent, error) {
	streams, err := c.rdb.XRead(ctx, &goredis.XReadArgs{
		Streams: []string{EventStream, lastID},
		Count:   count,
		Block:   block,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var events []StreamEvent
	for _, s := range streams {
		for _, msg := range s.Messages {
			ev := StreamEvent{ID: msg.ID}
			if v, ok := msg.Values[eventOriginField].(string); ok {
				ev.Origin = v
			}
			if v, ok := msg.Values[eventDataField].(string); ok {
				ev.Data = []byte(v)
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// LatestEventID returns the id of the newest stream entry, or "0" when the
// stream is empty.
func (c *Client) LatestEventID(ctx context.Context) (string, error) {
	msgs, err := c.rdb.XRevRangeN(ctx, EventStream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("reading latest event: %w", err)
	}
	if len(msgs) == 0 {
		return "0", nil
	}
	return msgs[0].ID, nil
}
