package models

import "time"

type ChannelPinnedMessage struct {
	ChannelID      string    `json:"channelId"`
	MessageID      string    `json:"messageId"`
	PinnedByUserID string    `json:"pinnedByUserId"`
	PinnedAt       time.Time `json:"pinnedAt"`
}
