package models

import "time"

// ReadState is a user's read marker for one channel.
type ReadState struct {
	UserID    string    `json:"userId"`
	ChannelID string    `json:"channelId"`
	LastRead  time.Time `json:"lastRead"`
}

type UnreadCount struct {
	ChannelID string `json:"channelId"`
	Count     int    `json:"count"`
}
