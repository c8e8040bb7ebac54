package models

import "time"

// MessageURL records the URLs extracted from one message's content.
type MessageURL struct {
	MessageID string    `json:"messageId"`
	ChannelID string    `json:"channelId"`
	GuildID   *string   `json:"guildId"`
	UserID    string    `json:"userId"`
	URLs      []string  `json:"urls"`
	CreatedAt time.Time `json:"createdAt"`
}

// MediaURL is media discovered at a URL, shared by every message linking it.
type MediaURL struct {
	URL      string `json:"url"`
	IsImage  bool   `json:"isImage"`
	IsVideo  bool   `json:"isVideo"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
}

// URLMetadata is link metadata submitted from outside the message pipeline.
type URLMetadata struct {
	ID          int64     `json:"id"`
	Domain      string    `json:"domain"`
	RoutePath   string    `json:"routePath"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SiteName    string    `json:"siteName"`
	Image       string    `json:"image"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Keywords    string    `json:"keywords"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
}
