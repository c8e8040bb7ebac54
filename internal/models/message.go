package models

import "time"

// SystemUserID authors system-generated messages such as pin notifications.
const SystemUserID = "1"

// Message is a chat message in a guild channel or DM channel.
// IsPinned is derived from channel_pinned_messages and never stored on the row.
type Message struct {
	MessageID         string       `json:"messageId"`
	UserID            string       `json:"userId"`
	ChannelID         string       `json:"channelId"`
	Content           *string      `json:"content"`
	Date              time.Time    `json:"date"`
	LastEdited        *time.Time   `json:"lastEdited"`
	ReplyToID         *string      `json:"replyToId"`
	ReactionEmojisIDs *string      `json:"reactionEmojisIds"`
	Metadata          *Metadata    `json:"metadata"`
	IsSystemMessage   bool         `json:"isSystemMessage"`
	TemporaryID       *string      `json:"temporaryId,omitempty"`
	Embeds            []Embed      `json:"embeds"`
	Attachments       []Attachment `json:"attachments"`
	IsPinned          bool         `json:"isPinned"`
}

// HasContent reports whether the message carries non-empty text.
func (m *Message) HasContent() bool {
	return m.Content != nil && *m.Content != ""
}

// Metadata holds link-preview fields, or pin-notification fields for system messages.
type Metadata struct {
	Type         string     `json:"type,omitempty"`
	PinnerUserID string     `json:"pinnerUserId,omitempty"`
	PinnedAt     *time.Time `json:"pinnedAt,omitempty"`
	Title        string     `json:"title,omitempty"`
	Description  string     `json:"description,omitempty"`
	SiteName     string     `json:"siteName,omitempty"`
	Image        string     `json:"image,omitempty"`
	URL          string     `json:"url,omitempty"`
	Keywords     string     `json:"keywords,omitempty"`
	Author       string     `json:"author,omitempty"`
}

func (m *Metadata) IsEmpty() bool {
	return m == nil || (m.Type == "" && m.PinnerUserID == "" && m.PinnedAt == nil &&
		m.Title == "" && m.Description == "" && m.SiteName == "" && m.Image == "" &&
		m.URL == "" && m.Keywords == "" && m.Author == "")
}

// MessagePageQuery selects one page of channel history.
type MessagePageQuery struct {
	ChannelID string
	GuildID   string     // optional guild constraint
	MessageID string     // optional exact-id constraint
	Before    *time.Time // strictly older than
	Limit     int
}

// MessageSearch filters a guild or DM search.
type MessageSearch struct {
	GuildID    string
	ChannelID  string
	Query      string
	FromUserID string
	Before     *time.Time
	During     *time.Time
	After      *time.Time
	Ascending  bool
	Limit      int
	Offset     int
}
