package gateway

import (
	"encoding/json"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/models"
)

// Op codes for gateway payloads.
const (
	OpDispatch     = 0
	OpHeartbeat    = 1
	OpIdentify     = 2
	OpResume       = 6
	OpReconnect    = 7
	OpHello        = 10
	OpHeartbeatAck = 11
)

// Event names for DISPATCH payloads.
const (
	EventReady              = "READY"
	EventSendMessageGuild   = "SEND_MESSAGE_GUILD"
	EventSendMessageDM      = "SEND_MESSAGE_DM"
	EventEditMessageGuild   = "EDIT_MESSAGE_GUILD"
	EventEditMessageDM      = "EDIT_MESSAGE_DM"
	EventDeleteMessageGuild = "DELETE_MESSAGE_GUILD"
	EventDeleteMessageDM    = "DELETE_MESSAGE_DM"
)

// GatewayPayload is the envelope for all gateway messages.
type GatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Event    *string         `json:"t,omitempty"`
}

// IdentifyData is sent by the client in an Op 2 IDENTIFY.
type IdentifyData struct {
	Token string `json:"token"`
}

// ResumeData is sent by the client in an Op 6 RESUME.
type ResumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	Sequence  int64  `json:"seq"`
}

// HelloData is sent by the server after WebSocket connect.
type HelloData struct {
	HeartbeatInterval int `json:"heartbeatInterval"`
}

// ReadyData is sent by the server after successful IDENTIFY.
type ReadyData struct {
	SessionID string   `json:"sessionId"`
	UserID    string   `json:"userId"`
	Guilds    []string `json:"guilds"`
}

// Event is a dispatch event ready to broadcast.
type Event struct {
	Name string
	Data any
}

// Envelope is a broadcast as it travels between gateway instances. Guild
// envelopes carry GuildID, DM envelopes carry ChannelID and UserIDs.
type Envelope struct {
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	GuildID       string          `json:"guildId,omitempty"`
	ChannelID     string          `json:"channelId,omitempty"`
	UserIDs       []string        `json:"userIds,omitempty"`
	ExcludeUserID string          `json:"excludeUserId,omitempty"`
}

// GuildMessageCreate is the payload of SEND_MESSAGE_GUILD.
type GuildMessageCreate struct {
	GuildID   string           `json:"guildId"`
	ChannelID string           `json:"channelId"`
	UserID    string           `json:"userId"`
	Messages  []models.Message `json:"messages"`
}

// DMMessageCreate is the payload of SEND_MESSAGE_DM. ChannelID is the
// author's id, which is how the recipient names the conversation.
type DMMessageCreate struct {
	Message   models.Message `json:"message"`
	ChannelID string         `json:"channelId"`
}

// MessageEdit is the payload of EDIT_MESSAGE_GUILD and EDIT_MESSAGE_DM.
type MessageEdit struct {
	IsDM      bool   `json:"isDm"`
	GuildID   string `json:"guildId,omitempty"`
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type GuildMessageDelete struct {
	GuildID   string `json:"guildId"`
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
}

// DMMessageDelete carries the original message date so clients can find it.
type DMMessageDelete struct {
	ChannelID string    `json:"channelId"`
	UserID    string    `json:"userId"`
	MessageID string    `json:"messageId"`
	Date      time.Time `json:"date"`
}
