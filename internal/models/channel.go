package models

// Channel is a message stream. GuildID is nil for DM channels.
// Version is bumped on every edit or delete so cached pages stop matching.
type Channel struct {
	ChannelID string  `json:"channelId"`
	GuildID   *string `json:"guildId"`
	Name      string  `json:"name"`
	IsDM      bool    `json:"isDm"`
	Version   int     `json:"version"`
}

// InGuild reports whether the channel belongs to the given guild.
func (c *Channel) InGuild(guildID string) bool {
	return c.GuildID != nil && *c.GuildID == guildID
}
