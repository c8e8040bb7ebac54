package models

import "time"

type Member struct {
	GuildID  string    `json:"guildId"`
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}
