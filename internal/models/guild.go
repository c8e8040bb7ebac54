package models

import "time"

type Guild struct {
	GuildID   string    `json:"guildId"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
