package models

type Role struct {
	RoleID      string `json:"roleId"`
	GuildID     string `json:"guildId"`
	Name        string `json:"name"`
	Permissions int64  `json:"permissions,string"`
	IsDefault   bool   `json:"isDefault"`
}
