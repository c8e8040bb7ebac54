package models

import "time"

// User is the minimal user record the message store references. Placeholder
// users are created for unseen authors so foreign keys hold.
type User struct {
	UserID        string    `json:"userId"`
	Nickname      string    `json:"nickname"`
	IsPlaceholder bool      `json:"isPlaceholder"`
	CreatedAt     time.Time `json:"createdAt"`
}
