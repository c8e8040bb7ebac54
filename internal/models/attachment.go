package models

import "time"

// Attachment is a file attached to a message. Uploaded files are stored in the
// blob store under FileID; proxied files point at externally hosted media.
type Attachment struct {
	FileID      string  `json:"fileId"`
	MessageID   string  `json:"messageId"`
	FileName    string  `json:"fileName"`
	FileSize    int64   `json:"fileSize"`
	IsImageFile bool    `json:"isImageFile"`
	IsVideoFile bool    `json:"isVideoFile"`
	IsSpoiler   bool    `json:"isSpoiler"`
	IsProxyFile bool    `json:"isProxyFile"`
	ProxyURL    *string `json:"proxyUrl,omitempty"`
}

// AttachmentListing is one row of a channel's media gallery.
type AttachmentListing struct {
	Attachment Attachment `json:"attachment"`
	UserID     string     `json:"userId"`
	Content    *string    `json:"content"`
	Date       time.Time  `json:"date"`
}
