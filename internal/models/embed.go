package models

type EmbedType string

const (
	EmbedArticle    EmbedType = "Article"
	EmbedGIFV       EmbedType = "GIFV"
	EmbedImage      EmbedType = "Image"
	EmbedLink       EmbedType = "Link"
	EmbedPollResult EmbedType = "PollResult"
	EmbedRich       EmbedType = "Rich"
	EmbedVideo      EmbedType = "Video"
)

// DefaultEmbedColor is applied when an embed arrives without a color.
const DefaultEmbedColor = 0x808080

// Embed is a rich content card owned by a message. It has no identity outside
// its message and is replaced wholesale on update.
type Embed struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Type        EmbedType    `json:"type"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
	Image       *EmbedMedia  `json:"image,omitempty"`
	Video       *EmbedMedia  `json:"video,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EmbedMedia describes a thumbnail, image or video of an embed.
type EmbedMedia struct {
	URL      string `json:"url"`
	ProxyURL string `json:"proxyUrl,omitempty"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"iconUrl,omitempty"`
}

// Normalize fills the defaults for a stored embed.
func (e *Embed) Normalize(newID func() string) {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Type == "" {
		e.Type = EmbedRich
	}
	if e.Color == 0 {
		e.Color = DefaultEmbedColor
	}
	if e.Fields == nil {
		e.Fields = []EmbedField{}
	}
}
