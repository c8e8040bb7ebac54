package metadata

import (
	"context"

	"github.com/liventcord/LiventCord-sub002/internal/models"
)

// Result is what a Fetcher learned about one URL. Either field may be nil.
type Result struct {
	MediaURL *models.MediaURL `json:"mediaUrl"`
	Metadata *models.Metadata `json:"metadata"`
}

// Fetcher resolves link metadata for a batch of URLs. Implementations return
// an empty result rather than an error when the upstream declines.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) ([]Result, error)
}
