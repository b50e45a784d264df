package processor

import (
	"context"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

// DealStore abstracts the deal persistence layer.
type DealStore interface {
	FindDealByMessage(ctx context.Context, channelID string, messageID int64) (*models.Deal, error)
	InsertDeal(ctx context.Context, deal *models.Deal) (string, error)
}

// CheckpointStore abstracts per-channel progress persistence.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, channelID string) (*models.Checkpoint, error)
	SetCheckpoint(ctx context.Context, channelID string, lastMessageID int64) error
}

// PageFetcher fetches a deal page and extracts candidates from it, returning
// the candidates and the final post-redirect URL.
type PageFetcher interface {
	Scrape(ctx context.Context, rawURL string) (models.Candidates, string, error)
}

// Analyzer extracts deal candidates from free-form message text, optionally
// with the message's attached photo.
type Analyzer interface {
	ExtractDeal(ctx context.Context, messageText string, image []byte, imageMIME string) (models.Candidates, error)
}

// MediaStore moves attached message media into a public object store.
type MediaStore interface {
	// Fetch downloads the media bytes behind a transport-specific ref.
	Fetch(ctx context.Context, mediaRef string) (data []byte, mimeType string, err error)
	// Upload stores media publicly and returns its URL.
	Upload(ctx context.Context, channelID string, messageID int64, data []byte, mimeType string) (string, error)
}

// Notifier announces newly persisted deals. Failures must be non-fatal.
type Notifier interface {
	NotifyNewDeal(ctx context.Context, deal *models.Deal) error
}
