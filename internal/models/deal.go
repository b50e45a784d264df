package models

import (
	"errors"
	"time"
)

// ErrDealExists is returned when a deal for the same (channel, message id)
// pair has already been persisted.
var ErrDealExists = errors.New("deal already exists")

// IncomingMessage is one raw message event delivered by the transport layer.
// Message ids are monotonic per channel.
type IncomingMessage struct {
	ChannelID  string
	MessageID  int64
	Text       string
	MediaRef   string // opaque handle for attached media, empty if none
	ButtonURLs []string
	EntityURLs []string
	ReceivedAt time.Time
}

// CandidateSource identifies which extractor proposed a value.
type CandidateSource string

const (
	SourcePage CandidateSource = "page"
	SourceText CandidateSource = "text"
	SourceAI   CandidateSource = "ai"
)

// Candidates holds one extractor's proposed field values for a single message.
// Zero values mean "no candidate for that field".
type Candidates struct {
	Source        CandidateSource
	Title         string
	Price         float64
	OriginalPrice float64
	Store         string
	Category      string
	ImageURL      string
}

// Empty reports whether the extractor produced nothing usable.
func (c Candidates) Empty() bool {
	return c.Title == "" && c.Price == 0 && c.OriginalPrice == 0 &&
		c.Store == "" && c.Category == "" && c.ImageURL == ""
}

// Deal is the single reconciled record produced for one source message.
type Deal struct {
	Title         string   `firestore:"title" json:"title" validate:"required,max=100"`
	Price         float64  `firestore:"price" json:"price" validate:"gte=0"`
	OriginalPrice float64  `firestore:"originalPrice" json:"originalPrice" validate:"gte=0"`
	DiscountRate  int      `firestore:"discountRate" json:"discountRate" validate:"gte=0,lte=100"`
	Store         string   `firestore:"store" json:"store" validate:"required"`
	Category      Category `firestore:"category" json:"category" validate:"required"`
	Link          string   `firestore:"link" json:"link" validate:"required,url"`
	ImageURL      string   `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty" validate:"omitempty,url"`
	Description   string   `firestore:"description,omitempty" json:"description,omitempty"`

	// Bookkeeping fixed at creation time.
	HotVotes     int       `firestore:"hotVotes" json:"hotVotes"`
	ColdVotes    int       `firestore:"coldVotes" json:"coldVotes"`
	CommentCount int       `firestore:"commentCount" json:"commentCount"`
	PostedBy     string    `firestore:"postedBy" json:"postedBy"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	IsEditorPick bool      `firestore:"isEditorPick" json:"isEditorPick"`
	IsApproved   bool      `firestore:"isApproved" json:"isApproved"`
	IsExpired    bool      `firestore:"isExpired" json:"isExpired"`
	Source       string    `firestore:"source" json:"source"`

	// Dedup key. The Firestore document id is independently generated, so the
	// (channel, message id) pair is enforced by the persistence gate, not the
	// key space.
	SourceChannel   string `firestore:"telegramChatUsername" json:"telegramChatUsername" validate:"required"`
	SourceMessageID int64  `firestore:"telegramMessageId" json:"telegramMessageId" validate:"required"`
	RawMessage      string `firestore:"rawMessage,omitempty" json:"rawMessage,omitempty"`

	DocID string `firestore:"-" json:"id,omitempty"`
}

// Checkpoint marks the last message id already processed for one channel.
type Checkpoint struct {
	ChannelID     string    `firestore:"chatIdentifier"`
	LastMessageID int64     `firestore:"lastMessageId"`
	LastUpdated   time.Time `firestore:"lastUpdated"`
}
