package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

const (
	dealsCollection = "deals"
	stateCollection = "bot_state"
)

type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// FindDealByMessage looks up the deal persisted for a (channel, message id)
// pair. Returns nil without error when no such deal exists.
func (c *Client) FindDealByMessage(ctx context.Context, channelID string, messageID int64) (*models.Deal, error) {
	iter := c.client.Collection(dealsCollection).
		Where("telegramChatUsername", "==", channelID).
		Where("telegramMessageId", "==", messageID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deal for %s/%d: %w", channelID, messageID, err)
	}

	var deal models.Deal
	if err := doc.DataTo(&deal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal data: %w", err)
	}
	deal.DocID = doc.Ref.ID
	return &deal, nil
}

// InsertDeal persists a new deal under an auto-generated document id and
// returns that id. The dedup gate is FindDealByMessage; ids never collide.
func (c *Client) InsertDeal(ctx context.Context, deal *models.Deal) (string, error) {
	docRef := c.client.Collection(dealsCollection).NewDoc()
	if _, err := docRef.Create(ctx, deal); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", models.ErrDealExists
		}
		return "", fmt.Errorf("failed to create deal for %s/%d: %w", deal.SourceChannel, deal.SourceMessageID, err)
	}
	return docRef.ID, nil
}

// GetCheckpoint reads the processing checkpoint for a channel. Returns nil
// without error on first run, when no checkpoint document exists yet.
func (c *Client) GetCheckpoint(ctx context.Context, channelID string) (*models.Checkpoint, error) {
	doc, err := c.client.Collection(stateCollection).Doc(channelID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get checkpoint for %s: %w", channelID, err)
	}

	var cp models.Checkpoint
	if err := doc.DataTo(&cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint data: %w", err)
	}
	return &cp, nil
}

// SetCheckpoint advances the checkpoint for a channel. The write runs in a
// transaction so a concurrent or replayed batch can never move the checkpoint
// backwards.
func (c *Client) SetCheckpoint(ctx context.Context, channelID string, lastMessageID int64) error {
	docRef := c.client.Collection(stateCollection).Doc(channelID)

	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			var existing models.Checkpoint
			if err := doc.DataTo(&existing); err != nil {
				return fmt.Errorf("failed to unmarshal existing checkpoint: %w", err)
			}
			if existing.LastMessageID >= lastMessageID {
				return nil
			}
		}
		// MergeAll requires map data.
		return tx.Set(docRef, map[string]interface{}{
			"chatIdentifier": channelID,
			"lastMessageId":  lastMessageID,
			"lastUpdated":    time.Now().UTC(),
		}, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to set checkpoint for %s: %w", channelID, err)
	}
	return nil
}
