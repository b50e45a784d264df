package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

// Client posts newly persisted deals to a configured webhook. Downstream
// push fan-out (mobile notifications, feeds) hangs off that endpoint.
type Client struct {
	webhookURL string
	client     *http.Client
}

func New(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type dealPayload struct {
	Event string       `json:"event"`
	Deal  *models.Deal `json:"deal"`
}

// NotifyNewDeal posts the canonical deal JSON. A missing webhook URL is a
// configured no-op.
func (c *Client) NotifyNewDeal(ctx context.Context, deal *models.Deal) error {
	if c.webhookURL == "" {
		return nil
	}

	payloadBytes, err := json.Marshal(dealPayload{Event: "deal.created", Deal: deal})
	if err != nil {
		return fmt.Errorf("failed to marshal deal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("webhook status: %s, body: %s", resp.Status, string(bodyBytes))
}
