// Package media moves message photos from the transport into the public
// object store that serves deal images. Both ends speak HTTP: the ingest
// payload carries a fetchable media URL, and uploads go to the media
// service which returns the public URL for the stored copy.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	fetchTimeout = 15 * time.Second
	maxMediaSize = 10 << 20 // photos beyond 10MB are not product shots
)

type Store struct {
	uploadURL string
	client    *http.Client
}

// New builds a media store posting uploads to uploadURL. An empty uploadURL
// disables uploads; fetches still work so the AI can see the photo.
func New(uploadURL string) *Store {
	return &Store{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads the media bytes behind mediaRef and reports the served
// content type.
func (s *Store) Fetch(ctx context.Context, mediaRef string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaRef, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media fetch status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the media publicly under a channel/message-scoped name and
// returns the public URL the media service assigned.
func (s *Store) Upload(ctx context.Context, channelID string, messageID int64, data []byte, mimeType string) (string, error) {
	if s.uploadURL == "" {
		return "", nil
	}

	name := fmt.Sprintf("telegram/%s/%d_%d", channelID, messageID, time.Now().Unix())
	q := url.Values{"name": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL+"?"+q.Encode(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("media upload status %d: %s", resp.StatusCode, string(body))
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.URL == "" {
		return "", fmt.Errorf("media service returned no URL")
	}
	return uploaded.URL, nil
}
