package scraper

import (
	"context"
	"log/slog"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

// Client fetches deal pages and extracts candidate fields from them.
type Client struct {
	fetcher   *Fetcher
	extractor *Extractor
}

// New builds a scraping client. renderHosts lists hostnames that must be
// loaded through a headless browser instead of a plain HTTP request.
func New(renderHosts []string) *Client {
	return &Client{
		fetcher:   NewFetcher(renderHosts),
		extractor: NewExtractor(LoadPackConfig()),
	}
}

// Scrape fetches rawURL and harvests deal candidates from the page. It
// returns the candidates together with the final post-redirect URL, which
// callers use for store identification. A fetch failure returns empty
// candidates and the error; extraction itself never fails.
func (c *Client) Scrape(ctx context.Context, rawURL string) (models.Candidates, string, error) {
	page, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return models.Candidates{Source: models.SourcePage}, "", err
	}

	cand := c.extractor.Extract(page.HTML, page.FinalURL)
	slog.Debug("scraped deal page",
		"url", page.FinalURL,
		"price", cand.Price,
		"originalPrice", cand.OriginalPrice,
		"hasImage", cand.ImageURL != "")
	return cand, page.FinalURL, nil
}
