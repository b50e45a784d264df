package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/sicakfirsatlar/firsat-bot/internal/util"
)

const (
	fetchTimeout   = 30 * time.Second
	retryBaseDelay = time.Second
	maxBodyBytes   = 1 << 20 // 1MB cap, deal pages are parsed for a handful of fields

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Page is a fetched deal page ready for extraction. FinalURL reflects any
// redirects followed, which is what store identification must use.
type Page struct {
	HTML     string
	FinalURL string
}

// Fetcher retrieves deal pages. Hosts listed in renderHosts are loaded
// through a headless browser because they refuse plain HTTP clients.
type Fetcher struct {
	httpClient  *http.Client
	renderHosts []string
}

func NewFetcher(renderHosts []string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		renderHosts: renderHosts,
	}
}

// Fetch retrieves the page at rawURL, following redirects. It retries
// transient failures with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %s: %w", rawURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsedURL.Scheme)
	}

	var page *Page
	err = util.RetryWithBackoff(ctx, 2, retryBaseDelay, func(attempt int) error {
		var fetchErr error
		if f.needsRender(parsedURL.Hostname()) {
			page, fetchErr = f.fetchRendered(ctx, rawURL)
		} else {
			page, fetchErr = f.fetchHTTP(ctx, rawURL)
		}
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	return page, nil
}

func (f *Fetcher) needsRender(hostname string) bool {
	hostname = strings.TrimPrefix(strings.ToLower(hostname), "www.")
	for _, h := range f.renderHosts {
		if hostname == h || strings.HasSuffix(hostname, "."+h) {
			return true
		}
	}
	return false
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %s: %w", rawURL, err)
	}

	// Stores serve different (or no) markup to clients that look like bots.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Page{
		HTML:     string(body),
		FinalURL: res.Request.URL.String(),
	}, nil
}

func (f *Fetcher) fetchRendered(ctx context.Context, rawURL string) (*Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("lang", "tr-TR"),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, fetchTimeout)
	defer cancelRun()

	var html, finalURL string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("headless render failed: %w", err)
	}

	if len(html) > maxBodyBytes {
		html = html[:maxBodyBytes]
	}

	return &Page{
		HTML:     html,
		FinalURL: finalURL,
	}, nil
}
