package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ProjectID      string
	GeminiAPIKey   string
	GeminiModel    string
	Port           string
	WebhookURL     string
	MediaUploadURL string
	Channels       []string
	FetchWindow    int
	InitialWindow  int
	MessageDelay   time.Duration
	RenderHosts    []string
}

func Load() (*Config, error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required but not set")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, AI extraction will be skipped")
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	webhookURL := os.Getenv("WEBHOOK_URL")
	if webhookURL == "" {
		slog.Warn("WEBHOOK_URL not set, new-deal notifications will be skipped")
	}

	mediaUploadURL := os.Getenv("MEDIA_UPLOAD_URL")
	if mediaUploadURL == "" {
		slog.Warn("MEDIA_UPLOAD_URL not set, attached photos will not be stored")
	}

	channels := splitList(os.Getenv("CHANNELS"))
	if len(channels) == 0 {
		return nil, fmt.Errorf("CHANNELS environment variable is required but not set")
	}

	fetchWindow := 3
	if v := os.Getenv("FETCH_WINDOW"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid FETCH_WINDOW %q", v)
		}
		fetchWindow = parsed
	}

	// First run per channel fetches a larger window so a fresh deployment
	// backfills recent deals.
	initialWindow := 5
	if v := os.Getenv("INITIAL_FETCH_WINDOW"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid INITIAL_FETCH_WINDOW %q", v)
		}
		initialWindow = parsed
	}

	messageDelayStr := os.Getenv("MESSAGE_DELAY")
	if messageDelayStr == "" {
		messageDelayStr = "1s"
	}
	messageDelay, err := time.ParseDuration(messageDelayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_DELAY %q: %w", messageDelayStr, err)
	}

	renderHosts := splitList(os.Getenv("RENDER_HOSTS"))
	if len(renderHosts) == 0 {
		renderHosts = []string{"amazon.com.tr", "hepsiburada.com"}
	}

	return &Config{
		ProjectID:      projectID,
		GeminiAPIKey:   geminiAPIKey,
		GeminiModel:    geminiModel,
		Port:           port,
		WebhookURL:     webhookURL,
		MediaUploadURL: mediaUploadURL,
		Channels:       channels,
		FetchWindow:    fetchWindow,
		InitialWindow:  initialWindow,
		MessageDelay:   messageDelay,
		RenderHosts:    renderHosts,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
