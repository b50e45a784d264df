package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set test environment variables (auto-cleaned up after test)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "kanal_bir, kanal_iki")
	t.Setenv("PORT", "9090")
	t.Setenv("WEBHOOK_URL", "https://test.webhook")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ProjectID != "test-project" {
		t.Errorf("Expected test-project, got %s", cfg.ProjectID)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	if cfg.WebhookURL != "https://test.webhook" {
		t.Errorf("Expected https://test.webhook, got %s", cfg.WebhookURL)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[0] != "kanal_bir" || cfg.Channels[1] != "kanal_iki" {
		t.Errorf("Expected two trimmed channels, got %v", cfg.Channels)
	}
	if cfg.FetchWindow != 3 {
		t.Errorf("Expected default FetchWindow 3, got %d", cfg.FetchWindow)
	}
	if cfg.InitialWindow != 5 {
		t.Errorf("Expected default InitialWindow 5, got %d", cfg.InitialWindow)
	}
	if cfg.MessageDelay != time.Second {
		t.Errorf("Expected default MessageDelay 1s, got %s", cfg.MessageDelay)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected default model, got %s", cfg.GeminiModel)
	}
}

func TestLoad_MissingProjectID(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("CHANNELS", "kanal_bir")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when GOOGLE_CLOUD_PROJECT is not set")
	}
}

func TestLoad_MissingChannels(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when CHANNELS is not set")
	}
}

func TestLoad_CustomWindows(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "kanal_bir")
	t.Setenv("FETCH_WINDOW", "10")
	t.Setenv("INITIAL_FETCH_WINDOW", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.FetchWindow != 10 || cfg.InitialWindow != 20 {
		t.Errorf("Expected custom windows 10/20, got %d/%d", cfg.FetchWindow, cfg.InitialWindow)
	}
}

func TestLoad_InvalidFetchWindow(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "kanal_bir")
	t.Setenv("FETCH_WINDOW", "zero")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for invalid FETCH_WINDOW")
	}
}

func TestLoad_InvalidMessageDelay(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "kanal_bir")
	t.Setenv("MESSAGE_DELAY", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for invalid MESSAGE_DELAY")
	}
}

func TestLoad_DefaultRenderHosts(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("CHANNELS", "kanal_bir")
	t.Setenv("RENDER_HOSTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.RenderHosts) == 0 {
		t.Error("Expected default render hosts to be set")
	}
}
