package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sicakfirsatlar/firsat-bot/internal/ai"
	"github.com/sicakfirsatlar/firsat-bot/internal/config"
	"github.com/sicakfirsatlar/firsat-bot/internal/media"
	"github.com/sicakfirsatlar/firsat-bot/internal/models"
	"github.com/sicakfirsatlar/firsat-bot/internal/notifier"
	"github.com/sicakfirsatlar/firsat-bot/internal/processor"
	"github.com/sicakfirsatlar/firsat-bot/internal/scraper"
	"github.com/sicakfirsatlar/firsat-bot/internal/storage"
)

type Server struct {
	processor *processor.Processor
	channels  map[string]bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	slog.Info("Starting firsat-bot server...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Critical error initializing Firestore client", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	analyzer, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("Critical error initializing Gemini client", "error", err)
		os.Exit(1)
	}

	p := processor.New(
		store,
		store,
		scraper.New(cfg.RenderHosts),
		analyzer,
		media.New(cfg.MediaUploadURL),
		notifier.New(cfg.WebhookURL),
		cfg,
	)

	channels := make(map[string]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channels[ch] = true
	}
	srv := &Server{processor: p, channels: channels}

	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", srv.IngestHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

type ingestMessage struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	MediaURL   string    `json:"mediaUrl,omitempty"`
	ButtonURLs []string  `json:"buttonUrls,omitempty"`
	EntityURLs []string  `json:"entityUrls,omitempty"`
	Date       time.Time `json:"date"`
}

type ingestRequest struct {
	Channel  string          `json:"channel"`
	Messages []ingestMessage `json:"messages"`
}

// IngestHandler accepts one channel's pushed message batch and runs the
// pipeline asynchronously so the HTTP response isn't blocked by scraping,
// Firestore and Gemini calls that may exceed request timeouts.
func (s *Server) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Channel == "" || !s.channels[req.Channel] {
		http.Error(w, "unknown channel", http.StatusBadRequest)
		return
	}

	msgs := make([]models.IncomingMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, models.IncomingMessage{
			ChannelID:  req.Channel,
			MessageID:  m.ID,
			Text:       m.Text,
			MediaRef:   m.MediaURL,
			ButtonURLs: m.ButtonURLs,
			EntityURLs: m.EntityURLs,
			ReceivedAt: m.Date,
		})
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic in batch processing", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		err := s.processor.ProcessBatches(ctx, []processor.ChannelBatch{
			{ChannelID: req.Channel, Messages: msgs},
		})
		if err != nil {
			slog.Error("Error processing batch", "channel", req.Channel, "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Batch processing started.")
}
