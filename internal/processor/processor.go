package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sicakfirsatlar/firsat-bot/internal/config"
	"github.com/sicakfirsatlar/firsat-bot/internal/merge"
	"github.com/sicakfirsatlar/firsat-bot/internal/models"
	"github.com/sicakfirsatlar/firsat-bot/internal/textextract"
	"github.com/sicakfirsatlar/firsat-bot/internal/util"
	"github.com/sicakfirsatlar/firsat-bot/internal/validator"
)

// minMediaBytes filters out thumbnail stubs and sticker previews; anything
// smaller is not a product photo worth keeping.
const minMediaBytes = 1024

// maxDescriptionRunes caps the human-readable description; the untruncated
// text is still kept in rawMessage.
const maxDescriptionRunes = 500

// ChannelBatch is one channel's pushed message events.
type ChannelBatch struct {
	ChannelID string
	Messages  []models.IncomingMessage
}

// Stats summarizes one channel run.
type Stats struct {
	Processed int
	Inserted  int
	Skipped   int
	Failed    int
}

type Processor struct {
	store       DealStore
	checkpoints CheckpointStore
	pages       PageFetcher
	analyzer    Analyzer
	media       MediaStore
	notifier    Notifier
	validator   *validator.Validator
	cfg         *config.Config
}

func New(store DealStore, checkpoints CheckpointStore, pages PageFetcher, analyzer Analyzer, media MediaStore, n Notifier, cfg *config.Config) *Processor {
	return &Processor{
		store:       store,
		checkpoints: checkpoints,
		pages:       pages,
		analyzer:    analyzer,
		media:       media,
		notifier:    n,
		validator:   validator.New(),
		cfg:         cfg,
	}
}

// ProcessBatches runs each channel's batch through the pipeline. Channels are
// independent streams: they run in parallel, while messages within a channel
// are strictly sequential and in ascending message-id order.
func (p *Processor) ProcessBatches(ctx context.Context, batches []ChannelBatch) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		g.Go(func() error {
			stats, err := p.ProcessChannel(ctx, batch.ChannelID, batch.Messages)
			if err != nil {
				return fmt.Errorf("channel %s: %w", batch.ChannelID, err)
			}
			slog.Info("Finished channel batch",
				"channel", batch.ChannelID,
				"processed", stats.Processed,
				"inserted", stats.Inserted,
				"skipped", stats.Skipped,
				"failed", stats.Failed)
			return nil
		})
	}
	return g.Wait()
}

// ProcessChannel processes one channel's messages. The checkpoint advances
// after every attempted message, failed or not: a poison message must never
// wedge the stream, at the cost of losing that one deal.
func (p *Processor) ProcessChannel(ctx context.Context, channelID string, msgs []models.IncomingMessage) (Stats, error) {
	var stats Stats

	cp, err := p.checkpoints.GetCheckpoint(ctx, channelID)
	if err != nil {
		// Without the checkpoint the whole batch would be reprocessed, so
		// abort rather than risk duplicate work.
		return stats, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	eligible := p.selectMessages(cp, msgs)
	if len(eligible) == 0 {
		slog.Info("No new messages for channel", "channel", channelID)
		return stats, nil
	}

	// Deliberate pacing between messages keeps request bursts away from
	// stores and the AI quota.
	limiter := rate.NewLimiter(rate.Every(p.cfg.MessageDelay), 1)

	for _, msg := range eligible {
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.Processed++
		outcome, err := p.processMessage(ctx, channelID, msg)
		switch {
		case err != nil:
			stats.Failed++
			slog.Error("Message processing failed",
				"channel", channelID, "messageId", msg.MessageID, "error", err)
		case outcome == outcomeInserted:
			stats.Inserted++
		default:
			stats.Skipped++
		}

		if err := p.checkpoints.SetCheckpoint(ctx, channelID, msg.MessageID); err != nil {
			slog.Warn("Failed to advance checkpoint",
				"channel", channelID, "messageId", msg.MessageID, "error", err)
		}
	}

	return stats, nil
}

// selectMessages orders the batch ascending and applies the window rules:
// with no checkpoint only the most recent initial window is taken, otherwise
// only ids above the checkpoint, bounded by the regular fetch window.
func (p *Processor) selectMessages(cp *models.Checkpoint, msgs []models.IncomingMessage) []models.IncomingMessage {
	sorted := make([]models.IncomingMessage, 0, len(msgs))
	if cp == nil {
		sorted = append(sorted, msgs...)
	} else {
		for _, m := range msgs {
			if m.MessageID > cp.LastMessageID {
				sorted = append(sorted, m)
			}
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MessageID < sorted[j].MessageID })

	window := p.cfg.FetchWindow
	if cp == nil {
		window = p.cfg.InitialWindow
	}
	if window > 0 && len(sorted) > window {
		sorted = sorted[len(sorted)-window:]
	}
	return sorted
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeInserted
)

func (p *Processor) processMessage(ctx context.Context, channelID string, msg models.IncomingMessage) (outcome, error) {
	if strings.TrimSpace(msg.Text) == "" {
		slog.Info("Skipping message without text", "channel", channelID, "messageId", msg.MessageID)
		return outcomeSkipped, nil
	}

	existing, err := p.store.FindDealByMessage(ctx, channelID, msg.MessageID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if existing != nil {
		slog.Info("Skipping already persisted message",
			"channel", channelID, "messageId", msg.MessageID, "docId", existing.DocID)
		return outcomeSkipped, nil
	}

	urls := textextract.ExtractURLs(msg)
	if len(urls) == 0 {
		slog.Info("Skipping message without a deal link",
			"channel", channelID, "messageId", msg.MessageID)
		return outcomeSkipped, nil
	}
	link := urls[0]

	textCand := textextract.Extract(msg.Text)

	pageCand := models.Candidates{Source: models.SourcePage}
	finalURL := link
	if p.pages != nil {
		cand, fetched, err := p.pages.Scrape(ctx, link)
		if err != nil {
			slog.Warn("Page scrape failed, continuing with text and AI only",
				"channel", channelID, "messageId", msg.MessageID, "url", link, "error", err)
		} else {
			if cand.Empty() {
				slog.Debug("Page yielded no candidates",
					"channel", channelID, "messageId", msg.MessageID, "url", link)
			}
			pageCand = cand
			if fetched != "" {
				finalURL = fetched
			}
		}
	}

	imageData, imageMIME, attachedURL := p.handleMedia(ctx, channelID, msg)

	aiCand := models.Candidates{Source: models.SourceAI}
	if p.analyzer != nil {
		cand, err := p.analyzer.ExtractDeal(ctx, msg.Text, imageData, imageMIME)
		if err != nil {
			slog.Warn("AI extraction failed, continuing without it",
				"channel", channelID, "messageId", msg.MessageID, "error", err)
		} else {
			aiCand = cand
		}
	}

	resolved := merge.Resolve(merge.Input{
		Page:             pageCand,
		Text:             textCand,
		AI:               aiCand,
		FinalURL:         finalURL,
		MessageText:      msg.Text,
		AttachedImageURL: attachedURL,
	})

	if resolved.Price == 0 {
		slog.Info("Skipping message without a resolvable price",
			"channel", channelID, "messageId", msg.MessageID)
		return outcomeSkipped, nil
	}

	deal := p.buildDeal(channelID, msg, finalURL, resolved)
	if err := p.validator.ValidateStruct(deal); err != nil {
		return outcomeSkipped, fmt.Errorf("deal failed validation: %w", err)
	}

	docID, err := p.store.InsertDeal(ctx, deal)
	if err != nil {
		if errors.Is(err, models.ErrDealExists) {
			slog.Info("Deal raced into existence, skipping",
				"channel", channelID, "messageId", msg.MessageID)
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("failed to persist deal: %w", err)
	}
	deal.DocID = docID
	slog.Info("New deal persisted",
		"channel", channelID, "messageId", msg.MessageID,
		"docId", docID, "title", deal.Title, "price", deal.Price, "store", deal.Store)

	if p.notifier != nil {
		if err := p.notifier.NotifyNewDeal(ctx, deal); err != nil {
			slog.Warn("New-deal notification failed",
				"channel", channelID, "messageId", msg.MessageID, "error", err)
		}
	}
	return outcomeInserted, nil
}

// handleMedia downloads the attached photo, keeps it for the AI call and
// uploads a copy for the deal image. All failures degrade to "no media".
func (p *Processor) handleMedia(ctx context.Context, channelID string, msg models.IncomingMessage) (data []byte, mimeType, attachedURL string) {
	if msg.MediaRef == "" || p.media == nil {
		return nil, "", ""
	}

	data, mimeType, err := p.media.Fetch(ctx, msg.MediaRef)
	if err != nil {
		slog.Warn("Media fetch failed",
			"channel", channelID, "messageId", msg.MessageID, "error", err)
		return nil, "", ""
	}
	if len(data) < minMediaBytes {
		return nil, "", ""
	}

	attachedURL, err = p.media.Upload(ctx, channelID, msg.MessageID, data, mimeType)
	if err != nil {
		slog.Warn("Media upload failed, deal will use the page image",
			"channel", channelID, "messageId", msg.MessageID, "error", err)
		attachedURL = ""
	}
	return data, mimeType, attachedURL
}

func (p *Processor) buildDeal(channelID string, msg models.IncomingMessage, finalURL string, r merge.Result) *models.Deal {
	link := util.CleanTrackingParams(finalURL)
	return &models.Deal{
		Title:         r.Title,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		DiscountRate:  r.DiscountRate,
		Store:         r.Store,
		Category:      r.Category,
		Link:          link,
		ImageURL:      r.ImageURL,
		Description:   truncateDescription(msg.Text),

		PostedBy:  "telegram_channel_" + channelID,
		CreatedAt: time.Now().UTC(),
		Source:    "telegram",

		SourceChannel:   channelID,
		SourceMessageID: msg.MessageID,
		RawMessage:      msg.Text,
	}
}

func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionRunes {
		return s
	}
	return string(runes[:maxDescriptionRunes])
}
