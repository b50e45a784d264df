package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sicakfirsatlar/firsat-bot/internal/config"
	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

// --- Mock implementations ---
// ProcessBatches runs channels concurrently, so the mocks lock around state.

type mockDealStore struct {
	mu        sync.Mutex
	deals     map[string]*models.Deal
	findErr   error
	insertErr error
	inserted  []*models.Deal
}

func newMockDealStore() *mockDealStore {
	return &mockDealStore{deals: make(map[string]*models.Deal)}
}

func dealKey(channelID string, messageID int64) string {
	return fmt.Sprintf("%s/%d", channelID, messageID)
}

func (m *mockDealStore) FindDealByMessage(_ context.Context, channelID string, messageID int64) (*models.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	deal, ok := m.deals[dealKey(channelID, messageID)]
	if !ok {
		return nil, nil
	}
	copy := *deal
	return &copy, nil
}

func (m *mockDealStore) InsertDeal(_ context.Context, deal *models.Deal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	key := dealKey(deal.SourceChannel, deal.SourceMessageID)
	if _, exists := m.deals[key]; exists {
		return "", models.ErrDealExists
	}
	copy := *deal
	m.deals[key] = &copy
	m.inserted = append(m.inserted, &copy)
	return fmt.Sprintf("doc-%d", len(m.inserted)), nil
}

type mockCheckpointStore struct {
	mu          sync.Mutex
	checkpoints map[string]int64
	history     []int64
	getErr      error
	setErr      error
}

func newMockCheckpointStore() *mockCheckpointStore {
	return &mockCheckpointStore{checkpoints: make(map[string]int64)}
}

func (m *mockCheckpointStore) GetCheckpoint(_ context.Context, channelID string) (*models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	last, ok := m.checkpoints[channelID]
	if !ok {
		return nil, nil
	}
	return &models.Checkpoint{ChannelID: channelID, LastMessageID: last}, nil
}

func (m *mockCheckpointStore) SetCheckpoint(_ context.Context, channelID string, lastMessageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if m.checkpoints[channelID] < lastMessageID {
		m.checkpoints[channelID] = lastMessageID
	}
	m.history = append(m.history, lastMessageID)
	return nil
}

type mockPageFetcher struct {
	cand     models.Candidates
	finalURL string
	err      error
}

func (m *mockPageFetcher) Scrape(_ context.Context, rawURL string) (models.Candidates, string, error) {
	if m.err != nil {
		return models.Candidates{Source: models.SourcePage}, "", m.err
	}
	finalURL := m.finalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	return m.cand, finalURL, nil
}

type mockAnalyzer struct {
	cand models.Candidates
	err  error
}

func (m *mockAnalyzer) ExtractDeal(_ context.Context, _ string, _ []byte, _ string) (models.Candidates, error) {
	if m.err != nil {
		return models.Candidates{Source: models.SourceAI}, m.err
	}
	return m.cand, nil
}

type mockMediaStore struct {
	data      []byte
	mimeType  string
	fetchErr  error
	uploadErr error
	uploadURL string
}

func (m *mockMediaStore) Fetch(_ context.Context, _ string) ([]byte, string, error) {
	if m.fetchErr != nil {
		return nil, "", m.fetchErr
	}
	return m.data, m.mimeType, nil
}

func (m *mockMediaStore) Upload(_ context.Context, _ string, _ int64, _ []byte, _ string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return m.uploadURL, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	notified []*models.Deal
	err      error
}

func (m *mockNotifier) NotifyNewDeal(_ context.Context, deal *models.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, deal)
	return nil
}

type testDeps struct {
	store       *mockDealStore
	checkpoints *mockCheckpointStore
	pages       *mockPageFetcher
	analyzer    *mockAnalyzer
	media       *mockMediaStore
	notifier    *mockNotifier
}

func newTestProcessor() (*Processor, *testDeps) {
	deps := &testDeps{
		store:       newMockDealStore(),
		checkpoints: newMockCheckpointStore(),
		pages:       &mockPageFetcher{cand: models.Candidates{Source: models.SourcePage}},
		analyzer:    &mockAnalyzer{cand: models.Candidates{Source: models.SourceAI}},
		media:       &mockMediaStore{},
		notifier:    &mockNotifier{},
	}
	cfg := &config.Config{
		FetchWindow:   3,
		InitialWindow: 5,
	}
	p := New(deps.store, deps.checkpoints, deps.pages, deps.analyzer, deps.media, deps.notifier, cfg)
	return p, deps
}

func dealMessage(id int64) models.IncomingMessage {
	return models.IncomingMessage{
		ChannelID: "kanal",
		MessageID: id,
		Text:      fmt.Sprintf("Laptop Fiyat: 12.499,00 TL\nhttps://store.example/x%d", id),
	}
}

// --- Tests ---

func TestProcessChannel_InsertsDealFromTextWhenPageFails(t *testing.T) {
	p, deps := newTestProcessor()
	deps.pages.err = errors.New("fetch blocked")
	deps.checkpoints.checkpoints["kanal"] = 10

	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{dealMessage(11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", stats.Inserted)
	}

	deal := deps.store.inserted[0]
	if deal.Price != 12499 {
		t.Errorf("price = %v, want 12499 from the text ladder", deal.Price)
	}
	if deal.Category != models.CategoryComputers {
		t.Errorf("category = %q, want bilgisayar", deal.Category)
	}
	if deal.ImageURL != "" {
		t.Errorf("imageURL = %q, want empty with no page and no media", deal.ImageURL)
	}
	if deal.Store != "Store" {
		t.Errorf("store = %q, want domain-derived Store", deal.Store)
	}
	if deal.PostedBy != "telegram_channel_kanal" || deal.Source != "telegram" {
		t.Errorf("bookkeeping fields wrong: postedBy=%q source=%q", deal.PostedBy, deal.Source)
	}
	if deal.SourceChannel != "kanal" || deal.SourceMessageID != 11 {
		t.Errorf("dedup key wrong: %s/%d", deal.SourceChannel, deal.SourceMessageID)
	}
	if deal.Description != dealMessage(11).Text {
		t.Errorf("description = %q, want the message text", deal.Description)
	}
	if deal.RawMessage != dealMessage(11).Text {
		t.Errorf("rawMessage = %q, want the message text", deal.RawMessage)
	}
}

func TestProcessChannel_DescriptionTruncatedForLongMessages(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10

	msg := models.IncomingMessage{
		ChannelID: "kanal",
		MessageID: 11,
		Text:      "Laptop Fiyat: 12.499,00 TL\nhttps://store.example/x11\n" + strings.Repeat("ş", 600),
	}
	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{msg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", stats.Inserted)
	}

	deal := deps.store.inserted[0]
	if got := len([]rune(deal.Description)); got != maxDescriptionRunes {
		t.Errorf("description length = %d runes, want %d", got, maxDescriptionRunes)
	}
	if deal.RawMessage != msg.Text {
		t.Error("rawMessage must keep the untruncated text")
	}
}

func TestProcessChannel_DedupSkipsExistingMessage(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.store.deals[dealKey("kanal", 11)] = &models.Deal{DocID: "existing"}

	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{dealMessage(11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 0 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want one skip and no insert", stats)
	}
	if deps.checkpoints.checkpoints["kanal"] != 11 {
		t.Errorf("checkpoint = %d, want 11 (advances past duplicates)", deps.checkpoints.checkpoints["kanal"])
	}
}

func TestProcessChannel_CheckpointAdvancesOnFailure(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.store.insertErr = errors.New("firestore unavailable")

	msgs := []models.IncomingMessage{dealMessage(13), dealMessage(11), dealMessage(12)}
	stats, err := p.ProcessChannel(context.Background(), "kanal", msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 3 {
		t.Errorf("failed = %d, want 3", stats.Failed)
	}
	// A poison message must not wedge the stream: the checkpoint equals the
	// highest attempted id even though every insert failed.
	if deps.checkpoints.checkpoints["kanal"] != 13 {
		t.Errorf("checkpoint = %d, want 13", deps.checkpoints.checkpoints["kanal"])
	}
	// Messages were attempted in ascending order.
	want := []int64{11, 12, 13}
	for i, id := range want {
		if deps.checkpoints.history[i] != id {
			t.Fatalf("checkpoint history = %v, want %v", deps.checkpoints.history, want)
		}
	}
}

func TestProcessChannel_SkipsMessageWithoutLink(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10

	msg := models.IncomingMessage{ChannelID: "kanal", MessageID: 11, Text: "Laptop 12.499,00 TL ama link yok"}
	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{msg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want a clean skip", stats)
	}
	if deps.checkpoints.checkpoints["kanal"] != 11 {
		t.Errorf("checkpoint = %d, want 11 (skip is not defer)", deps.checkpoints.checkpoints["kanal"])
	}
}

func TestProcessChannel_SkipsMessageWithoutPrice(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10

	msg := models.IncomingMessage{ChannelID: "kanal", MessageID: 11, Text: "Harika ürün!\nhttps://store.example/x"}
	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{msg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Skipped != 1 || len(deps.store.inserted) != 0 {
		t.Errorf("stats = %+v inserted = %d, want skip without insert", stats, len(deps.store.inserted))
	}
}

func TestProcessChannel_FirstRunWindow(t *testing.T) {
	p, deps := newTestProcessor()

	var msgs []models.IncomingMessage
	for id := int64(1); id <= 8; id++ {
		msgs = append(msgs, models.IncomingMessage{ChannelID: "kanal", MessageID: id, Text: "fırsat yok"})
	}

	stats, err := p.ProcessChannel(context.Background(), "kanal", msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No checkpoint yet: only the most recent InitialWindow messages run.
	if stats.Processed != 5 {
		t.Errorf("processed = %d, want 5", stats.Processed)
	}
	if deps.checkpoints.history[0] != 4 {
		t.Errorf("first attempted id = %d, want 4", deps.checkpoints.history[0])
	}
	if deps.checkpoints.checkpoints["kanal"] != 8 {
		t.Errorf("checkpoint = %d, want 8", deps.checkpoints.checkpoints["kanal"])
	}
}

func TestProcessChannel_CheckpointFiltersOldMessages(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 5

	var msgs []models.IncomingMessage
	for id := int64(3); id <= 7; id++ {
		msgs = append(msgs, models.IncomingMessage{ChannelID: "kanal", MessageID: id, Text: "fırsat yok"})
	}

	stats, err := p.ProcessChannel(context.Background(), "kanal", msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 2 {
		t.Errorf("processed = %d, want 2 (ids 6 and 7)", stats.Processed)
	}
}

func TestProcessChannel_InsertRaceIsSkip(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.store.insertErr = models.ErrDealExists

	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{dealMessage(11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 0 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want race counted as skip", stats)
	}
}

func TestProcessChannel_NotifierFailureIsNonFatal(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.notifier.err = errors.New("webhook down")

	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{dealMessage(11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 1 {
		t.Errorf("inserted = %d, want 1 despite notifier failure", stats.Inserted)
	}
}

func TestProcessChannel_CheckpointLoadFailureAborts(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.getErr = errors.New("firestore unavailable")

	_, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{dealMessage(11)})
	if err == nil {
		t.Fatal("expected error when the checkpoint cannot be loaded")
	}
	if len(deps.store.inserted) != 0 {
		t.Error("no message should be processed without a checkpoint")
	}
}

func TestProcessChannel_AttachedMediaBeatsPageImage(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.pages.cand = models.Candidates{Source: models.SourcePage, ImageURL: "https://cdn.store.example/page.jpg"}
	deps.media.data = make([]byte, 4096)
	deps.media.mimeType = "image/jpeg"
	deps.media.uploadURL = "https://media.example/kanal/11.jpg"

	msg := dealMessage(11)
	msg.MediaRef = "media-ref-11"
	stats, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{msg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", stats.Inserted)
	}
	if got := deps.store.inserted[0].ImageURL; got != "https://media.example/kanal/11.jpg" {
		t.Errorf("imageURL = %q, want uploaded media to win", got)
	}
}

func TestProcessChannel_TinyMediaDiscarded(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal"] = 10
	deps.pages.cand = models.Candidates{Source: models.SourcePage, ImageURL: "https://cdn.store.example/page.jpg"}
	deps.media.data = make([]byte, 100) // thumbnail stub
	deps.media.mimeType = "image/jpeg"
	deps.media.uploadURL = "https://media.example/kanal/11.jpg"

	msg := dealMessage(11)
	msg.MediaRef = "media-ref-11"
	if _, err := p.ProcessChannel(context.Background(), "kanal", []models.IncomingMessage{msg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := deps.store.inserted[0].ImageURL; got != "https://cdn.store.example/page.jpg" {
		t.Errorf("imageURL = %q, want page image when media is below the size floor", got)
	}
}

func TestProcessBatches_ChannelsIndependent(t *testing.T) {
	p, deps := newTestProcessor()
	deps.checkpoints.checkpoints["kanal_a"] = 10
	deps.checkpoints.checkpoints["kanal_b"] = 20

	msgA := dealMessage(11)
	msgA.ChannelID = "kanal_a"
	msgB := dealMessage(21)
	msgB.ChannelID = "kanal_b"

	err := p.ProcessBatches(context.Background(), []ChannelBatch{
		{ChannelID: "kanal_a", Messages: []models.IncomingMessage{msgA}},
		{ChannelID: "kanal_b", Messages: []models.IncomingMessage{msgB}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.store.inserted) != 2 {
		t.Errorf("inserted = %d, want one deal per channel", len(deps.store.inserted))
	}
}
