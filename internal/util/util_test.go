package util

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestCleanTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm params",
			in:   "https://www.trendyol.com/p/123?utm_source=telegram&utm_campaign=x&boutiqueId=5",
			want: "https://www.trendyol.com/p/123?boutiqueId=5",
		},
		{
			name: "untouched without tracking",
			in:   "https://www.hepsiburada.com/urun-p-ABC123",
			want: "https://www.hepsiburada.com/urun-p-ABC123",
		},
		{
			name: "invalid url passes through",
			in:   "http://%zz",
			want: "http://%zz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTrackingParams(tt.in); got != tt.want {
				t.Errorf("CleanTrackingParams(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://www.example.com/products/item")
	tests := []struct {
		ref  string
		want string
	}{
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"/images/a.jpg", "https://www.example.com/images/a.jpg"},
		{"a.jpg", "https://www.example.com/products/a.jpg"},
		{"blob:https://example.com/uuid", ""},
		{"data:image/png;base64,AAAA", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveURL(tt.ref, base); got != tt.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	if got := Hostname("https://www.Amazon.com.tr/dp/B0TEST"); got != "amazon.com.tr" {
		t.Errorf("Hostname = %q, want amazon.com.tr", got)
	}
	if got := Hostname("not a url at all \x7f"); got != "" {
		t.Errorf("Hostname on garbage = %q, want empty", got)
	}
}

func TestRetryWithBackoff_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	err := RetryWithBackoff(context.Background(), 0, time.Millisecond, func(int) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call with maxRetries=0, got %d", calls)
	}
}

func TestRetryWithBackoff_RecoversOnLaterAttempt(t *testing.T) {
	var attempts []int
	err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func(attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 3 || attempts[0] != 0 || attempts[2] != 2 {
		t.Errorf("expected attempts [0 1 2], got %v", attempts)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func(int) error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
