// Package merge reconciles deal candidates harvested from the scraped page,
// message text heuristics and AI extraction into one canonical set of fields.
package merge

import (
	"math"
	"strings"

	"github.com/sicakfirsatlar/firsat-bot/internal/category"
	"github.com/sicakfirsatlar/firsat-bot/internal/models"
	"github.com/sicakfirsatlar/firsat-bot/internal/price"
	"github.com/sicakfirsatlar/firsat-bot/internal/textextract"
)

// Input carries the per-source candidates plus the message context the
// precedence rules need.
type Input struct {
	Page models.Candidates
	Text models.Candidates
	AI   models.Candidates

	// FinalURL is the post-redirect deal link; it drives store derivation.
	FinalURL string
	// MessageText feeds the keyword category cascade.
	MessageText string
	// AttachedImageURL is the uploaded copy of the message's own photo. It
	// outranks any image scraped off the page.
	AttachedImageURL string
}

// Result is the reconciled field set ready to be placed on a deal.
type Result struct {
	Title         string
	Price         float64
	OriginalPrice float64
	DiscountRate  int
	Store         string
	Category      models.Category
	ImageURL      string
}

// Resolve applies the source precedence rules.
//
// Price trusts the page first: markup selectors see the actual checkout
// figure, while text and AI read the same noisy message. Title is the
// opposite: page titles carry SEO noise, so a clean AI title wins over the
// marketing-heavy page one only when the page has none.
func Resolve(in Input) Result {
	var r Result

	r.Price = resolvePrice(in)
	r.OriginalPrice = resolveOriginalPrice(in, r.Price)
	r.DiscountRate = DiscountRate(r.Price, r.OriginalPrice)
	r.Title = resolveTitle(in)
	r.Store = resolveStore(in)
	r.Category = category.Classify(in.MessageText, in.AI.Category)
	r.ImageURL = resolveImage(in)
	return r
}

func resolvePrice(in Input) float64 {
	if price.Sane(in.Page.Price) {
		return in.Page.Price
	}
	if price.Sane(in.Text.Price) {
		return in.Text.Price
	}
	if price.Sane(in.AI.Price) {
		return in.AI.Price
	}
	return 0
}

// resolveOriginalPrice keeps a pre-discount figure only when it is strictly
// above the resolved price; anything else is a mislabeled installment or the
// same price repeated.
func resolveOriginalPrice(in Input, current float64) float64 {
	if current == 0 {
		return 0
	}
	for _, orig := range []float64{in.Page.OriginalPrice, in.Text.OriginalPrice, in.AI.OriginalPrice} {
		if price.Sane(orig) && orig > current {
			return orig
		}
	}
	return 0
}

// DiscountRate returns the integer percentage saved, or 0 when the inputs
// don't describe a real discount.
func DiscountRate(current, original float64) int {
	if original <= current || current <= 0 {
		return 0
	}
	return int(math.Floor(100 * (original - current) / original))
}

func resolveTitle(in Input) string {
	for _, t := range []string{in.Page.Title, in.AI.Title, in.Text.Title} {
		if t = strings.TrimSpace(t); t != "" {
			return truncateTitle(t)
		}
	}
	return ""
}

func truncateTitle(t string) string {
	runes := []rune(t)
	if len(runes) <= 100 {
		return t
	}
	return string(runes[:97]) + "..."
}

func resolveStore(in Input) string {
	if in.FinalURL != "" {
		if store := textextract.StoreFromDomain(in.FinalURL); store != "" {
			return store
		}
	}
	if store := strings.TrimSpace(in.AI.Store); store != "" {
		return store
	}
	if store := strings.TrimSpace(in.Text.Store); store != "" {
		return store
	}
	return textextract.StoreUnknown
}

func resolveImage(in Input) string {
	if in.AttachedImageURL != "" {
		return in.AttachedImageURL
	}
	return in.Page.ImageURL
}
