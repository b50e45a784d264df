package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
	"github.com/sicakfirsatlar/firsat-bot/internal/price"
	"github.com/sicakfirsatlar/firsat-bot/internal/util"
)

const defaultMinPrice = 10

// genericPriceSelectors are tried on pages with no matching site pack, most
// specific first. The bare [class*="price"] catch-all comes last because it
// matches shipping thresholds and installment rows on busy pages.
var genericPriceSelectors = []string{
	`span[itemprop="price"]`,
	".product-price",
	".current-price",
	".price-new",
	".sale-price",
	".price",
	".amount",
	`[class*="price"]`,
}

var genericOriginalSelectors = []string{
	".old-price",
	".price-old",
	".original-price",
	"del",
	"s",
	`[class*="old-price"]`,
}

// Extractor harvests deal fields from fetched store pages.
type Extractor struct {
	packs *PackRegistry
}

func NewExtractor(packs *PackRegistry) *Extractor {
	return &Extractor{packs: packs}
}

// Extract parses the page HTML and harvests price, original price, title and
// image. finalURL is the post-redirect page URL and selects the site pack.
// Extraction never fails: unparseable markup yields empty candidates.
func (e *Extractor) Extract(htmlContent, finalURL string) models.Candidates {
	cand := models.Candidates{Source: models.SourcePage}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return cand
	}

	pack := e.lookupPack(finalURL)
	minPrice := defaultMinPrice
	if pack != nil && pack.MinPrice > 0 {
		minPrice = int(pack.MinPrice)
	}

	cand.Price, cand.OriginalPrice = extractPrices(doc, pack, float64(minPrice))
	cand.Title = extractTitle(doc)
	cand.ImageURL = extractImage(doc, pack, finalURL)
	return cand
}

func (e *Extractor) lookupPack(finalURL string) *SitePack {
	if e.packs == nil {
		return nil
	}
	parsed, err := url.Parse(finalURL)
	if err != nil {
		return nil
	}
	return e.packs.Lookup(parsed.Hostname())
}

// extractPrices runs the price cascade: site pack selectors, then JSON-LD
// structured data, then meta tags, then generic selectors. The original
// price is only kept when strictly above the discounted price.
func extractPrices(doc *goquery.Document, pack *SitePack, minPrice float64) (float64, float64) {
	var current float64

	if pack != nil {
		current = selectorPrice(doc, pack.PriceSelectors, pack.HiddenTextSelector, minPrice)
	}
	if current == 0 {
		for _, node := range decodeJSONLD(doc) {
			if current = jsonLDPrice(node, minPrice); current > 0 {
				break
			}
		}
	}
	if current == 0 {
		current = metaPrice(doc, minPrice)
	}
	if current == 0 {
		current = selectorPrice(doc, genericPriceSelectors, "", minPrice)
	}
	if current == 0 {
		return 0, 0
	}

	var original float64
	if pack != nil {
		original = selectorOriginalPrice(doc, pack.OriginalPriceSelectors, pack.HiddenTextSelector, current)
	}
	if original == 0 {
		original = selectorOriginalPrice(doc, genericOriginalSelectors, "", current)
	}
	return current, original
}

// selectorPrice tries each selector in order. Within one selector all
// matches are harvested and the lowest accepted value wins; promo pages
// repeat the price in several sizes and sometimes include a higher bundle
// figure in the same class.
func selectorPrice(doc *goquery.Document, selectors []string, hiddenSel string, minPrice float64) float64 {
	for _, sel := range selectors {
		best := 0.0
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			p := price.Parse(elementPriceText(s, hiddenSel))
			if p < minPrice {
				return
			}
			if best == 0 || p < best {
				best = p
			}
		})
		if best > 0 {
			return best
		}
	}
	return 0
}

// selectorOriginalPrice harvests the highest struck-through price above the
// discounted price.
func selectorOriginalPrice(doc *goquery.Document, selectors []string, hiddenSel string, current float64) float64 {
	for _, sel := range selectors {
		best := 0.0
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			p := price.Parse(elementPriceText(s, hiddenSel))
			if p > current && p > best {
				best = p
			}
		})
		if best > 0 {
			return best
		}
	}
	return 0
}

func elementPriceText(s *goquery.Selection, hiddenSel string) string {
	if hiddenSel != "" {
		if hidden := s.Find(hiddenSel).First(); hidden.Length() > 0 {
			return strings.TrimSpace(hidden.Text())
		}
	}
	return strings.TrimSpace(s.Text())
}

func metaPrice(doc *goquery.Document, minPrice float64) float64 {
	metaSelectors := []string{
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`,
		`meta[name="price"]`,
		`meta[itemprop="price"]`,
	}
	for _, sel := range metaSelectors {
		content, exists := doc.Find(sel).First().Attr("content")
		if !exists {
			continue
		}
		if p := price.Parse(content); p >= minPrice {
			return p
		}
	}
	return 0
}

func extractTitle(doc *goquery.Document) string {
	if content, exists := doc.Find(`meta[property="og:title"]`).First().Attr("content"); exists {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractImage runs the image cascade: site pack attribute, og/twitter meta
// tags, JSON-LD, itemprop, then increasingly loose <img> heuristics.
// Relative URLs are resolved against the page URL.
func extractImage(doc *goquery.Document, pack *SitePack, finalURL string) string {
	base, err := url.Parse(finalURL)
	if err != nil {
		base = nil
	}

	if pack != nil && pack.ImageSelector != "" {
		attr := pack.ImageAttr
		if attr == "" {
			attr = "src"
		}
		if val, exists := doc.Find(pack.ImageSelector).First().Attr(attr); exists {
			if img := resolveImage(val, base); img != "" {
				return img
			}
		}
	}

	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if content, exists := doc.Find(sel).First().Attr("content"); exists {
			if img := resolveImage(content, base); img != "" {
				return img
			}
		}
	}

	for _, node := range decodeJSONLD(doc) {
		if img := resolveImage(jsonLDImage(node), base); img != "" {
			return img
		}
	}

	if src, exists := doc.Find(`img[itemprop="image"]`).First().Attr("src"); exists {
		if img := resolveImage(src, base); img != "" {
			return img
		}
	}

	for _, sel := range []string{
		`img[class*="product"]`,
		`img[class*="main"]`,
		`img[class*="primary"]`,
	} {
		if src, exists := doc.Find(sel).First().Attr("src"); exists {
			if img := resolveImage(src, base); img != "" {
				return img
			}
		}
	}

	// Last resort: the first image that does not look like page chrome.
	var fallback string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, exists := s.Attr("src")
		if !exists {
			return true
		}
		lower := strings.ToLower(src + " " + s.AttrOr("class", "") + " " + s.AttrOr("id", ""))
		for _, skip := range []string{"icon", "logo", "sprite", "banner", "avatar"} {
			if strings.Contains(lower, skip) {
				return true
			}
		}
		if img := resolveImage(src, base); img != "" {
			fallback = img
			return false
		}
		return true
	})
	return fallback
}

func resolveImage(ref string, base *url.URL) string {
	return util.ResolveURL(ref, base)
}
