package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sicakfirsatlar/firsat-bot/internal/price"
)

// decodeJSONLD parses every <script type="application/ld+json"> block on the
// page. Blocks that fail to parse are skipped; stores frequently embed
// multiple blocks and some are malformed.
func decodeJSONLD(doc *goquery.Document) []any {
	var nodes []any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			return
		}
		nodes = append(nodes, node)
	})
	return nodes
}

// jsonLDPrice walks structured data looking for the first plausible price.
// It descends into "offers" arrays and objects and accepts "price" and
// "lowPrice" keys, which covers Product, Offer and AggregateOffer shapes.
func jsonLDPrice(node any, minPrice float64) float64 {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if p := jsonLDPrice(item, minPrice); p > 0 {
				return p
			}
		}
	case map[string]any:
		for _, key := range []string{"price", "lowPrice"} {
			if p := jsonLDNumber(v[key]); p >= minPrice {
				return p
			}
		}
		for _, key := range []string{"offers", "@graph", "mainEntity"} {
			if child, ok := v[key]; ok {
				if p := jsonLDPrice(child, minPrice); p > 0 {
					return p
				}
			}
		}
	}
	return 0
}

// jsonLDImage walks structured data looking for a product image. The
// "image" key may hold a URL string, an ImageObject, or an array of either.
func jsonLDImage(node any) string {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if img := jsonLDImage(item); img != "" {
				return img
			}
		}
	case map[string]any:
		if img := jsonLDImageValue(v["image"]); img != "" {
			return img
		}
		for _, key := range []string{"@graph", "mainEntity"} {
			if child, ok := v[key]; ok {
				if img := jsonLDImage(child); img != "" {
					return img
				}
			}
		}
	}
	return ""
}

func jsonLDImageValue(val any) string {
	switch v := val.(type) {
	case string:
		if strings.HasPrefix(v, "http") {
			return v
		}
	case []any:
		for _, item := range v {
			if img := jsonLDImageValue(item); img != "" {
				return img
			}
		}
	case map[string]any:
		if u, ok := v["url"].(string); ok && strings.HasPrefix(u, "http") {
			return u
		}
	}
	return ""
}

// jsonLDNumber coerces a structured-data price value, which stores emit as
// either a JSON number or a formatted string.
func jsonLDNumber(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case string:
		return price.Parse(v)
	}
	return 0
}
