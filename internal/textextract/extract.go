// Package textextract pulls price, store and title candidates straight out of
// raw message text, without touching the network.
package textextract

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
	"github.com/sicakfirsatlar/firsat-bot/internal/price"
	"github.com/sicakfirsatlar/firsat-bot/internal/util"
)

// pricePatterns is ordered most to least specific. The capture group holds the
// numeric part handed to the price parser; the first accepted match wins.
// The "yerine" (instead-of) pattern deliberately captures the second, post-
// discount figure of "99 TL yerine 49,90 TL".
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:yerine|düşen)\s*([0-9][0-9.,]*)\s*(?:TL|₺|TRY)`),
	regexp.MustCompile(`(?i)(?:fiyatı?|sadece|tutarı?|toplam|price)[:\s]\s*([0-9][0-9.,]*)\s*(?:TL|₺|TRY)?`),
	regexp.MustCompile(`(?i)([0-9][0-9.,]*)\s*(?:TL|₺|TRY)`),
}

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// knownStores maps hostname/text tokens to canonical storefront names.
// Ordered so matching stays deterministic when a message names several stores.
var knownStores = []struct {
	token string
	name  string
}{
	{"hepsiburada", "Hepsiburada"},
	{"trendyol", "Trendyol"},
	{"n11", "N11"},
	{"gittigidiyor", "GittiGidiyor"},
	{"amazon", "Amazon"},
	{"vatan", "Vatan Bilgisayar"},
	{"mediamarkt", "MediaMarkt"},
	{"teknosa", "Teknosa"},
	{"pazarama", "Pazarama"},
	{"decathlon", "Decathlon"},
}

// StoreUnknown is the value persisted when no storefront can be derived.
const StoreUnknown = "Bilinmeyen Mağaza"

// redirect hosts carry no storefront information of their own.
var redirectHosts = []string{"google.com", "google.com.tr", "youtube.com", "bit.ly", "t.co", "ty.gl", "hb.biz"}

// Extract parses msg text into text-source candidates: price, store, title.
func Extract(text string) models.Candidates {
	return models.Candidates{
		Source: models.SourceText,
		Price:  ExtractPrice(text),
		Store:  storeFromText(text),
		Title:  ExtractTitle(text),
	}
}

// ExtractPrice runs the regex ladder and returns the first figure the locale
// parser accepts, or 0.
func ExtractPrice(text string) float64 {
	for _, re := range pricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if p := price.Parse(m[1]); p > 0 {
				return p
			}
		}
	}
	return 0
}

// ExtractTitle returns the first non-empty line with URLs stripped, truncated
// to 100 characters.
func ExtractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(urlRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 100 {
			return string(runes[:97]) + "..."
		}
		return line
	}
	return ""
}

// ExtractURLs collects candidate links in precedence order: button URLs first,
// then entity URLs, then URLs found in the text. Duplicates are dropped.
func ExtractURLs(msg models.IncomingMessage) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	for _, u := range msg.ButtonURLs {
		add(u)
	}
	for _, u := range msg.EntityURLs {
		add(u)
	}
	for _, u := range urlRe.FindAllString(msg.Text, -1) {
		add(u)
	}
	return urls
}

// StoreFromDomain derives the storefront name from a link's hostname. The
// domain is harder to spoof than free text, so callers should prefer this over
// the text-derived store. Returns "" when the host names a redirect service or
// cannot be derived at all.
func StoreFromDomain(rawURL string) string {
	host := util.Hostname(rawURL)
	if host == "" {
		return ""
	}
	for _, r := range redirectHosts {
		if host == r || strings.HasSuffix(host, "."+r) {
			return ""
		}
	}
	for _, s := range knownStores {
		if strings.Contains(host, s.token) {
			return s.name
		}
	}
	// Fall back to the registrable domain's first label: "sepetim.com.tr"
	// becomes "Sepetim".
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	label, _, _ := strings.Cut(etld1, ".")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func storeFromText(text string) string {
	lower := strings.ToLower(text)
	for _, s := range knownStores {
		if strings.Contains(lower, s.token) {
			return s.name
		}
	}
	return ""
}
