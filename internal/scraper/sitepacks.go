package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SitePack is one store's extraction rule set, selected by hostname.
// Selector lists are ordered: the first selector yielding an accepted value
// wins. A harvested original price is only accepted when it is strictly
// greater than the harvested discounted price, which keeps installment
// amounts and unrelated numbers out of the originalPrice field.
type SitePack struct {
	Name  string   `json:"name"`
	Hosts []string `json:"hosts"`

	PriceSelectors         []string `json:"price_selectors"`
	OriginalPriceSelectors []string `json:"original_price_selectors"`

	// HiddenTextSelector, when set, names a child element whose text is the
	// machine-readable price (Amazon hides the clean figure in an offscreen
	// span while the visible markup splits it across nodes).
	HiddenTextSelector string `json:"hidden_text_selector,omitempty"`

	// ImageSelector/ImageAttr locate the product image when the store keeps
	// it outside the usual meta tags (Trendyol's data-image attribute).
	ImageSelector string `json:"image_selector,omitempty"`
	ImageAttr     string `json:"image_attr,omitempty"`

	// MinPrice guards against icon badge numbers and unit prices.
	MinPrice float64 `json:"min_price"`
}

// PackRegistry resolves a hostname to its rule pack.
type PackRegistry struct {
	packs []SitePack
}

func NewPackRegistry(packs []SitePack) *PackRegistry {
	return &PackRegistry{packs: packs}
}

// Lookup returns the pack whose host list matches hostname, or nil.
// A pack host matches exactly or as a dot-suffix ("amazon.com.tr" matches
// host entry "amazon.com.tr", "www.amazon.com.tr" does too).
func (r *PackRegistry) Lookup(hostname string) *SitePack {
	hostname = strings.TrimPrefix(strings.ToLower(hostname), "www.")
	for i := range r.packs {
		for _, h := range r.packs[i].Hosts {
			if hostname == h || strings.HasSuffix(hostname, "."+h) {
				return &r.packs[i]
			}
		}
	}
	return nil
}

// LoadPacks loads the rule pack configuration from a JSON file.
func LoadPacks(path string) ([]SitePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site pack config file: %w", err)
	}
	return LoadPacksFromBytes(data)
}

// LoadPacksFromBytes parses rule pack configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadPacksFromBytes(data []byte) ([]SitePack, error) {
	var packs []SitePack
	if err := json.Unmarshal(data, &packs); err != nil {
		return nil, fmt.Errorf("failed to parse site pack config JSON: %w", err)
	}
	return packs, nil
}

// DefaultPacks returns the fallback configuration if no JSON file is loaded.
// The embedded sitepacks.json is the single source of truth; this mirrors it.
func DefaultPacks() []SitePack {
	return []SitePack{
		{
			Name:  "amazon",
			Hosts: []string{"amazon.com.tr", "amazon.com"},
			PriceSelectors: []string{
				".priceToPay",
				"#corePriceDisplay_desktop_feature_div .a-price.priceToPay",
				"#apex_desktop .a-price.priceToPay",
				"#corePrice_feature_div .a-price.priceToPay",
				"#corePriceDisplay_desktop_feature_div .a-price-whole",
			},
			OriginalPriceSelectors: []string{
				".basisPrice",
				"span.a-price.a-text-price",
				".a-text-strike",
				`span[data-a-strike="true"]`,
			},
			HiddenTextSelector: "span.a-offscreen",
			MinPrice:           20,
		},
		{
			Name:  "trendyol",
			Hosts: []string{"trendyol.com"},
			PriceSelectors: []string{
				"span.prc-dsc",
				".product-price-container .prc-dsc",
			},
			OriginalPriceSelectors: []string{
				"span.prc-org",
				".product-price-container .prc-org",
			},
			ImageSelector: "[data-image]",
			ImageAttr:     "data-image",
			MinPrice:      10,
		},
		{
			Name:  "hepsiburada",
			Hosts: []string{"hepsiburada.com"},
			PriceSelectors: []string{
				`[data-test-id="price-current-price"]`,
				"div.price span",
			},
			OriginalPriceSelectors: []string{
				`[data-test-id="price-old-price"]`,
				"del.price-old",
			},
			MinPrice: 10,
		},
	}
}
