package category

import (
	"testing"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

func TestClassify_KeywordCascade(t *testing.T) {
	tests := []struct {
		text string
		want models.Category
	}{
		{"Laptop Fiyat: 12.499,00 TL", models.CategoryComputers},
		{"Prima bebek bezi 4 numara", models.CategoryBaby},
		{"Xiaomi Robot Süpürge S10", models.CategoryHomeTech},
		{"Whiskas kedi maması 15kg", models.CategoryPets},
		{"Philips Airfryer XXL", models.CategoryHomeTech},
		{"TP-Link Archer AX23 Router", models.CategoryNetworking},
		{"Nike Air Zoom ayakkabı", models.CategoryFashion},
		{"hiçbir şeye benzemeyen ürün", models.CategoryOther},
		{"", models.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(tt.text, ""); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify_LongestPhraseWins(t *testing.T) {
	// "bebek bezi" must not be shadowed by the shorter "bebek" entry; both map
	// to the same bucket, so probe with a phrase whose prefix maps elsewhere:
	// "oto koltuğu" (baby) vs "oto" (auto).
	if got := Classify("Chicco oto koltuğu fırsatı", ""); got != models.CategoryBaby {
		t.Errorf("Classify(oto koltuğu) = %q, want %q", got, models.CategoryBaby)
	}
	if got := Classify("Bosch oto aküsü", ""); got != models.CategoryAutoHardware {
		t.Errorf("Classify(oto) = %q, want %q", got, models.CategoryAutoHardware)
	}
}

func TestClassify_AIOverride(t *testing.T) {
	// Valid AI category wins over the keyword cascade.
	if got := Classify("Laptop çantası", "giyim_moda"); got != models.CategoryFashion {
		t.Errorf("valid AI category should override cascade, got %q", got)
	}
	// Garbage AI values are discarded in favor of the cascade.
	if got := Classify("Laptop çantası", "Electronics & Computers"); got != models.CategoryComputers {
		t.Errorf("invalid AI category should fall back to cascade, got %q", got)
	}
	if got := Classify("", "DROP TABLE deals"); got != models.CategoryOther {
		t.Errorf("garbage AI + empty text should fall back to other, got %q", got)
	}
}

func TestClassify_Totality(t *testing.T) {
	inputs := []struct{ text, ai string }{
		{"", ""},
		{"\x00\xff garbage", "null"},
		{"%%%", "undefined"},
		{"çğıöşü", "diger "}, // trailing space is not a member
	}
	for _, in := range inputs {
		got := Classify(in.text, in.ai)
		if !models.ValidCategory(string(got)) {
			t.Errorf("Classify(%q, %q) = %q, outside taxonomy", in.text, in.ai, got)
		}
	}
}

func TestFromKeywords_TurkishUppercase(t *testing.T) {
	// All-caps Turkish folds İ→i and I→ı, which simple case folding misses.
	tests := []struct {
		text string
		want models.Category
	}{
		{"İŞLEMCİ FIRSATI AMD RYZEN 5", models.CategoryComputers},
		{"JBL KULAKLIK 899 TL", models.CategoryMobile},
		{"WINDOWS 11 PRO LİSANS", models.CategoryNetworking},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := FromKeywords(tt.text)
			if !ok || got != tt.want {
				t.Errorf("FromKeywords(%q) = %q, %v, want %q", tt.text, got, ok, tt.want)
			}
		})
	}
}

func TestFromKeywords_WordBoundary(t *testing.T) {
	// "oto" must not match inside "fotoğraf".
	if _, ok := FromKeywords("fotoğraf baskısı"); ok {
		t.Error("FromKeywords matched a keyword inside a longer word")
	}
}
