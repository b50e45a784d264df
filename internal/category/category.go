// Package category maps free text onto the closed deal taxonomy.
//
// Classification is a two-source merge: a keyword cascade over the message
// title/keywords, and an optional AI-proposed category. The AI value wins only
// when it is itself a taxonomy member; everything else degrades to the keyword
// result, and ultimately to CategoryOther. The classifier is total: it never
// returns a value outside the taxonomy.
package category

import (
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sicakfirsatlar/firsat-bot/internal/models"
)

type keywordRule struct {
	phrase string
	cat    models.Category
	re     *regexp.Regexp
}

// keywordTable pairs known keyword phrases with taxonomy values. Multi-word
// phrases matter: "bebek bezi" must be tried before a bare "bebek" so the
// longest known phrase wins. Pet-care entries come first so "kedi maması"
// lands in pets rather than baby food on equal-length ties.
var keywordTable = []keywordRule{
	// Pets.
	{phrase: "kedi kumu", cat: models.CategoryPets},
	{phrase: "mama kabı", cat: models.CategoryPets},
	{phrase: "kedi", cat: models.CategoryPets},
	{phrase: "köpek", cat: models.CategoryPets},
	{phrase: "tasma", cat: models.CategoryPets},
	{phrase: "evcil", cat: models.CategoryPets},

	// Computers and parts.
	{phrase: "bilgisayar", cat: models.CategoryComputers},
	{phrase: "laptop", cat: models.CategoryComputers},
	{phrase: "notebook", cat: models.CategoryComputers},
	{phrase: "ekran kartı", cat: models.CategoryComputers},
	{phrase: "işlemci", cat: models.CategoryComputers},
	{phrase: "anakart", cat: models.CategoryComputers},
	{phrase: "monitör", cat: models.CategoryComputers},
	{phrase: "monitor", cat: models.CategoryComputers},
	{phrase: "klavye", cat: models.CategoryComputers},
	{phrase: "mouse", cat: models.CategoryComputers},
	{phrase: "webcam", cat: models.CategoryComputers},
	{phrase: "yazıcı", cat: models.CategoryComputers},
	{phrase: "power supply", cat: models.CategoryComputers},
	{phrase: "gpu", cat: models.CategoryComputers},
	{phrase: "cpu", cat: models.CategoryComputers},
	{phrase: "ssd", cat: models.CategoryComputers},
	{phrase: "hdd", cat: models.CategoryComputers},
	{phrase: "ram", cat: models.CategoryComputers},
	{phrase: "psu", cat: models.CategoryComputers},

	// Mobile devices.
	{phrase: "akıllı saat", cat: models.CategoryMobile},
	{phrase: "telefon", cat: models.CategoryMobile},
	{phrase: "smartphone", cat: models.CategoryMobile},
	{phrase: "iphone", cat: models.CategoryMobile},
	{phrase: "android", cat: models.CategoryMobile},
	{phrase: "samsung", cat: models.CategoryMobile},
	{phrase: "xiaomi", cat: models.CategoryMobile},
	{phrase: "tablet", cat: models.CategoryMobile},
	{phrase: "ipad", cat: models.CategoryMobile},
	{phrase: "smartwatch", cat: models.CategoryMobile},
	{phrase: "powerbank", cat: models.CategoryMobile},
	{phrase: "kulaklık", cat: models.CategoryMobile},
	{phrase: "airpods", cat: models.CategoryMobile},
	{phrase: "bluetooth", cat: models.CategoryMobile},
	{phrase: "şarj", cat: models.CategoryMobile},
	{phrase: "kılıf", cat: models.CategoryMobile},

	// Consoles and gaming.
	{phrase: "playstation", cat: models.CategoryGaming},
	{phrase: "game pass", cat: models.CategoryGaming},
	{phrase: "epic games", cat: models.CategoryGaming},
	{phrase: "ps plus", cat: models.CategoryGaming},
	{phrase: "konsol", cat: models.CategoryGaming},
	{phrase: "xbox", cat: models.CategoryGaming},
	{phrase: "nintendo", cat: models.CategoryGaming},
	{phrase: "switch", cat: models.CategoryGaming},
	{phrase: "gamepad", cat: models.CategoryGaming},
	{phrase: "joystick", cat: models.CategoryGaming},
	{phrase: "steam", cat: models.CategoryGaming},
	{phrase: "ps5", cat: models.CategoryGaming},
	{phrase: "ps4", cat: models.CategoryGaming},

	// Home electronics and living.
	{phrase: "robot süpürge", cat: models.CategoryHomeTech},
	{phrase: "kahve makinesi", cat: models.CategoryHomeTech},
	{phrase: "çamaşır makinesi", cat: models.CategoryHomeTech},
	{phrase: "televizyon", cat: models.CategoryHomeTech},
	{phrase: "süpürge", cat: models.CategoryHomeTech},
	{phrase: "airfryer", cat: models.CategoryHomeTech},
	{phrase: "fritöz", cat: models.CategoryHomeTech},
	{phrase: "blender", cat: models.CategoryHomeTech},
	{phrase: "buzdolabı", cat: models.CategoryHomeTech},
	{phrase: "klima", cat: models.CategoryHomeTech},
	{phrase: "vantilatör", cat: models.CategoryHomeTech},
	{phrase: "ütü", cat: models.CategoryHomeTech},
	{phrase: "drone", cat: models.CategoryHomeTech},
	{phrase: "kamera", cat: models.CategoryHomeTech},
	{phrase: "tv", cat: models.CategoryHomeTech},

	// Fashion.
	{phrase: "ayakkabı", cat: models.CategoryFashion},
	{phrase: "giyim", cat: models.CategoryFashion},
	{phrase: "elbise", cat: models.CategoryFashion},
	{phrase: "pantolon", cat: models.CategoryFashion},
	{phrase: "gömlek", cat: models.CategoryFashion},
	{phrase: "tişört", cat: models.CategoryFashion},
	{phrase: "t-shirt", cat: models.CategoryFashion},
	{phrase: "kazak", cat: models.CategoryFashion},
	{phrase: "mont", cat: models.CategoryFashion},
	{phrase: "ceket", cat: models.CategoryFashion},
	{phrase: "terlik", cat: models.CategoryFashion},
	{phrase: "çanta", cat: models.CategoryFashion},
	{phrase: "saat", cat: models.CategoryFashion},
	{phrase: "gözlük", cat: models.CategoryFashion},
	{phrase: "nike", cat: models.CategoryFashion},
	{phrase: "adidas", cat: models.CategoryFashion},
	{phrase: "puma", cat: models.CategoryFashion},

	// Grocery.
	{phrase: "kağıt havlu", cat: models.CategoryGrocery},
	{phrase: "tuvalet kağıdı", cat: models.CategoryGrocery},
	{phrase: "deterjan", cat: models.CategoryGrocery},
	{phrase: "temizlik", cat: models.CategoryGrocery},
	{phrase: "kahve", cat: models.CategoryGrocery},
	{phrase: "gıda", cat: models.CategoryGrocery},
	{phrase: "çay", cat: models.CategoryGrocery},
	{phrase: "migros", cat: models.CategoryGrocery},
	{phrase: "carrefour", cat: models.CategoryGrocery},
	{phrase: "a101", cat: models.CategoryGrocery},
	{phrase: "bim", cat: models.CategoryGrocery},

	// Cosmetics and personal care.
	{phrase: "cilt bakımı", cat: models.CategoryCosmetics},
	{phrase: "saç bakımı", cat: models.CategoryCosmetics},
	{phrase: "diş macunu", cat: models.CategoryCosmetics},
	{phrase: "güneş kremi", cat: models.CategoryCosmetics},
	{phrase: "kozmetik", cat: models.CategoryCosmetics},
	{phrase: "makyaj", cat: models.CategoryCosmetics},
	{phrase: "parfüm", cat: models.CategoryCosmetics},
	{phrase: "şampuan", cat: models.CategoryCosmetics},
	{phrase: "krem", cat: models.CategoryCosmetics},
	{phrase: "ruj", cat: models.CategoryCosmetics},
	{phrase: "tıraş", cat: models.CategoryCosmetics},
	{phrase: "gratis", cat: models.CategoryCosmetics},
	{phrase: "watsons", cat: models.CategoryCosmetics},

	// Auto and hardware store.
	{phrase: "motor yağı", cat: models.CategoryAutoHardware},
	{phrase: "yapı market", cat: models.CategoryAutoHardware},
	{phrase: "lastik", cat: models.CategoryAutoHardware},
	{phrase: "silecek", cat: models.CategoryAutoHardware},
	{phrase: "matkap", cat: models.CategoryAutoHardware},
	{phrase: "tornavida", cat: models.CategoryAutoHardware},
	{phrase: "boya", cat: models.CategoryAutoHardware},
	{phrase: "ampul", cat: models.CategoryAutoHardware},
	{phrase: "mangal", cat: models.CategoryAutoHardware},
	{phrase: "koçtaş", cat: models.CategoryAutoHardware},
	{phrase: "oto", cat: models.CategoryAutoHardware},

	// Baby and kids.
	{phrase: "bebek bezi", cat: models.CategoryBaby},
	{phrase: "bebek arabası", cat: models.CategoryBaby},
	{phrase: "oto koltuğu", cat: models.CategoryBaby},
	{phrase: "hot wheels", cat: models.CategoryBaby},
	{phrase: "bebek", cat: models.CategoryBaby},
	{phrase: "baby", cat: models.CategoryBaby},
	{phrase: "çocuk", cat: models.CategoryBaby},
	{phrase: "mama", cat: models.CategoryBaby},
	{phrase: "biberon", cat: models.CategoryBaby},
	{phrase: "emzik", cat: models.CategoryBaby},
	{phrase: "oyuncak", cat: models.CategoryBaby},
	{phrase: "lego", cat: models.CategoryBaby},
	{phrase: "barbie", cat: models.CategoryBaby},
	{phrase: "prima", cat: models.CategoryBaby},
	{phrase: "sleepy", cat: models.CategoryBaby},

	// Sports and outdoor.
	{phrase: "uyku tulumu", cat: models.CategorySports},
	{phrase: "bisiklet", cat: models.CategorySports},
	{phrase: "scooter", cat: models.CategorySports},
	{phrase: "termos", cat: models.CategorySports},
	{phrase: "matara", cat: models.CategorySports},
	{phrase: "çadır", cat: models.CategorySports},
	{phrase: "kamp", cat: models.CategorySports},
	{phrase: "spor", cat: models.CategorySports},

	// Books, hobby, stationery.
	{phrase: "kutu oyunu", cat: models.CategoryBooks},
	{phrase: "kırtasiye", cat: models.CategoryBooks},
	{phrase: "kitap", cat: models.CategoryBooks},
	{phrase: "roman", cat: models.CategoryBooks},
	{phrase: "dergi", cat: models.CategoryBooks},
	{phrase: "puzzle", cat: models.CategoryBooks},
	{phrase: "defter", cat: models.CategoryBooks},

	// Networking and software.
	{phrase: "işletim sistemi", cat: models.CategoryNetworking},
	{phrase: "antivirüs", cat: models.CategoryNetworking},
	{phrase: "antivirus", cat: models.CategoryNetworking},
	{phrase: "yazılım", cat: models.CategoryNetworking},
	{phrase: "modem", cat: models.CategoryNetworking},
	{phrase: "router", cat: models.CategoryNetworking},
	{phrase: "mesh", cat: models.CategoryNetworking},
	{phrase: "lisans", cat: models.CategoryNetworking},
	{phrase: "windows", cat: models.CategoryNetworking},
	{phrase: "office", cat: models.CategoryNetworking},
	{phrase: "vpn", cat: models.CategoryNetworking},
}

func init() {
	// Longest phrase first so "bebek bezi" beats "bebek". The sort is stable,
	// preserving table order on equal lengths.
	sort.SliceStable(keywordTable, func(i, j int) bool {
		return len([]rune(keywordTable[i].phrase)) > len([]rune(keywordTable[j].phrase))
	})
	for i := range keywordTable {
		keywordTable[i].re = regexp.MustCompile(
			`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(keywordTable[i].phrase) + `(?:$|[^\p{L}\p{N}])`)
	}
}

// FromKeywords runs the keyword cascade over text and reports the first
// (longest-phrase) match. Matching is tried on the raw text and on a
// Turkish-lowercased copy: regexp's simple case folding never maps the
// dotted/dotless I pairs, so "İŞLEMCİ" would otherwise miss "işlemci".
func FromKeywords(text string) (models.Category, bool) {
	if text == "" {
		return "", false
	}
	// A cases.Caser is stateful, so build one per call.
	folded := cases.Lower(language.Turkish).String(text)
	for _, rule := range keywordTable {
		if rule.re.MatchString(text) || rule.re.MatchString(folded) {
			return rule.cat, true
		}
	}
	return "", false
}

// Classify resolves the final category for a deal. aiCategory may be empty or
// arbitrary garbage; it only wins when it names a taxonomy member.
func Classify(text, aiCategory string) models.Category {
	if models.ValidCategory(aiCategory) {
		return models.Category(aiCategory)
	}
	if cat, ok := FromKeywords(text); ok {
		return cat
	}
	return models.CategoryOther
}
