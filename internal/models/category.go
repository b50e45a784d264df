package models

// Category is one value of the closed deal taxonomy. Any classification input
// must map onto exactly one of these; CategoryOther is the designated fallback.
type Category string

const (
	CategoryComputers    Category = "bilgisayar"
	CategoryMobile       Category = "mobil_cihazlar"
	CategoryGaming       Category = "konsol_oyun"
	CategoryHomeTech     Category = "ev_elektronigi_yasam"
	CategoryFashion      Category = "giyim_moda"
	CategoryGrocery      Category = "supermarket"
	CategoryCosmetics    Category = "kozmetik_bakim"
	CategoryAutoHardware Category = "oto_yapi_market"
	CategoryBaby         Category = "anne_bebek"
	CategorySports       Category = "spor_outdoor"
	CategoryBooks        Category = "kitap_hobi"
	CategoryNetworking   Category = "ag_yazilim"
	CategoryPets         Category = "evcil_hayvan"
	CategoryOther        Category = "diger"
)

// AllCategories lists every taxonomy member, in the order the admin UI shows them.
var AllCategories = []Category{
	CategoryComputers, CategoryMobile, CategoryGaming, CategoryHomeTech,
	CategoryFashion, CategoryGrocery, CategoryCosmetics, CategoryAutoHardware,
	CategoryBaby, CategorySports, CategoryBooks, CategoryNetworking,
	CategoryPets, CategoryOther,
}

// ValidCategory reports whether s is a member of the closed taxonomy.
func ValidCategory(s string) bool {
	for _, c := range AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}
