package scraper

import (
	"embed"
	"log/slog"
	"os"
)

//go:embed sitepacks.json
var embeddedPacks embed.FS

// LoadPackConfig tries to load site packs in the following order:
// 1. Embedded sitepacks.json
// 2. External file defined by SITEPACKS_CONFIG_PATH (or default "config/sitepacks.json")
// 3. Hardcoded defaults
func LoadPackConfig() *PackRegistry {
	// 1. Try embedded
	data, err := embeddedPacks.ReadFile("sitepacks.json")
	if err == nil {
		packs, parseErr := LoadPacksFromBytes(data)
		if parseErr == nil {
			slog.Info("Loaded site packs from embedded config.", "packs", len(packs))
			return NewPackRegistry(packs)
		}
		slog.Warn("Embedded site packs failed to parse. Trying file fallback.", "error", parseErr)
	}

	// 2. Fallback to external file
	configPath := os.Getenv("SITEPACKS_CONFIG_PATH")
	if configPath == "" {
		configPath = "config/sitepacks.json"
	}

	if filePacks, err := LoadPacks(configPath); err == nil {
		slog.Info("Loaded site packs from external file", "path", configPath)
		return NewPackRegistry(filePacks)
	} else {
		slog.Warn("Failed to load external site packs, falling back to defaults", "path", configPath, "error", err)
	}

	// 3. Fallback to hardcoded defaults
	slog.Info("Using hardcoded default site packs")
	return NewPackRegistry(DefaultPacks())
}
