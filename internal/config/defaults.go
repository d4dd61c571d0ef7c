package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

// Defaults returns the built-in configuration as a flat key map.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"storage.root":           "",
		"storage.open_timeout":   "2s",
		"storage.min_free_space": 10 * 1024 * 1024, // 10MB
		"icon.max_bytes":         40 * 1024,
		"calendar.location":      "Local",
		"calendar.first_weekday": "sunday",
		"migration.lock_timeout": "5s",
		"log.level":              "warn",
		"log.json":               false,
		"dashboard.refresh_cron": "0 0 * * *",
	}
}

// NewDefaultProvider returns a koanf provider over Defaults.
func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(Defaults(), ".")
}
