package validate

import (
	"strings"
	"unicode"
)

// SanitizeName removes control characters from a display name and trims it.
func SanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	return strings.TrimSpace(sb.String())
}

// SanitizeNote cleans a note for safe storage.
func SanitizeNote(note string) string {
	// Trim whitespace
	note = strings.TrimSpace(note)

	// Remove null bytes
	note = strings.ReplaceAll(note, "\x00", "")

	// Normalize line endings
	note = strings.ReplaceAll(note, "\r\n", "\n")
	note = strings.ReplaceAll(note, "\r", "\n")

	return StripControlChars(note)
}

// StripControlChars removes all control characters except newlines and tabs.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
