// Package validate provides input validation helpers for the WaterMe CLI.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
)

const (
	// MaxNameLength is the maximum length for a vessel display name.
	MaxNameLength = 100
	// MaxNoteLength is the maximum length for a reminder note.
	MaxNoteLength = 1000
	// MaxDetailLength is the maximum length for a move location or other
	// description.
	MaxDetailLength = 200
	// MaxIdentifierLength bounds identifiers accepted on the command line.
	MaxIdentifierLength = 256
)

// DisplayName validates a vessel display name. Empty names are allowed and
// mean "no name".
func DisplayName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: %w", errors.ErrInvalidName, errors.NewUserErrorWithField("name", datum.ShortLabel(name),
			"Name too long",
			fmt.Sprintf("Names must be %d characters or fewer", MaxNameLength)))
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %w", errors.ErrInvalidName,
			errors.NewUserError("Name contains a null byte", "Remove control characters from the name"))
	}
	return nil
}

// Note validates a reminder note.
func Note(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return fmt.Errorf("%w: %w", errors.ErrInvalidNote, errors.NewUserError(
			"Note too long",
			fmt.Sprintf("Notes must be %d characters or fewer", MaxNoteLength)))
	}
	return nil
}

// Interval validates a reminder interval in days.
func Interval(days int) error {
	if days < datum.MinimumInterval || days > datum.MaximumInterval {
		return fmt.Errorf("%w: %w", errors.ErrInvalidInterval, errors.NewUserErrorWithField("interval", fmt.Sprint(days),
			"Interval out of range",
			fmt.Sprintf("Must be between %d and %d days", datum.MinimumInterval, datum.MaximumInterval)))
	}
	return nil
}

// ReminderKind parses and validates a kind name with its optional detail.
// Move and other keep their detail; the rest ignore it.
func ReminderKind(name, detail string) (datum.ReminderKind, error) {
	c, err := datum.ParseKindCase(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return datum.ReminderKind{}, fmt.Errorf("%w: %w", errors.ErrInvalidKind, errors.NewUserErrorWithField("kind", name,
			"Unknown reminder kind",
			"Use one of: water, fertilize, trim, mist, move, other"))
	}
	if utf8.RuneCountInString(detail) > MaxDetailLength {
		return datum.ReminderKind{}, errors.NewUserError("Detail too long",
			fmt.Sprintf("Details must be %d characters or fewer", MaxDetailLength))
	}
	return datum.NewReminderKind(c, SanitizeName(detail)), nil
}

// Identifier validates an identifier typed by the user. Both legacy
// identifiers and relational store URIs are accepted; resolution is left to
// the controller.
func Identifier(raw string) (datum.Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidIdentifier,
			errors.NewUserError("Identifier cannot be empty", "Provide an identifier"))
	}
	if len(raw) > MaxIdentifierLength || strings.ContainsAny(raw, " \t\n\x00") {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidIdentifier, errors.NewUserErrorWithField("id", datum.ShortLabel(raw),
			"Invalid identifier",
			"Identifiers contain no whitespace"))
	}
	return datum.NewIdentifier(raw), nil
}

// Emoji validates an emoji icon. Anything up to a few grapheme-sized runes
// is accepted.
func Emoji(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > 8 {
		return errors.NewUserErrorWithField("emoji", s,
			"Invalid emoji icon",
			"Use a single emoji like 🌵")
	}
	return nil
}

// NonEmpty validates that a string is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}

// InRange validates that an integer is within a range.
func InRange(field string, value, min, max int) error {
	if value < min || value > max {
		return errors.NewUserErrorWithField(field, fmt.Sprint(value),
			"Value out of range",
			fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return nil
}
