package errors

import (
	"errors"
	"os"

	"github.com/manav03panchal/waterme/internal/datum"
)

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrInvalidIdentifier: "Use 'waterme vessel list' or 'waterme reminder list' to see identifiers.",
	ErrInvalidTimestamp:  "Try formats like 'yesterday', '2 days ago', 'monday 8am', or '2024-03-13'.",
	ErrInvalidInterval:   "Intervals are whole days between 1 and 180, like '7', '2 weeks', or '10d'.",
	ErrInvalidKind:       "Use one of: water, fertilize, trim, mist, move, other.",
	ErrInvalidSortOrder:  "Reminders sort by next, interval, kind or note; vessels by name or kind.",
	ErrInvalidName:       "Names are plain text up to 100 characters.",
	ErrInvalidNote:       "Notes are plain text up to 1000 characters.",
	ErrMigrationPending:  "Run 'waterme migrate' to move your plants into the new store.",

	// Data layer errors
	datum.ErrObjectDeleted:                  "It was deleted. Refresh the list and try again.",
	datum.ErrUnableToDeleteLastReminder:     "Every plant needs a reminder. Delete the plant instead, or add another reminder first.",
	datum.ErrImageCouldntBeCompressedEnough: "Choose a smaller or simpler image, or use an emoji icon.",
	datum.ErrIsEnabledFalseUnsupported:      "Disabling reminders needs the new store. Run 'waterme migrate' first.",
	datum.ErrAmbiguousIdentifier:            "That identifier matches more than one record. Use the new identifier shown by 'waterme vessel list'.",
	datum.ErrMaintenance:                    "Maintenance could not finish. Nothing was removed; check the log with --debug.",

	// System errors
	ErrDiskFull:          "Free up disk space and try again. Nothing was changed.",
	ErrDatabaseCorrupted: "Restore the store from an archive in the data directory, or run 'waterme migrate --status' to inspect it.",
	ErrLockHeld:          "Another waterme process is using the store. Wait for it to finish and try again.",
	ErrTimeout:           "The operation took too long. Try again.",
	os.ErrPermission:     "Check file permissions in your data directory (~/.local/share/waterme/).",
}

// suggestionOrder fixes lookup order so the most specific cause wins when an
// error matches several entries.
var suggestionOrder = []error{
	ErrDiskFull,
	ErrDatabaseCorrupted,
	ErrLockHeld,
	os.ErrPermission,
	ErrTimeout,
	datum.ErrObjectDeleted,
	datum.ErrUnableToDeleteLastReminder,
	datum.ErrImageCouldntBeCompressedEnough,
	datum.ErrIsEnabledFalseUnsupported,
	datum.ErrAmbiguousIdentifier,
	datum.ErrMaintenance,
	ErrInvalidIdentifier,
	ErrInvalidTimestamp,
	ErrInvalidInterval,
	ErrInvalidKind,
	ErrInvalidSortOrder,
	ErrInvalidName,
	ErrInvalidNote,
	ErrMigrationPending,
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	for _, knownErr := range suggestionOrder {
		if errors.Is(err, knownErr) {
			return Suggestions[knownErr]
		}
	}

	// Check if it's a UserError with a suggestion
	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	return ""
}

// Title returns a short heading for an error, based on its data layer kind
// when it has one.
func Title(err error) string {
	switch datum.KindOf(err) {
	case datum.ErrLoad:
		return "Could not open your plants"
	case datum.ErrCreate:
		return "Could not create"
	case datum.ErrWrite:
		return "Could not save"
	case datum.ErrRead:
		return "Could not read"
	case datum.ErrObjectDeleted:
		return "Already deleted"
	case datum.ErrUnableToDeleteLastReminder:
		return "Cannot delete the last reminder"
	case datum.ErrImageCouldntBeCompressedEnough:
		return "Image too large"
	case datum.ErrIsEnabledFalseUnsupported:
		return "Cannot disable reminders yet"
	case datum.ErrAmbiguousIdentifier:
		return "Ambiguous identifier"
	case datum.ErrMaintenance:
		return "Maintenance failed"
	}
	if IsUserError(err) {
		return "Invalid input"
	}
	return "Error"
}

// CommandExamples provides example commands for common errors.
var CommandExamples = map[error][]string{
	ErrInvalidTimestamp: {
		"waterme perform <reminder> --at yesterday",
		"waterme due --as-of 'next monday'",
	},
	ErrInvalidInterval: {
		"waterme reminder add <vessel> --kind water --every 7",
		"waterme reminder edit <reminder> --every '2 weeks'",
	},
	ErrInvalidKind: {
		"waterme reminder add <vessel> --kind mist",
		"waterme reminder add <vessel> --kind move --detail 'south window'",
	},
	datum.ErrUnableToDeleteLastReminder: {
		"waterme vessel delete <vessel>",
	},
}

// GetExamples returns example commands for an error.
func GetExamples(err error) []string {
	for _, knownErr := range suggestionOrder {
		if examples, ok := CommandExamples[knownErr]; ok && errors.Is(err, knownErr) {
			return examples
		}
	}
	return nil
}
