package errors

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manav03panchal/waterme/internal/datum"
)

// =============================================================================
// Typed Errors
// =============================================================================

func TestUserErrorError(t *testing.T) {
	t.Run("without_field", func(t *testing.T) {
		err := NewUserError("interval out of range", "")
		assert.Equal(t, "interval out of range", err.Error())
	})

	t.Run("with_field", func(t *testing.T) {
		err := NewUserErrorWithField("interval", "400", "interval out of range", "")
		assert.Equal(t, "interval out of range: '400'", err.Error())
	})
}

func TestSystemErrorUnwrap(t *testing.T) {
	err := NewSystemError("store unreadable", ErrDatabaseCorrupted)
	assert.Equal(t, "store unreadable", err.Error())
	assert.ErrorIs(t, err, ErrDatabaseCorrupted)
	assert.True(t, IsSystemError(fmt.Errorf("wrapped: %w", err)))
}

func TestRecoverableError(t *testing.T) {
	t.Run("single_attempt", func(t *testing.T) {
		err := NewRecoverableError("store busy", ErrLockHeld, 1)
		assert.Equal(t, "store busy", err.Error())
	})

	t.Run("gave_up", func(t *testing.T) {
		err := NewRecoverableError("store busy", fmt.Errorf("open: %w", ErrLockHeld), 6)
		assert.Equal(t, "store busy (gave up after 6 attempts)", err.Error())
		assert.ErrorIs(t, err, ErrLockHeld)
	})

	t.Run("through_datum_error", func(t *testing.T) {
		err := datum.NewError("open", datum.ErrLoad, NewRecoverableError("store busy", ErrLockHeld, 3))
		assert.True(t, IsRecoverableError(err))
		assert.Equal(t, CategoryRecoverable, Classify(err))
		assert.Equal(t, Suggestions[ErrLockHeld], GetSuggestion(err))
	})
}

// =============================================================================
// Classification
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"user_error", NewUserError("bad", ""), CategoryUser},
		{"system_error", NewSystemError("bad", nil), CategorySystem},
		{"recoverable_error", NewRecoverableError("bad", nil, 1), CategoryRecoverable},
		{"disk_full", ErrDiskFull, CategorySystem},
		{"enospc", fmt.Errorf("write: %w", syscall.ENOSPC), CategorySystem},
		{"lock_held", ErrLockHeld, CategoryRecoverable},
		{"eintr", syscall.EINTR, CategoryRecoverable},
		{"plain", errors.New("plain"), CategoryUnknown},

		{"object_deleted", datum.NewError("update", datum.ErrObjectDeleted, nil), CategoryUser},
		{"last_reminder", datum.NewError("delete", datum.ErrUnableToDeleteLastReminder, nil), CategoryUser},
		{"image", datum.NewError("icon", datum.ErrImageCouldntBeCompressedEnough, nil), CategoryUser},
		{"disable", datum.NewError("update", datum.ErrIsEnabledFalseUnsupported, nil), CategoryUser},
		{"ambiguous", datum.NewError("resolve", datum.ErrAmbiguousIdentifier, nil), CategoryUser},
		{"load", datum.NewError("open", datum.ErrLoad, errors.New("boom")), CategorySystem},
		{"write", datum.NewError("save", datum.ErrWrite, nil), CategorySystem},
		{"maintenance", datum.NewError("archive", datum.ErrMaintenance, nil), CategorySystem},
		{"load_while_locked", datum.NewError("open", datum.ErrLoad, fmt.Errorf("store: %w", ErrLockHeld)), CategoryRecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "user", CategoryUser.String())
	assert.Equal(t, "system", CategorySystem.String())
	assert.Equal(t, "recoverable", CategoryRecoverable.String())
	assert.Equal(t, "unknown", Category(99).String())
}

// =============================================================================
// Presentation
// =============================================================================

func TestGetSuggestion(t *testing.T) {
	t.Run("datum_kind", func(t *testing.T) {
		err := datum.NewError("delete reminder", datum.ErrUnableToDeleteLastReminder, nil)
		assert.Contains(t, GetSuggestion(err), "Every plant needs a reminder")
	})

	t.Run("cause_beats_kind", func(t *testing.T) {
		err := datum.NewError("migrate", datum.ErrWrite, fmt.Errorf("preflight: %w", ErrDiskFull))
		assert.Equal(t, Suggestions[ErrDiskFull], GetSuggestion(err))
	})

	t.Run("user_error", func(t *testing.T) {
		assert.Equal(t, "use 7", GetSuggestion(NewUserError("bad", "use 7")))
	})

	t.Run("permission", func(t *testing.T) {
		err := fmt.Errorf("open store: %w", syscall.EACCES)
		assert.Equal(t, Suggestions[os.ErrPermission], GetSuggestion(err))
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, GetSuggestion(errors.New("plain")))
		assert.Empty(t, GetSuggestion(nil))
	})
}

func TestEverySuggestionIsOrdered(t *testing.T) {
	ordered := map[error]bool{}
	for _, err := range suggestionOrder {
		ordered[err] = true
	}
	for err := range Suggestions {
		assert.True(t, ordered[err], "missing from suggestionOrder: %v", err)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Cannot delete the last reminder",
		Title(datum.NewError("delete", datum.ErrUnableToDeleteLastReminder, nil)))
	assert.Equal(t, "Could not open your plants", Title(datum.NewError("open", datum.ErrLoad, nil)))
	assert.Equal(t, "Invalid input", Title(NewUserError("bad", "")))
	assert.Equal(t, "Error", Title(errors.New("plain")))
}

func TestFormatByCategory(t *testing.T) {
	t.Run("nil_error", func(t *testing.T) {
		assert.Empty(t, FormatByCategory(nil))
	})

	t.Run("user_kind", func(t *testing.T) {
		err := datum.NewError("delete reminder", datum.ErrUnableToDeleteLastReminder, nil)
		formatted := FormatByCategory(err)
		assert.Contains(t, formatted, "Cannot delete the last reminder: ")
		assert.Contains(t, formatted, "Try: Every plant needs a reminder")
	})

	t.Run("system_kind", func(t *testing.T) {
		err := datum.NewError("open", datum.ErrLoad, ErrDatabaseCorrupted)
		assert.Contains(t, FormatByCategory(err), "System error")
	})

	t.Run("recoverable", func(t *testing.T) {
		formatted := FormatByCategory(fmt.Errorf("open: %w", ErrLockHeld))
		assert.Contains(t, formatted, "Another waterme process")
	})

	t.Run("unknown_error", func(t *testing.T) {
		assert.Equal(t, "plain error", FormatByCategory(errors.New("plain error")))
	})
}

func TestGetExamples(t *testing.T) {
	assert.NotEmpty(t, GetExamples(fmt.Errorf("parse: %w", ErrInvalidInterval)))
	assert.NotEmpty(t, GetExamples(datum.NewError("delete", datum.ErrUnableToDeleteLastReminder, nil)))
	assert.Nil(t, GetExamples(errors.New("plain")))
}
