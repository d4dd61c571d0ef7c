package parser

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waterme/internal/errors"
)

func TestTimeParseErrorError(t *testing.T) {
	err := &TimeParseError{
		Input:   "badtime",
		Field:   "timestamp",
		Message: "could not parse time",
	}
	result := err.Error()
	assert.Contains(t, result, "invalid timestamp")
	assert.Contains(t, result, "badtime")
	assert.Contains(t, result, "could not parse time")
}

func TestNewTimeParseError(t *testing.T) {
	err := NewTimeParseError("interval", "xyz", "invalid format", "7", "2w", "1 month")
	assert.Equal(t, "interval", err.Field)
	assert.Equal(t, "xyz", err.Input)
	assert.Len(t, err.Examples, 3)
	assert.Nil(t, err.Kind)
}

func TestFormatWithExamples(t *testing.T) {
	t.Run("with_examples", func(t *testing.T) {
		result := NewIntervalError("often").FormatWithExamples()
		assert.Contains(t, result, "invalid interval 'often'")
		assert.Contains(t, result, "Valid examples:")
		assert.Contains(t, result, "2 weeks")
		assert.Contains(t, result, "months (30 days)")
	})

	t.Run("no_examples_no_suggestion", func(t *testing.T) {
		err := &TimeParseError{Input: "badtime", Field: "timestamp", Message: "could not parse"}
		assert.NotContains(t, err.FormatWithExamples(), "Valid examples:")
	})
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, NewIntervalError("x"), errors.ErrInvalidInterval)
	assert.ErrorIs(t, NewIntervalRangeError("400"), errors.ErrInvalidInterval)
	assert.ErrorIs(t, NewTimestampError("x"), errors.ErrInvalidTimestamp)
	assert.ErrorIs(t, NewSortError("x"), errors.ErrInvalidSortOrder)
}

func TestToUserError(t *testing.T) {
	t.Run("keeps_kind", func(t *testing.T) {
		err := NewTimestampError("someday").ToUserError()
		assert.ErrorIs(t, err, errors.ErrInvalidTimestamp)
		ue, ok := errors.AsUserError(err)
		require.True(t, ok)
		assert.Equal(t, "timestamp", ue.Field)
		assert.Equal(t, "someday", ue.Value)
	})

	t.Run("examples_become_suggestion", func(t *testing.T) {
		err := &TimeParseError{
			Input:    "x",
			Field:    "interval",
			Message:  "could not parse",
			Examples: []string{"7", "2w", "1 month", "weekly"},
		}
		ue, ok := errors.AsUserError(err.ToUserError())
		require.True(t, ok)
		assert.Equal(t, "Try: 7, 2w, 1 month", ue.Suggestion)
	})
}

func TestAsUserError(t *testing.T) {
	plain := stderrors.New("plain")
	assert.Same(t, plain, AsUserError(plain))
	assert.True(t, errors.IsUserError(AsUserError(NewIntervalError("x"))))
}
