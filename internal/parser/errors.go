package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/waterme/internal/errors"
)

// TimeParseError represents a date or interval parsing error with helpful
// suggestions. It unwraps to its Kind sentinel.
type TimeParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	Kind       error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

func (e *TimeParseError) Unwrap() error {
	return e.Kind
}

// NewTimeParseError creates a new parse error with examples.
func NewTimeParseError(field, input, message string, examples ...string) *TimeParseError {
	return &TimeParseError{
		Input:    input,
		Field:    field,
		Message:  message,
		Examples: examples,
	}
}

// FormatWithExamples returns the error message with example suggestions.
func (e *TimeParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// IntervalExamples provides example interval formats.
var IntervalExamples = []string{
	"7",
	"10d",
	"2 weeks",
	"1 month",
	"weekly",
}

// TimestampExamples provides example timestamp formats.
var TimestampExamples = []string{
	"now",
	"yesterday",
	"3 days ago",
	"monday 8am",
	"2024-03-13",
}

// SortExamples provides example sort orders.
var SortExamples = []string{
	"next",
	"-interval",
	"kind",
	"note",
}

// NewIntervalError creates an interval parse error with standard examples.
func NewIntervalError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "interval",
		Message:    "could not parse interval",
		Examples:   IntervalExamples,
		Suggestion: "Intervals are counted in days, weeks (7 days) or months (30 days).",
		Kind:       errors.ErrInvalidInterval,
	}
}

// NewIntervalRangeError reports an interval that parsed but is out of range.
func NewIntervalRangeError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "interval",
		Message:    "interval must be between 1 and 180 days",
		Examples:   IntervalExamples,
		Suggestion: "Pick an interval between 1 day and about 6 months.",
		Kind:       errors.ErrInvalidInterval,
	}
}

// NewTimestampError creates a timestamp parse error with standard examples.
func NewTimestampError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "timestamp",
		Message:    "could not parse time",
		Examples:   TimestampExamples,
		Suggestion: "Try natural language like 'yesterday', '3 days ago' or a date like '2024-03-13'.",
		Kind:       errors.ErrInvalidTimestamp,
	}
}

// NewSortError creates a sort order error with standard examples.
func NewSortError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "sort order",
		Message:    "unknown sort order",
		Examples:   SortExamples,
		Suggestion: "Prefix an order with '-' to sort descending.",
		Kind:       errors.ErrInvalidSortOrder,
	}
}

// ToUserError converts a TimeParseError to a UserError for consistent
// handling. The result still matches the Kind sentinel.
func (e *TimeParseError) ToUserError() error {
	suggestion := e.Suggestion
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	ue := errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
	if e.Kind == nil {
		return ue
	}
	return fmt.Errorf("%w: %w", e.Kind, ue)
}

// AsUserError converts parse errors to user errors and passes anything else
// through.
func AsUserError(err error) error {
	if pe, ok := err.(*TimeParseError); ok {
		return pe.ToUserError()
	}
	return err
}
