// Package output renders WaterMe data for the terminal, as JSON or as
// plain text.
package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"

	"github.com/manav03panchal/waterme/internal/datum"
)

// Format represents the output format type.
type Format string

const (
	FormatCLI   Format = "cli"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCLI, FormatJSON, FormatPlain:
		return Format(s), nil
	case "":
		return FormatCLI, nil
	}
	return "", fmt.Errorf("unknown output format %q (use cli, json or plain)", s)
}

// ColorMode represents the color output mode.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Formatter handles output formatting.
type Formatter struct {
	Writer    io.Writer
	Format    Format
	ColorMode ColorMode
}

// NewFormatter creates a new formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		Writer:    os.Stdout,
		Format:    FormatCLI,
		ColorMode: ColorAuto,
	}
}

// IsColorEnabled returns true if color output is enabled. Plain output is
// never colored.
func (f *Formatter) IsColorEnabled() bool {
	if f.Format == FormatPlain {
		return false
	}
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTerminal(f.Writer)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return false
}

// Print outputs formatted text.
func (f *Formatter) Print(a ...any) {
	fmt.Fprint(f.Writer, a...)
}

// Println outputs formatted text with newline.
func (f *Formatter) Println(a ...any) {
	fmt.Fprintln(f.Writer, a...)
}

// Printf outputs formatted text.
func (f *Formatter) Printf(format string, a ...any) {
	fmt.Fprintf(f.Writer, format, a...)
}

// JSON outputs data as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatTimeShort formats a time without seconds.
func FormatTimeShort(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatDate formats a date only.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// FormatDue describes when a reminder is next due relative to now, counting
// calendar days in the calculator's location.
func FormatDue(next *time.Time, now time.Time, calc datum.DateCalculator) string {
	if next == nil {
		return "never done"
	}
	days := int(math.Round(calc.StartOfDay(*next).Sub(calc.StartOfDay(now)).Hours() / 24))
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "1 day late"
	case days < 0:
		return fmt.Sprintf("%d days late", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// FormatInterval formats an interval in days.
func FormatInterval(days int) string {
	switch {
	case days == 1:
		return "every day"
	case days%7 == 0 && days <= 28:
		if days == 7 {
			return "every week"
		}
		return fmt.Sprintf("every %d weeks", days/7)
	default:
		return fmt.Sprintf("every %d days", days)
	}
}

// IconText renders a vessel icon as text.
func IconText(icon *datum.Icon) string {
	switch {
	case icon == nil:
		return ""
	case icon.Emoji != "":
		return icon.Emoji
	case len(icon.Data) > 0 || icon.Picture != nil:
		return "[img]"
	}
	return ""
}
