package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/waterme/internal/container"
	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/migrate"
	"github.com/manav03panchal/waterme/internal/query"
)

// Styles for CLI output.
var (
	colorPrimary = lipgloss.Color("#16A34A") // Green
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red
	colorWater   = lipgloss.Color("#3B82F6") // Blue

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorPrimary)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleVessel = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleKind = lipgloss.NewStyle().
			Foreground(colorWater)

	styleLate = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	styleNote = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// VesselName formats a vessel label with its icon.
func (c *CLIFormatter) VesselName(v datum.ReminderVessel) string {
	name := v.DisplayName()
	if name == "" {
		name = "(unnamed)"
	}
	if icon := IconText(v.Icon()); icon != "" {
		name = icon + " " + name
	}
	return c.render(styleVessel, name)
}

// KindName formats a reminder kind.
func (c *CLIFormatter) KindName(k datum.ReminderKind) string {
	return c.render(styleKind, k.String())
}

// Note formats a note.
func (c *CLIFormatter) Note(text string) string {
	return c.render(styleNote, text)
}

// Due formats a due description, highlighting late reminders.
func (c *CLIFormatter) Due(next *time.Time, now time.Time, calc datum.DateCalculator) string {
	text := FormatDue(next, now, calc)
	if next == nil || calc.Section(next, now) == datum.SectionLate {
		return c.render(styleLate, text)
	}
	return text
}

// PrintVessels prints a vessel table.
func (c *CLIFormatter) PrintVessels(vessels []datum.ReminderVessel) {
	if len(vessels) == 0 {
		c.Muted("No plants yet.")
		c.Muted("Use 'waterme vessel add <name>' to add one.")
		return
	}
	rows := make([]TableRow, len(vessels))
	for i, v := range vessels {
		name := v.DisplayName()
		if icon := IconText(v.Icon()); icon != "" {
			name = icon + " " + name
		}
		rows[i] = TableRow{Columns: []string{
			v.ID().String(),
			name,
			fmt.Sprintf("%d", len(v.ReminderIDs())),
			FormatDate(v.CreatedAt()),
		}}
	}
	c.PrintTable([]string{"ID", "NAME", "REMINDERS", "ADDED"}, rows)
}

// PrintVessel prints one vessel and its reminders.
func (c *CLIFormatter) PrintVessel(v datum.ReminderVessel, reminders []datum.Reminder, now time.Time, calc datum.DateCalculator) {
	c.Println(c.VesselName(v))
	c.Printf("  ID: %s\n", v.ID())
	c.Printf("  Added: %s\n", FormatTimeShort(v.CreatedAt()))
	for _, issue := range datum.CheckVessel(v) {
		c.Printf("  %s\n", c.render(styleWarning, "⚠ "+string(issue)))
	}
	if len(reminders) == 0 {
		return
	}
	c.Println()
	c.PrintReminders(reminders, nil, now, calc)
}

// PrintReminders prints a reminder table. names maps vessel ids to labels;
// when nil the vessel column is omitted.
func (c *CLIFormatter) PrintReminders(reminders []datum.Reminder, names map[datum.Identifier]string, now time.Time, calc datum.DateCalculator) {
	if len(reminders) == 0 {
		c.Muted("No reminders.")
		return
	}
	headers := []string{"ID", "KIND", "INTERVAL", "DUE", "NOTE"}
	if names != nil {
		headers = append([]string{"PLANT"}, headers...)
	}
	rows := make([]TableRow, len(reminders))
	for i, r := range reminders {
		cols := []string{
			r.ID().String(),
			r.Kind().String(),
			FormatInterval(r.Interval()),
			FormatDue(r.NextPerformDate(), now, calc),
			datum.ShortLabel(r.Note()),
		}
		if !r.IsEnabled() {
			cols[3] = "disabled"
		}
		if names != nil {
			cols = append([]string{names[r.VesselID()]}, cols...)
		}
		rows[i] = TableRow{Columns: cols}
	}
	c.PrintTable(headers, rows)
	for _, r := range reminders {
		for _, issue := range datum.CheckReminder(r) {
			c.Warning(r.ID().String() + ": " + string(issue))
		}
	}
}

// PrintSections prints the grouped reminder collection. Empty sections are
// skipped.
func (c *CLIFormatter) PrintSections(sections query.Sections[datum.Reminder], names map[datum.Identifier]string, now time.Time, calc datum.DateCalculator) {
	if sections.Count() == 0 {
		c.Muted("Nothing to do.")
		return
	}
	first := true
	for i := 0; i < sections.NumberOfSections(); i++ {
		items := sections.Section(i).All()
		if len(items) == 0 {
			continue
		}
		if !first {
			c.Println()
		}
		first = false
		c.Title(fmt.Sprintf("%s (%d)", sections.Title(i), len(items)))
		for _, r := range items {
			line := fmt.Sprintf("  %-24s %-20s %s", names[r.VesselID()], c.KindName(r.Kind()), c.Due(r.NextPerformDate(), now, calc))
			if note := r.Note(); note != "" {
				line += "  " + c.Note(datum.ShortLabel(note))
			}
			c.Println(line)
			c.Println(c.render(styleMuted, "    "+r.ID().String()))
		}
	}
}

// PrintPerformed prints the reminders that were just performed.
func (c *CLIFormatter) PrintPerformed(reminders []datum.Reminder, names map[datum.Identifier]string, now time.Time, calc datum.DateCalculator) {
	for _, r := range reminders {
		c.Success(fmt.Sprintf("%s: %s done, next %s", names[r.VesselID()], r.Kind(), FormatDue(r.NextPerformDate(), now, calc)))
	}
}

// PrintStatus prints the storage status.
func (c *CLIFormatter) PrintStatus(status container.Status, counts *datum.Counts) {
	c.Title("Storage")
	c.Printf("  Root:       %s\n", status.Root)
	c.Printf("  Engine:     %s\n", status.Engine)
	c.Printf("  Legacy:     %s\n", presence(status.LegacyStore))
	c.Printf("  Relational: %s\n", presence(status.RelationalStore))
	if counts != nil {
		c.Printf("  Contents:   %d plants, %d reminders, %d performs\n", counts.Vessels, counts.Reminders, counts.Performs)
	}
	if status.NeedsMigration {
		c.Println()
		c.Warning("Your plants are in the legacy store.")
		c.Muted("Run 'waterme migrate' to move them into the new store.")
	}
}

// PrintMigration prints a migration result.
func (c *CLIFormatter) PrintMigration(res migrate.Result) {
	if res.Err != nil {
		c.Error("Migration failed: " + res.Err.Error())
		c.Muted("The legacy store was not changed.")
		return
	}
	c.Success(fmt.Sprintf("Migrated %d plants, %d reminders and %d performs in %s",
		res.Counts.Vessels, res.Counts.Reminders, res.Counts.Performs, FormatDuration(res.Duration)))
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

// ProgressBar creates a simple progress bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	if fraction > 1 {
		fraction = 1
	}
	if fraction < 0 {
		fraction = 0
	}

	filled := int(float64(width) * fraction)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table. Widths are measured in terminal cells.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]) + "  ")
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]) + "  ")
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
