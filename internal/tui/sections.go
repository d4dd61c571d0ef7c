package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/output"
)

// Row is one reminder as displayed.
type Row struct {
	ID       datum.Identifier
	Vessel   string
	Kind     datum.ReminderKind
	Due      string
	Late     bool
	Disabled bool
	Note     string
}

// NewRow projects a reminder for display.
func NewRow(r datum.Reminder, names map[datum.Identifier]string, now time.Time, calc datum.DateCalculator) Row {
	row := Row{
		ID:       r.ID(),
		Vessel:   names[r.VesselID()],
		Kind:     r.Kind(),
		Due:      output.FormatDue(r.NextPerformDate(), now, calc),
		Disabled: !r.IsEnabled(),
		Note:     datum.ShortLabel(r.Note()),
	}
	if row.Vessel == "" {
		row.Vessel = "(unnamed)"
	}
	if row.Disabled {
		row.Due = "disabled"
	} else {
		row.Late = calc.Section(r.NextPerformDate(), now) == datum.SectionLate
	}
	return row
}

// SectionComponent displays one section of the grouped reminders.
type SectionComponent struct {
	Title string
	Rows  []Row
	Width int
	// Cursor is the selected row, or -1.
	Cursor int
}

// View renders the section. Empty sections render nothing.
func (sc *SectionComponent) View() string {
	if len(sc.Rows) == 0 {
		return ""
	}

	var content strings.Builder
	title := fmt.Sprintf("%s (%d)", sc.Title, len(sc.Rows))
	if sc.Title == datum.SectionLate.String() {
		content.WriteString(StyleLateTitle.Render(title))
	} else {
		content.WriteString(StyleSectionTitle.Render(title))
	}

	for i, row := range sc.Rows {
		content.WriteString("\n")
		content.WriteString(sc.renderRow(row, i == sc.Cursor))
	}

	width := sc.Width - 2
	if width < 20 {
		width = 20
	}
	return StyleSectionBox.Width(width).Render(content.String())
}

func (sc *SectionComponent) renderRow(row Row, selected bool) string {
	marker := "  "
	vessel := StyleVessel.Render(row.Vessel)
	if selected {
		marker = StyleSelected.Render("▸ ")
		vessel = StyleSelected.Render(row.Vessel)
	}

	due := row.Due
	switch {
	case row.Late:
		due = StyleLate.Render(due)
	case row.Disabled:
		due = StyleMuted.Render(due)
	}

	line := marker + vessel + "  " + StyleKind.Render(row.Kind.String()) + "  " + due
	if row.Note != "" {
		line += "  " + StyleNote.Render(row.Note)
	}
	return line
}
