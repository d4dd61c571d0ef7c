package output

import (
	"time"

	"github.com/manav03panchal/waterme/internal/container"
	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/migrate"
	"github.com/manav03panchal/waterme/internal/query"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// VesselOutput represents a vessel in JSON output.
type VesselOutput struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	DisplayName string   `json:"display_name,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
	HasImage    bool     `json:"has_image"`
	ReminderIDs []string `json:"reminder_ids"`
	CreatedAt   string   `json:"created_at"`
	Incomplete  []string `json:"incomplete,omitempty"`
}

// NewVesselOutput creates a VesselOutput from a vessel.
func NewVesselOutput(v datum.ReminderVessel) *VesselOutput {
	out := &VesselOutput{
		ID:          v.ID().String(),
		Kind:        string(v.Kind()),
		DisplayName: v.DisplayName(),
		ReminderIDs: identifierStrings(v.ReminderIDs()),
		CreatedAt:   v.CreatedAt().Format(time.RFC3339),
		Incomplete:  incompleteStrings(datum.CheckVessel(v)),
	}
	if icon := v.Icon(); icon != nil {
		out.Emoji = icon.Emoji
		out.HasImage = len(icon.Data) > 0
	}
	return out
}

// ReminderOutput represents a reminder in JSON output.
type ReminderOutput struct {
	ID              string   `json:"id"`
	VesselID        string   `json:"vessel_id"`
	Kind            string   `json:"kind"`
	Detail          string   `json:"detail,omitempty"`
	Interval        int      `json:"interval_days"`
	Note            string   `json:"note,omitempty"`
	IsEnabled       bool     `json:"is_enabled"`
	NextPerformDate string   `json:"next_perform_date,omitempty"`
	LastPerformDate string   `json:"last_perform_date,omitempty"`
	PerformCount    int      `json:"perform_count"`
	Incomplete      []string `json:"incomplete,omitempty"`
}

// NewReminderOutput creates a ReminderOutput from a reminder.
func NewReminderOutput(r datum.Reminder) *ReminderOutput {
	return &ReminderOutput{
		ID:              r.ID().String(),
		VesselID:        r.VesselID().String(),
		Kind:            string(r.Kind().Case),
		Detail:          r.Kind().Detail,
		Interval:        r.Interval(),
		Note:            r.Note(),
		IsEnabled:       r.IsEnabled(),
		NextPerformDate: formatOptional(r.NextPerformDate()),
		LastPerformDate: formatOptional(r.LastPerformDate()),
		PerformCount:    len(r.Performed()),
		Incomplete:      incompleteStrings(datum.CheckReminder(r)),
	}
}

func incompleteStrings(issues []datum.Incomplete) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = string(issue)
	}
	return out
}

// SectionOutput is one section of the grouped reminder collection.
type SectionOutput struct {
	Title     string            `json:"title"`
	Reminders []*ReminderOutput `json:"reminders"`
}

// DueResponse represents the due command output in JSON.
type DueResponse struct {
	AsOf     string           `json:"as_of"`
	Total    int              `json:"total"`
	Sections []*SectionOutput `json:"sections"`
}

// NewDueResponse flattens grouped sections.
func NewDueResponse(sections query.Sections[datum.Reminder], asOf time.Time) *DueResponse {
	resp := &DueResponse{AsOf: asOf.Format(time.RFC3339), Total: sections.Count()}
	for i := 0; i < sections.NumberOfSections(); i++ {
		out := &SectionOutput{Title: sections.Title(i), Reminders: []*ReminderOutput{}}
		for _, r := range sections.Section(i).All() {
			out.Reminders = append(out.Reminders, NewReminderOutput(r))
		}
		resp.Sections = append(resp.Sections, out)
	}
	return resp
}

// PerformResponse represents the perform command output in JSON.
type PerformResponse struct {
	Status    string            `json:"status"`
	Reminders []*ReminderOutput `json:"reminders"`
}

// MigrateResponse represents the migrate command output in JSON.
type MigrateResponse struct {
	Status          string       `json:"status"`
	Counts          datum.Counts `json:"counts"`
	DurationSeconds float64      `json:"duration_seconds"`
	Error           string       `json:"error,omitempty"`
}

// NewMigrateResponse creates a MigrateResponse from a migration result.
func NewMigrateResponse(res migrate.Result) *MigrateResponse {
	resp := &MigrateResponse{
		Status:          "migrated",
		Counts:          res.Counts,
		DurationSeconds: res.Duration.Seconds(),
	}
	if res.Err != nil {
		resp.Status = "failed"
		resp.Error = res.Err.Error()
	}
	return resp
}

// StatusResponse represents the storage status output in JSON.
type StatusResponse struct {
	container.Status
	Counts *datum.Counts `json:"counts,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintVessels outputs vessels in JSON format.
func (j *JSONFormatter) PrintVessels(vessels []datum.ReminderVessel) error {
	out := make([]*VesselOutput, len(vessels))
	for i, v := range vessels {
		out[i] = NewVesselOutput(v)
	}
	return j.JSON(map[string]any{"vessels": out})
}

// PrintVessel outputs a vessel and its reminders in JSON format.
func (j *JSONFormatter) PrintVessel(v datum.ReminderVessel, reminders []datum.Reminder) error {
	return j.JSON(map[string]any{
		"vessel":    NewVesselOutput(v),
		"reminders": reminderOutputs(reminders),
	})
}

// PrintReminders outputs reminders in JSON format.
func (j *JSONFormatter) PrintReminders(reminders []datum.Reminder) error {
	return j.JSON(map[string]any{"reminders": reminderOutputs(reminders)})
}

// PrintSections outputs grouped sections in JSON format.
func (j *JSONFormatter) PrintSections(sections query.Sections[datum.Reminder], asOf time.Time) error {
	return j.JSON(NewDueResponse(sections, asOf))
}

// PrintPerformed outputs performed reminders in JSON format.
func (j *JSONFormatter) PrintPerformed(reminders []datum.Reminder) error {
	return j.JSON(PerformResponse{Status: "performed", Reminders: reminderOutputs(reminders)})
}

// PrintMigration outputs a migration result in JSON format.
func (j *JSONFormatter) PrintMigration(res migrate.Result) error {
	return j.JSON(NewMigrateResponse(res))
}

// PrintStatus outputs storage status in JSON format.
func (j *JSONFormatter) PrintStatus(status container.Status, counts *datum.Counts) error {
	return j.JSON(StatusResponse{Status: status, Counts: counts})
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(resp ErrorResponse) error {
	if resp.Status == "" {
		resp.Status = "error"
	}
	return j.JSON(resp)
}

func reminderOutputs(reminders []datum.Reminder) []*ReminderOutput {
	out := make([]*ReminderOutput, len(reminders))
	for i, r := range reminders {
		out[i] = NewReminderOutput(r)
	}
	return out
}

func identifierStrings(ids []datum.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
