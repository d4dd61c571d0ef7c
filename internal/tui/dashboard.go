package tui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
	"github.com/manav03panchal/waterme/internal/query"
	"github.com/manav03panchal/waterme/internal/scheduler"
)

// tickMsg is sent when the clock ticks.
type tickMsg time.Time

// sectionsMsg carries a new snapshot of the grouped reminders.
type sectionsMsg struct {
	sections query.Sections[datum.Reminder]
	names    map[datum.Identifier]string
}

// errMsg is sent when an error occurs.
type errMsg struct {
	err error
}

// Performer records performs. datum.BasicController satisfies it.
type Performer interface {
	AppendNewPerform(ids []datum.Identifier) error
}

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	Grouped   *query.Grouped[datum.Reminder]
	Performer Performer
	// Names maps vessel ids to labels. It is called after every change.
	Names    func() (map[datum.Identifier]string, error)
	Calendar datum.DateCalculator
	Now      func() time.Time
	Logger   *slog.Logger

	// TickInterval redraws the relative due dates. Default: one minute.
	TickInterval time.Duration
}

// DashboardModel is the main bubbletea model for the dashboard.
type DashboardModel struct {
	cfg DashboardConfig

	// Observation
	token  *query.GroupedToken[datum.Reminder]
	events chan tea.Msg
	once   sync.Once

	// Data
	sections query.Sections[datum.Reminder]
	names    map[datum.Identifier]string
	rows     [][]Row
	selected datum.Identifier

	// UI state
	width      int
	height     int
	cursor     int
	err        error
	message    string
	messageExp time.Time
}

// NewDashboardModel creates a new dashboard model. Observation starts in
// Init.
func NewDashboardModel(cfg DashboardConfig) *DashboardModel {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Names == nil {
		cfg.Names = func() (map[datum.Identifier]string, error) { return nil, nil }
	}
	return &DashboardModel{
		cfg:    cfg,
		events: make(chan tea.Msg, 1),
	}
}

// Start begins observing the grouped reminders and returns the token a
// day-change scheduler reloads. Later calls return the same token.
func (m *DashboardModel) Start() *query.GroupedToken[datum.Reminder] {
	m.once.Do(func() {
		m.token = m.cfg.Grouped.Observe(m.deliver)
	})
	return m.token
}

// Init starts observation if needed and waits for the first snapshot.
func (m *DashboardModel) Init() tea.Cmd {
	m.Start()
	return tea.Batch(m.waitForEvent(), m.tickCmd())
}

// deliver runs on the observation goroutine. Only the newest snapshot is
// kept when the UI falls behind.
func (m *DashboardModel) deliver(c query.GroupedChange[datum.Reminder]) {
	var msg tea.Msg
	if c.Kind == query.Error {
		msg = errMsg{err: c.Err}
	} else {
		names, err := m.cfg.Names()
		if err != nil {
			msg = errMsg{err: err}
		} else {
			msg = sectionsMsg{sections: c.Sections, names: names}
		}
	}
	for {
		select {
		case m.events <- msg:
			return
		default:
		}
		select {
		case <-m.events:
		default:
		}
	}
}

func (m *DashboardModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Close stops observing.
func (m *DashboardModel) Close() {
	if m.token != nil {
		m.token.Invalidate()
	}
}

// Update handles messages and updates the model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.cfg.Now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		m.rebuildRows()
		return m, m.tickCmd()

	case sectionsMsg:
		m.sections = msg.sections
		m.names = msg.names
		m.err = nil
		m.rebuildRows()
		return m, m.waitForEvent()

	case errMsg:
		m.err = msg.err
		m.cfg.Logger.Error("dashboard observation failed", slog.Any(logging.KeyError, msg.err))
		return m, m.waitForEvent()
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Close()
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "p", "enter", " ":
		m.performSelected()
		return m, nil

	case "r":
		if m.token != nil {
			go m.token.Reload()
		}
		m.setMessage("Reloaded", time.Second)
		return m, nil
	}

	return m, nil
}

func (m *DashboardModel) performSelected() {
	row, ok := m.selectedRow()
	if !ok {
		m.setMessage("Nothing selected", 2*time.Second)
		return
	}
	if row.Disabled {
		m.setMessage("Reminder is disabled", 2*time.Second)
		return
	}
	if m.cfg.Performer == nil {
		return
	}
	if err := m.cfg.Performer.AppendNewPerform([]datum.Identifier{row.ID}); err != nil {
		m.err = err
		return
	}
	m.setMessage(fmt.Sprintf("%s: %s done", row.Vessel, row.Kind), 3*time.Second)
}

// rebuildRows projects the current snapshot and keeps the cursor on the
// selected reminder whenever it is present. Sections update one at a time,
// so a reminder moving between sections may briefly be absent.
func (m *DashboardModel) rebuildRows() {
	now := m.cfg.Now()
	m.rows = make([][]Row, m.sections.NumberOfSections())
	for i := range m.rows {
		col := m.sections.Section(i)
		rows := make([]Row, 0, col.Len())
		for _, r := range col.All() {
			rows = append(rows, NewRow(r, m.names, now, m.cfg.Calendar))
		}
		m.rows[i] = rows
	}

	total := m.rowCount()
	if m.selected != "" {
		if idx, ok := m.flatIndex(m.selected); ok {
			m.cursor = idx
		}
	}
	if m.cursor >= total {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.selected == "" {
		if row, ok := m.selectedRow(); ok {
			m.selected = row.ID
		}
	}
}

func (m *DashboardModel) rowCount() int {
	n := 0
	for _, rows := range m.rows {
		n += len(rows)
	}
	return n
}

func (m *DashboardModel) flatIndex(id datum.Identifier) (int, bool) {
	i := 0
	for _, rows := range m.rows {
		for _, row := range rows {
			if row.ID == id {
				return i, true
			}
			i++
		}
	}
	return 0, false
}

func (m *DashboardModel) selectedRow() (Row, bool) {
	i := m.cursor
	for _, rows := range m.rows {
		if i < len(rows) {
			return rows[i], true
		}
		i -= len(rows)
	}
	return Row{}, false
}

func (m *DashboardModel) moveCursor(delta int) {
	total := m.rowCount()
	if total == 0 {
		return
	}
	m.cursor = (m.cursor + delta + total) % total
	if row, ok := m.selectedRow(); ok {
		m.selected = row.ID
	}
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var parts []string
	parts = append(parts, m.renderHeader())

	if m.err != nil {
		parts = append(parts, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		parts = append(parts, StyleWarning.Render(m.message))
	}

	if m.rowCount() == 0 {
		parts = append(parts, StyleMuted.Render("Nothing to do. Enjoy the greenery."))
	}

	offset := 0
	for i, rows := range m.rows {
		cursor := -1
		if m.cursor >= offset && m.cursor < offset+len(rows) {
			cursor = m.cursor - offset
		}
		offset += len(rows)
		comp := &SectionComponent{Title: m.sections.Title(i), Rows: rows, Width: m.width, Cursor: cursor}
		if view := comp.View(); view != "" {
			parts = append(parts, view)
		}
	}

	parts = append(parts, HelpBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the dashboard header.
func (m *DashboardModel) renderHeader() string {
	title := StyleTitle.Render("WaterMe")
	now := StyleSubtitle.Render(m.cfg.Now().Format("Mon Jan 2, 15:04"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", now) + "\n"
}

// setMessage sets a temporary message.
func (m *DashboardModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.cfg.Now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the dashboard TUI. When days is set, the grouped sections are
// reloaded at every day change.
func Run(cfg DashboardConfig, days *scheduler.Scheduler) error {
	model := NewDashboardModel(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	token := model.Start()
	if days != nil {
		days.ReloadOnDayChange(token)
	}
	defer model.Close()
	_, err := p.Run()
	return err
}
