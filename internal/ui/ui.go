package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"schedule/internal/config"
	"schedule/internal/taskwarrior"
)

type mode int

const (
	modeList mode = iota
	modeReport
	modeConfirm
)

// callTimeout bounds each external `task` invocation so a wedged binary
// cannot freeze the session.
const callTimeout = 30 * time.Second

var sortModes = []string{"default", "project", "scheduled", "due"}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	columnStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cursorRowStyle   = lipgloss.NewStyle().Reverse(true)
	selectedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// binding maps one key to an action. The table is built once per session
// from the resolved config and owned by the model; nothing mutates it later.
type binding struct {
	key   string
	label string
	act   func(Model) (Model, tea.Cmd)
}

type tasksLoadedMsg struct {
	filter string
	tasks  []taskwarrior.Task
	err    error
}

type batchDoneMsg struct {
	filter   string
	tasks    []taskwarrior.Task
	failures []Failure
	err      error
}

type Model struct {
	cfg       config.Config
	store     *Store
	selection *Selection
	fields    *FieldSet
	dispatch  *Dispatcher
	bindings  []binding

	cursor        int
	mode          mode
	input         textinput.Model
	status        string
	notices       []string
	sortIndex     int
	sortDesc      bool
	relativeDates bool
	busy          bool
	loaded        bool
	loadErr       string
	pending       *Plan
	width         int
}

// Run loads the initial view and blocks until the session ends.
func Run(cfg config.Config, client *taskwarrior.Client) error {
	m := New(cfg, client, client)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func New(cfg config.Config, fetcher Fetcher, modifier Modifier) Model {
	fields := NewFieldSet(initialFields(cfg.DefaultDateFields)...)
	selection := NewSelection()
	store := NewStore(fetcher, cfg.DefaultReport)

	dispatch := NewDispatcher(digitHotkeys(cfg.Hotkeys), fields, selection, modifier)
	dispatch.CallTimeout = callTimeout

	ti := textinput.New()
	ti.Placeholder = "e.g. next, all, project:home overdue"
	ti.CharLimit = 128
	ti.Width = 40

	m := Model{
		cfg:       cfg,
		store:     store,
		selection: selection,
		fields:    fields,
		dispatch:  dispatch,
		input:     ti,
		status:    "Loading tasks...",
	}
	m.bindings = buildBindings(cfg.Keys)
	return m
}

// initialFields maps configured names onto the closed field enum. Unknown
// names are dropped; if nothing survives the stock default applies.
func initialFields(names []string) []taskwarrior.DateField {
	var out []taskwarrior.DateField
	for _, name := range names {
		if f, ok := taskwarrior.ParseDateField(name); ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 && len(names) > 0 {
		out = []taskwarrior.DateField{taskwarrior.FieldScheduled}
	}
	return out
}

// digitHotkeys keeps only entries bound to digits 1-9. "0" is reserved for
// clearing and never configurable.
func digitHotkeys(hotkeys map[string]string) map[string]string {
	out := make(map[string]string, len(hotkeys))
	for k, v := range hotkeys {
		if len(k) == 1 && k >= "1" && k <= "9" && v != "" {
			out[k] = v
		}
	}
	return out
}

func buildBindings(keys config.Keymap) []binding {
	b := []binding{
		{keys.Down, "down", func(m Model) (Model, tea.Cmd) { return m.moveCursor(1) }},
		{"down", "", func(m Model) (Model, tea.Cmd) { return m.moveCursor(1) }},
		{keys.Up, "up", func(m Model) (Model, tea.Cmd) { return m.moveCursor(-1) }},
		{"up", "", func(m Model) (Model, tea.Cmd) { return m.moveCursor(-1) }},
		{keys.Select, "select", Model.toggleSelection},
		{keys.SelectAlt, "", Model.toggleSelection},
		{keys.SelectAll, "select all", Model.selectAll},
		{keys.ClearSelected, "clear sel", Model.clearSelection},
		{keys.Report, "report", Model.openReportPrompt},
		{keys.Sort, "sort", Model.cycleSort},
		{keys.SortDirection, "", Model.toggleSortDirection},
		{keys.DateFormat, "dates", Model.toggleDateFormat},
		{keys.Refresh, "refresh", Model.refresh},
	}

	for _, f := range taskwarrior.DateFields() {
		field := f
		b = append(b, binding{
			key:   string(field[:1]),
			label: string(field),
			act:   func(m Model) (Model, tea.Cmd) { return m.toggleField(field) },
		})
	}

	for d := '0'; d <= '9'; d++ {
		key := string(d)
		b = append(b, binding{
			key: key,
			act: func(m Model) (Model, tea.Cmd) { return m.startBatch(key) },
		})
	}

	b = append(b, binding{keys.Quit, "quit", func(m Model) (Model, tea.Cmd) { return m, tea.Quit }})
	return b
}

func (m Model) Init() tea.Cmd {
	return m.reloadCmd(m.store.Filter())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeReport:
			return m.updateReportMode(msg)
		case modeConfirm:
			return m.updateConfirmMode(msg.String())
		default:
			return m.handleListKey(msg.String())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
	case tasksLoadedMsg:
		return m.handleLoaded(msg)
	case batchDoneMsg:
		return m.handleBatchDone(msg)
	}
	return m, nil
}

func (m Model) handleListKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	for _, b := range m.bindings {
		if b.key == key {
			return b.act(m)
		}
	}
	return m, nil
}

func (m Model) moveCursor(delta int) (Model, tea.Cmd) {
	n := m.store.Len()
	if n == 0 {
		return m, nil
	}
	m.cursor = clampCursor(m.cursor+delta, n)
	return m, nil
}

func (m Model) toggleSelection() (Model, tea.Cmd) {
	id := m.currentUUID()
	if id == "" {
		m.status = "No tasks"
		return m, nil
	}
	m.selection.Toggle(id)
	m.status = fmt.Sprintf("%d task(s) selected", m.selection.Len())
	return m, nil
}

func (m Model) selectAll() (Model, tea.Cmd) {
	if m.store.Len() == 0 {
		m.status = "No tasks"
		return m, nil
	}
	m.selection.SelectAll(m.store.UUIDs())
	m.status = fmt.Sprintf("Selected all %d task(s)", m.selection.Len())
	return m, nil
}

func (m Model) clearSelection() (Model, tea.Cmd) {
	m.selection.Clear()
	m.status = "Selection cleared"
	return m, nil
}

func (m Model) toggleField(f taskwarrior.DateField) (Model, tea.Cmd) {
	m.fields.Toggle(f)
	m.status = "Active fields: " + m.activeFieldsLabel()
	return m, nil
}

func (m Model) toggleDateFormat() (Model, tea.Cmd) {
	m.relativeDates = !m.relativeDates
	if m.relativeDates {
		m.status = "Dates: relative"
	} else {
		m.status = "Dates: absolute"
	}
	return m, nil
}

func (m Model) cycleSort() (Model, tea.Cmd) {
	m.sortIndex = (m.sortIndex + 1) % len(sortModes)
	m.cursor = clampCursor(m.cursor, m.store.Len())
	m.status = "Sort: " + m.sortLabel()
	if sortModes[m.sortIndex] == "default" && !m.busy {
		// back to the tool's own ordering, re-fetch so it is current
		m.busy = true
		return m, m.reloadCmd(m.store.Filter())
	}
	return m, nil
}

func (m Model) toggleSortDirection() (Model, tea.Cmd) {
	if sortModes[m.sortIndex] == "default" {
		m.status = "Default order has no direction"
		return m, nil
	}
	m.sortDesc = !m.sortDesc
	m.status = "Sort: " + m.sortLabel()
	return m, nil
}

func (m Model) refresh() (Model, tea.Cmd) {
	if m.busy {
		m.status = "Busy, try again shortly"
		return m, nil
	}
	m.busy = true
	m.status = "Refreshing..."
	return m, m.reloadCmd(m.store.Filter())
}

func (m Model) openReportPrompt() (Model, tea.Cmd) {
	m.mode = modeReport
	m.input.SetValue("")
	m.input.Focus()
	m.status = "Enter report or filter, Esc to cancel"
	return m, nil
}

func (m Model) updateReportMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = "Report change cancelled"
		return m, nil
	case "enter":
		candidate := strings.TrimSpace(m.input.Value())
		m.mode = modeList
		m.input.Blur()
		m.busy = true
		m.status = fmt.Sprintf("Loading %q...", candidate)
		return m, m.reloadCmd(candidate)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) startBatch(key string) (Model, tea.Cmd) {
	if m.busy {
		m.status = "Busy, try again shortly"
		return m, nil
	}
	if m.store.Len() == 0 {
		m.status = "No tasks"
		return m, nil
	}

	plan, err := m.dispatch.Plan(key, m.currentUUID())
	switch {
	case errors.Is(err, ErrUnboundKey):
		m.status = fmt.Sprintf("No date configured for key %q", key)
		return m, nil
	case errors.Is(err, ErrNoActiveFields):
		m.status = "No active date fields, toggle s/d/w first"
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	}

	if m.cfg.ConfirmBeforeSchedule {
		m.pending = &plan
		m.mode = modeConfirm
		m.status = fmt.Sprintf("Apply %s to %d pair(s)? y/n", planValueLabel(plan), len(plan.Pairs))
		return m, nil
	}
	return m.runBatch(plan)
}

func (m Model) updateConfirmMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		if m.pending == nil {
			m.mode = modeList
			return m, nil
		}
		plan := *m.pending
		m.pending = nil
		m.mode = modeList
		return m.runBatch(plan)
	case "n", "N", "esc":
		m.pending = nil
		m.mode = modeList
		m.status = "Cancelled"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) runBatch(plan Plan) (Model, tea.Cmd) {
	m.busy = true
	m.notices = nil
	m.status = fmt.Sprintf("Applying %s to %d pair(s)...", planValueLabel(plan), len(plan.Pairs))
	return m, m.batchCmd(plan)
}

// batchCmd runs every modify pair to completion, then fetches a fresh
// snapshot, all off the input loop. One command per batch: no two batches
// are ever in flight together (the busy latch refuses the second).
func (m Model) batchCmd(plan Plan) tea.Cmd {
	dispatch := m.dispatch
	store := m.store
	filter := m.store.Filter()
	return func() tea.Msg {
		failures := dispatch.Run(context.Background(), plan)

		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		tasks, err := store.Fetch(ctx, filter)
		return batchDoneMsg{filter: filter, tasks: tasks, failures: failures, err: err}
	}
}

func (m Model) reloadCmd(filter string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		tasks, err := store.Fetch(ctx, filter)
		return tasksLoadedMsg{filter: filter, tasks: tasks, err: err}
	}
}

func (m Model) handleLoaded(msg tasksLoadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		if m.loaded {
			m.status = fmt.Sprintf("Export failed for %q: %v (showing previous tasks)", msg.filter, msg.err)
		} else {
			m.loadErr = msg.err.Error()
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
		}
		return m, nil
	}
	m.loaded = true
	m.loadErr = ""
	m.store.Apply(msg.tasks, msg.filter)
	m.selection.Clear()
	m.cursor = 0
	m.status = fmt.Sprintf("Loaded %d task(s)", m.store.Len())
	return m, nil
}

func (m Model) handleBatchDone(msg batchDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	// selection and cursor reset happen no matter how the batch went
	m.selection.Clear()
	m.cursor = 0

	m.notices = nil
	for _, f := range msg.failures {
		m.notices = append(m.notices, fmt.Sprintf("modify %s %s: %v", shortUUID(f.Pair.UUID), f.Pair.Field, f.Err))
	}

	if msg.err != nil {
		m.status = fmt.Sprintf("Reload failed: %v (showing previous tasks)", msg.err)
		return m, nil
	}
	m.loaded = true
	m.loadErr = ""
	m.store.Apply(msg.tasks, msg.filter)

	if len(msg.failures) == 0 {
		m.status = "Batch edit applied"
	} else {
		m.status = fmt.Sprintf("Batch edit finished with %d failure(s)", len(msg.failures))
	}
	return m, nil
}

// displayRows returns the snapshot in display order. The store keeps the
// tool's own ordering; sorting is purely a view concern.
func (m Model) displayRows() []taskwarrior.Task {
	rows := m.store.Ordered()
	sortMode := sortModes[m.sortIndex]
	if sortMode == "default" {
		return rows
	}

	key := func(t taskwarrior.Task) string {
		switch sortMode {
		case "project":
			return t.Project
		case "scheduled":
			return t.Date(taskwarrior.FieldScheduled)
		case "due":
			return t.Date(taskwarrior.FieldDue)
		}
		return ""
	}

	out := make([]taskwarrior.Task, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		// rows without a value go last in either direction
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		if m.sortDesc {
			return a > b
		}
		return a < b
	})
	return out
}

func (m Model) currentUUID() string {
	rows := m.displayRows()
	if len(rows) == 0 {
		return ""
	}
	return rows[clampCursor(m.cursor, len(rows))].UUID
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.mode == modeReport {
		b.WriteString("Report: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.status)
	for _, n := range m.notices {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(n))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.renderHelp()))
	return b.String()
}

func (m Model) renderHeader() string {
	status := fmt.Sprintf("Filter: %s   Active: %s   Sort: %s   Date: %s",
		m.store.Filter(), m.activeFieldsLabel(), m.sortLabel(), m.dateFormatLabel())
	return headerBoxStyle.Render(titleStyle.Render("Schedule") + "\n" + status)
}

func (m Model) renderBody() string {
	if !m.loaded && m.loadErr == "" {
		return "Loading tasks..."
	}
	if m.store.Len() == 0 {
		if m.loadErr != "" {
			return errorStyle.Render("Task export failed: " + m.loadErr)
		}
		return "No tasks"
	}

	var b strings.Builder
	b.WriteString(columnStyle.Render(fmt.Sprintf("   %4s  %-48s %-14s %-12s %-12s %-12s",
		"ID", "Description", "Project", "Scheduled", "Due", "Wait")))
	b.WriteString("\n")

	now := time.Now()
	for i, t := range m.displayRows() {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		marker := " "
		if m.selection.Has(t.UUID) {
			marker = "●"
		}
		line := fmt.Sprintf("%s%s %4d  %-48s %-14s %-12s %-12s %-12s",
			cursor, marker, t.ID,
			truncate(t.Description, 48),
			truncate(t.Project, 14),
			formatDate(t.Date(taskwarrior.FieldScheduled), m.relativeDates, now),
			formatDate(t.Date(taskwarrior.FieldDue), m.relativeDates, now),
			formatDate(t.Date(taskwarrior.FieldWait), m.relativeDates, now))

		switch {
		case i == m.cursor:
			line = cursorRowStyle.Render(line)
		case m.selection.Has(t.UUID):
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderHelp() string {
	var parts []string
	for _, bd := range m.bindings {
		if bd.label == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", bd.key, bd.label))
	}
	parts = append(parts, "1-9 apply date", "0 clear dates")
	return strings.Join(parts, " • ")
}

func (m Model) activeFieldsLabel() string {
	fields := m.fields.Active()
	if len(fields) == 0 {
		return "none"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func (m Model) sortLabel() string {
	sortMode := sortModes[m.sortIndex]
	if sortMode == "default" {
		return sortMode
	}
	if m.sortDesc {
		return sortMode + " desc"
	}
	return sortMode + " asc"
}

func (m Model) dateFormatLabel() string {
	if m.relativeDates {
		return "relative"
	}
	return "absolute"
}

func planValueLabel(plan Plan) string {
	if plan.Key == ClearKey {
		return "clear"
	}
	return fmt.Sprintf("%q", plan.Value)
}

func shortUUID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
