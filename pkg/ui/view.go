package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"timely/pkg/api"
	"timely/pkg/calendar"
	"timely/pkg/session"
)

const (
	defaultWidth = 100
	splitWidth   = 150 // board and calendar side by side from here on
	agendaWidth  = 70  // narrower calendars render as a list
	timeGutter   = 6
)

var columnTitles = map[api.Status]string{
	api.StatusTodo:    "To Do",
	api.StatusWorking: "Working",
	api.StatusDone:    "Done",
	api.StatusBacklog: "Backlog",
}

// View renders the UI based on the current mode
func (m Model) View() string {
	var sb strings.Builder

	switch m.mode {
	case NormalMode, TagMode:
		sb.WriteString(m.titleBar())
		sb.WriteString("\n")
		sb.WriteString(m.renderTagBar())
		sb.WriteString("\n\n")
		sb.WriteString(m.renderPanes())
		sb.WriteString("\n")

	case AddMode:
		sb.WriteString(m.banner(fmt.Sprintf(" Add Task to %s ", columnTitles[m.column()]), m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case QuickAddMode:
		sb.WriteString(m.banner(" Quick Add to Backlog ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case EditMode:
		sb.WriteString(m.banner(" Edit Task ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		if sess := m.editor.Current(); sess.AnchorEventStart != nil {
			sb.WriteString(m.muted(fmt.Sprintf("Opened from the calendar event at %s", sess.AnchorEventStart)))
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderForm())

	case EventMode:
		when := m.eventStart.Format("Mon 2006-01-02 15:04")
		if m.slot < 0 {
			when = m.eventStart.Format("Mon 2006-01-02") + " (all day)"
		}
		sb.WriteString(m.banner(" New Event ", m.styles.AccentColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.muted(when))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())

	case DeleteConfirmMode:
		sb.WriteString(m.banner(" Delete ", m.styles.ErrorColor))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderDeleteConfirm())

	case HelpViewMode:
		sb.WriteString(m.renderHelp())
	}

	// Error message if any
	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.ErrorColor)).
			Render(wordwrap.String("Error: "+m.err.Error(), m.screenWidth())))
	} else if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.muted(m.status))
	}

	// Add help status bar at the bottom
	sb.WriteString("\n")
	sb.WriteString(m.helpBar())

	return sb.String()
}

func (m Model) screenWidth() int {
	if m.width == 0 {
		return defaultWidth
	}
	return m.width
}

func (m Model) banner(text, bg string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.styles.SelectedTextColor)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1).
		Render(text)
}

func (m Model) muted(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.MutedTextColor)).Render(text)
}

func (m Model) titleBar() string {
	week := m.grid.Window()
	last := week.End.AddDate(0, 0, -1)
	info := fmt.Sprintf("week of %s to %s", week.Start.Format("Jan 2"), last.Format("Jan 2 2006"))
	return m.banner(" Timely ", m.styles.AccentColor) + " " + m.muted(info)
}

// renderTagBar shows the tag chips; selected chips filter both views
func (m Model) renderTagBar() string {
	tags := m.state.AvailableTags()
	if len(tags) == 0 {
		return m.muted("Tags: none")
	}

	chip := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.TagColor))
	active := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.ActiveTagColor)).Bold(true)

	parts := []string{m.muted("Tags:")}
	for i, tag := range tags {
		style := chip
		label := "[" + tag + "]"
		if m.state.Selection.Has(tag) {
			style = active
			label = "[*" + tag + "]"
		}
		if m.mode == TagMode && i == m.tagCursor {
			style = style.Reverse(true)
		}
		parts = append(parts, style.Render(label))
	}
	if !m.state.Selection.Empty() {
		parts = append(parts, m.muted("(filtered)"))
	}
	return strings.Join(parts, " ")
}

// renderPanes lays out the board and the calendar. Narrow terminals show
// only the pane that has the cursor.
func (m Model) renderPanes() string {
	width := m.screenWidth()
	if width >= splitWidth {
		boardWidth := width * 55 / 100
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderBoard(boardWidth),
			m.renderCalendar(width-boardWidth))
	}
	if m.pane == CalendarPane {
		return m.renderCalendar(width)
	}
	return m.renderBoard(width)
}

// renderBoard renders the four columns at their stored widths
func (m Model) renderBoard(width int) string {
	cells := m.widths.Cells(width)
	cols := make([]string, 0, len(api.DisplayStatuses))

	for i, status := range api.DisplayStatuses {
		w := max(cells[i], 8)
		inner := w - 4 // border and padding

		cards := m.visible(i)
		header := lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(m.styles.AccentColor)).
			Render(truncate.StringWithTail(fmt.Sprintf("%s (%d)", columnTitles[status], len(cards)), uint(inner), "…"))

		lines := []string{header}
		for row, t := range cards {
			selected := m.pane == BoardPane && m.mode == NormalMode && i == m.col && row == m.row
			lines = append(lines, m.renderCard(t, inner, selected))
		}

		border := m.styles.BorderColor
		if m.pane == BoardPane && i == m.col {
			border = m.styles.AccentColor
		}
		cols = append(cols, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1).
			Width(w-2).
			Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// renderCard renders a card: title, first description line, tags
func (m Model) renderCard(t api.Task, width int, selected bool) string {
	clip := func(s string) string {
		return truncate.StringWithTail(s, uint(width), "…")
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.NormalTextColor))
	if selected {
		titleStyle = titleStyle.Bold(true).
			Foreground(lipgloss.Color(m.styles.SelectedTextColor)).
			Background(lipgloss.Color(m.styles.SelectedBgColor))
	}

	lines := []string{titleStyle.Render(clip(t.Title))}
	if desc, _, _ := strings.Cut(strings.TrimSpace(t.Description), "\n"); desc != "" {
		lines = append(lines, m.muted(clip(desc)))
	}
	if len(t.Tags) > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.TagColor)).
			Render(clip("#"+strings.Join(t.Tags, " #"))))
	}
	return "\n" + strings.Join(lines, "\n")
}

func (m Model) renderCalendar(width int) string {
	if width < agendaWidth {
		return m.renderAgenda(width)
	}
	return m.renderWeek(width)
}

// itemStyle colors an item by kind
func (m Model) itemStyle(it calendar.Item) lipgloss.Style {
	bg := m.styles.FreeEventColor
	switch {
	case it.Provisional:
		bg = m.styles.ProvisionalColor
	case it.Linked():
		bg = m.styles.TaskEventColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.styles.SelectedTextColor)).Background(lipgloss.Color(bg))
}

// renderWeek renders the week as a grid of 30-minute slots
func (m Model) renderWeek(width int) string {
	days := m.grid.Window().Days()
	cell := max((width-timeGutter-2)/len(days), 4)
	today := api.AsLocal(m.now()).DateString()
	focused := m.pane == CalendarPane && m.mode == NormalMode

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", timeGutter))
	for i, d := range days {
		style := lipgloss.NewStyle().Width(cell).Bold(i == m.day)
		if d.DateString() == today {
			style = style.Foreground(lipgloss.Color(m.styles.AccentColor))
		}
		sb.WriteString(style.Render(truncate.String(d.Format("Mon 02"), uint(cell-1))))
	}
	sb.WriteString("\n")

	renderCell := func(items []calendar.Item, i, slot int, starts func(calendar.Item) bool) string {
		style := lipgloss.NewStyle().Width(cell)
		text := ""
		if len(items) > 0 {
			it := items[0]
			style = m.itemStyle(it).Width(cell)
			text = "┆"
			if starts(it) {
				text = it.Title
			}
			if len(items) > 1 {
				text = fmt.Sprintf("%s +%d", text, len(items)-1)
			}
		}
		if focused && i == m.day && slot == m.slot {
			style = style.Reverse(true)
			if text == "" {
				text = "·"
			}
		}
		return style.Render(truncate.StringWithTail(text, uint(cell-1), "…"))
	}

	// All-day row
	sb.WriteString(m.muted(fmt.Sprintf("%-*s", timeGutter, "all")))
	for i, d := range days {
		items := m.grid.AllDay(d)
		sb.WriteString(renderCell(items, i, -1, func(calendar.Item) bool { return true }))
	}
	sb.WriteString("\n")

	last := min(m.scroll+m.calendarRows(), calendar.SlotsPerDay)
	for slot := m.scroll; slot < last; slot++ {
		label := ""
		if slot%2 == 0 || slot == m.scroll {
			label = calendar.SlotStart(days[0], slot).ClockString()
		}
		sb.WriteString(m.muted(fmt.Sprintf("%-*s", timeGutter, label)))
		for i, d := range days {
			start := calendar.SlotStart(d, slot)
			first := slot == m.scroll
			sb.WriteString(renderCell(m.grid.At(start), i, slot, func(it calendar.Item) bool {
				return first || !it.Start.Before(start.Time)
			}))
		}
		sb.WriteString("\n")
	}

	border := m.styles.BorderColor
	if m.pane == CalendarPane {
		border = m.styles.AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Render(strings.TrimRight(sb.String(), "\n"))
}

// renderAgenda lists the week's items by day for narrow terminals
func (m Model) renderAgenda(width int) string {
	var sb strings.Builder
	cursor := m.cursorTime().Format("Mon 2006-01-02 15:04")
	if m.slot < 0 {
		cursor = m.cursorDay().Format("Mon 2006-01-02") + " all day"
	}
	sb.WriteString(m.muted("Cursor: " + cursor))
	sb.WriteString("\n")

	groups := calendar.GroupByDay(m.grid.Items())
	if len(groups) == 0 {
		sb.WriteString(m.muted("No events this week"))
	}
	for _, group := range groups {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(m.styles.AccentColor)).
			Render(group.Items[0].Start.Format("Monday 2006-01-02")))
		sb.WriteString("\n")
		for _, it := range group.Items {
			when := fmt.Sprintf("%s-%s", it.Start.ClockString(), it.Ends().ClockString())
			if it.AllDay {
				when = "all day    "
			}
			line := truncate.StringWithTail(when+" "+it.Title, uint(max(width-4, 8)), "…")
			sb.WriteString("  ")
			sb.WriteString(m.itemStyle(it).Render(line))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderForm renders the inputs the current mode uses
func (m Model) renderForm() string {
	labels := [fieldCount]string{
		fieldTitle: "Title:",
		fieldDesc:  "Description:",
		fieldTags:  "Tags:",
		fieldDate:  "Date (YYYY-MM-DD):",
		fieldTime:  "Time (HH:MM):",
	}

	var sb strings.Builder
	for i := 0; i < fieldsFor(m.mode); i++ {
		sb.WriteString(labels[i])
		sb.WriteString("\n")
		sb.WriteString(m.inputs[i].View())
		sb.WriteString("\n\n")
	}

	if fieldsFor(m.mode) == fieldCount {
		opts := session.TimeOptions()
		sb.WriteString(m.muted(fmt.Sprintf("Times run every 30 minutes from %s to %s. An empty time unschedules the task.",
			opts[0], opts[len(opts)-1])))
		sb.WriteString("\n")
	}
	if m.mode == EditMode && m.editor.Current().CanRemoveFromCalendar() {
		sb.WriteString(m.muted(fmt.Sprintf("%s removes this event from the calendar", m.keyMap.RemoveFromCalendar.Help().Key)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderDeleteConfirm() string {
	target := m.pendingDelete
	if target == nil {
		return ""
	}

	var question string
	switch target.kind {
	case deleteTask, deleteEditedTask:
		question = "Delete this task and all of its calendar events?"
	case deleteEvent:
		question = "Delete this event?"
	case removeFromCal:
		question = "Remove this event from the calendar? The task moves to the backlog."
	}

	var sb strings.Builder
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n\n", target.title))
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Press Y to confirm, N to cancel"))
	return sb.String()
}

func (m Model) renderHelp() string {
	var sb strings.Builder

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.AccentColor)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.NormalTextColor))

	section := func(title string, bindings ...key.Binding) {
		sb.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
		sb.WriteString("\n\n")
		for _, b := range bindings {
			sb.WriteString(fmt.Sprintf("%s: %s\n",
				descStyle.Render(b.Help().Desc),
				keyStyle.Render(strings.Join(b.Keys(), "/"))))
		}
		sb.WriteString("\n")
	}

	km := m.keyMap
	section("General", km.ShowHelp, km.QuitApp, km.SwitchPane, km.Refresh)
	section("Navigation", km.Up, km.Down, km.Left, km.Right)
	section("Board", km.AddTask, km.QuickAdd, km.EditTask, km.DeleteTask,
		km.MoveUp, km.MoveDown, km.MoveLeft, km.MoveRight,
		km.ScheduleTask, km.Unschedule, km.NarrowColumn, km.WidenColumn)
	section("Calendar", km.PrevWeek, km.NextWeek, km.JumpToToday, km.NewEvent, km.Shorter, km.Longer)
	section("Tags", km.TagFilter, km.ToggleTag, km.ClearTags)
	section("Forms", km.Save, km.Cancel, km.NextField, km.PrevField, km.RemoveFromCalendar, km.DeleteFromForm)
	return sb.String()
}

// helpBar renders a status bar with the actions of the current mode
func (m Model) helpBar() string {
	var actions []string

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.AccentColor)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.NormalTextColor))
	separator := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.styles.BorderColor)).
		Render(" • ")

	addAction := func(b key.Binding, desc string) {
		actions = append(actions, fmt.Sprintf("%s %s", keyStyle.Render(b.Help().Key), descStyle.Render(desc)))
	}

	km := m.keyMap
	switch m.mode {
	case NormalMode:
		if m.pane == BoardPane {
			addAction(km.AddTask, "add")
			addAction(km.QuickAdd, "quick")
			addAction(km.EditTask, "edit")
			addAction(km.DeleteTask, "del")
			addAction(km.MoveRight, "drag")
			addAction(km.ScheduleTask, "schedule")
			addAction(km.Unschedule, "unschedule")
		} else {
			addAction(km.EditTask, "open")
			addAction(km.NewEvent, "event")
			addAction(km.MoveDown, "drag")
			addAction(km.Longer, "resize")
			addAction(km.NextWeek, "week")
			addAction(km.JumpToToday, "today")
		}
		addAction(km.TagFilter, "tags")
		addAction(km.SwitchPane, "pane")
		addAction(km.ShowHelp, "help")
		addAction(km.QuitApp, "quit")

	case TagMode:
		addAction(km.Left, "prev")
		addAction(km.Right, "next")
		addAction(km.ToggleTag, "toggle")
		addAction(km.ClearTags, "clear")
		addAction(km.Cancel, "done")

	case AddMode, QuickAddMode, EventMode:
		addAction(km.NextField, "next field")
		addAction(km.Save, "save")
		addAction(km.Cancel, "cancel")

	case EditMode:
		addAction(km.NextField, "next field")
		addAction(km.Save, "save")
		if m.editor.Current().CanRemoveFromCalendar() {
			addAction(km.RemoveFromCalendar, "remove from calendar")
		}
		addAction(km.DeleteFromForm, "delete")
		addAction(km.Cancel, "cancel")

	case DeleteConfirmMode:
		actions = append(actions, keyStyle.Render("y")+" "+descStyle.Render("confirm"))
		actions = append(actions, keyStyle.Render("n")+" "+descStyle.Render("cancel"))

	case HelpViewMode:
		addAction(km.Cancel, "back")
		addAction(km.QuitApp, "quit")
	}

	return strings.Join(actions, separator)
}
