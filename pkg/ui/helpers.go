package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/calendar"
	"timely/pkg/database"
	"timely/pkg/engine"
	"timely/pkg/session"
	"timely/pkg/utils"
)

// Messages delivered by the commands below. Every network call runs inside a
// tea.Cmd; what it returns is applied to local state in Update.
type (
	tasksLoadedMsg struct {
		tasks []api.Task
		err   error
	}
	eventsLoadedMsg struct {
		window calendar.Window
		events []api.Event
		err    error
	}
	resultMsg struct {
		engine.Result
	}
	reorderedMsg struct {
		txn  *engine.Txn
		drag board.DragEnd
		err  error
	}
	droppedMsg struct {
		txn    *engine.Txn
		tempID int64
		title  string
		err    error
	}
	eventMovedMsg struct {
		txn   *engine.Txn
		event api.Event // as stored, when err is nil
		err   error
	}
	prefilledMsg struct {
		task  api.Task
		event *api.Event
	}
	savedMsg struct {
		saved session.Saved
		err   error
	}
	removedMsg struct {
		err error
	}
	sessionDeletedMsg struct {
		taskID int64
		err    error
	}
)

// loadTasks fetches every board column
func (m Model) loadTasks() tea.Cmd {
	ctx, lister := m.ctx, m.client
	return func() tea.Msg {
		tasks, err := board.FetchAll(ctx, lister)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

// fetchEvents queries the week currently shown
func (m Model) fetchEvents() tea.Cmd {
	ctx, adapter, w := m.ctx, m.adapter, m.grid.Window()
	return func() tea.Msg {
		evs, err := adapter.Query(ctx, w)
		return eventsLoadedMsg{window: w, events: evs, err: err}
	}
}

// reload refreshes both views
func (m Model) reload() tea.Cmd {
	return tea.Batch(m.loadTasks(), m.fetchEvents())
}

// dispatch runs an engine command in the background
func (m Model) dispatch(cmd engine.Command) tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		return resultMsg{eng.Dispatch(ctx, cmd)}
	}
}

// refresh turns a command result into the loads it asks for
func (m Model) refresh(res engine.Result) tea.Cmd {
	var cmds []tea.Cmd
	if res.ReloadTasks {
		cmds = append(cmds, m.loadTasks())
	}
	if res.RefetchCalendar {
		cmds = append(cmds, m.fetchEvents())
	}
	return tea.Batch(cmds...)
}

// column returns the status under the board cursor
func (m Model) column() api.Status {
	return api.DisplayStatuses[m.col]
}

// visible returns the cards shown in column col
func (m Model) visible(col int) []api.Task {
	return m.state.VisibleColumn(api.DisplayStatuses[col])
}

// selectedTask returns the card under the board cursor
func (m Model) selectedTask() (api.Task, bool) {
	cards := m.visible(m.col)
	if m.row < 0 || m.row >= len(cards) {
		return api.Task{}, false
	}
	return cards[m.row], true
}

// clampCursor keeps the board and tag cursors on existing entries
func (m *Model) clampCursor() {
	if m.col < 0 {
		m.col = 0
	}
	if m.col >= len(api.DisplayStatuses) {
		m.col = len(api.DisplayStatuses) - 1
	}
	if n := len(m.visible(m.col)); m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	if n := len(m.state.AvailableTags()); m.tagCursor >= n {
		m.tagCursor = n - 1
	}
	if m.tagCursor < 0 {
		m.tagCursor = 0
	}
}

// follow puts the board cursor on task id
func (m *Model) follow(id int64) {
	for col := range api.DisplayStatuses {
		for row, t := range m.visible(col) {
			if t.ID == id {
				m.col, m.row = col, row
				return
			}
		}
	}
	m.clampCursor()
}

// dayIndex returns the position of t's day in w, or 0
func dayIndex(w calendar.Window, t api.LocalTime) int {
	for i, d := range w.Days() {
		if d.DateString() == t.DateString() {
			return i
		}
	}
	return 0
}

// cursorDay is midnight of the day under the calendar cursor
func (m Model) cursorDay() api.LocalTime {
	return m.grid.Window().Days()[m.day]
}

// cursorTime is the start of the slot under the calendar cursor
func (m Model) cursorTime() api.LocalTime {
	if m.slot < 0 {
		return m.cursorDay()
	}
	return calendar.SlotStart(m.cursorDay(), m.slot)
}

// itemAtCursor returns the first item covering the calendar cursor
func (m Model) itemAtCursor() (calendar.Item, bool) {
	var items []calendar.Item
	if m.slot < 0 {
		items = m.grid.AllDay(m.cursorDay())
	} else {
		items = m.grid.At(m.cursorTime())
	}
	if len(items) == 0 {
		return calendar.Item{}, false
	}
	return items[0], true
}

// calendarRows is how many slots of the week grid fit on screen
func (m Model) calendarRows() int {
	if m.height == 0 {
		return 16
	}
	return max(m.height-14, 6)
}

// ensureSlotVisible scrolls the week grid to the cursor
func (m *Model) ensureSlotVisible() {
	rows := m.calendarRows()
	if m.slot >= 0 && m.slot < m.scroll {
		m.scroll = m.slot
	}
	if m.slot >= m.scroll+rows {
		m.scroll = m.slot - rows + 1
	}
	m.scroll = max(0, min(m.scroll, calendar.SlotsPerDay-rows))
}

// setWindow switches weeks and fetches the new one
func (m *Model) setWindow(w calendar.Window) tea.Cmd {
	m.grid.SetWindow(w)
	m.events = nil
	return m.fetchEvents()
}

// storeEvent replaces the cached copy of a confirmed event, so later
// re-presents of the week show it where the collaborator has it
func (m *Model) storeEvent(ev api.Event) {
	for i := range m.events {
		if m.events[i].ID == ev.ID {
			m.events[i] = ev
			return
		}
	}
}

// present re-filters the last fetched week against the current state
func (m *Model) present() {
	m.grid.Load(m.adapter.Present(m.events))
}

// moveCard drags the selected card dCol columns sideways or dRow places
// within its column. The store shows the move at once; the reply settles it.
func (m *Model) moveCard(dCol, dRow int) tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	target := m.col + dCol
	if target < 0 || target >= len(api.DisplayStatuses) {
		return nil
	}

	// Visible neighbour the card lands next to; hidden cards still count
	// toward the stored index
	status := api.DisplayStatuses[target]
	shown := m.visible(target)
	var idx int
	if dCol == 0 {
		n := m.row + dRow
		if n < 0 || n >= len(shown) {
			return nil
		}
		idx = m.columnIndex(status, shown[n].ID)
	} else if n := min(m.row, len(shown)); n < len(shown) {
		idx = m.columnIndex(status, shown[n].ID)
	} else if n > 0 {
		idx = m.columnIndex(status, shown[n-1].ID) + 1
	} else {
		idx = len(m.state.Store.Column(status))
	}

	drag := board.DragEnd{TaskID: t.ID, Target: status, NewIndex: idx}
	txn, err := m.reorder.Begin(drag)
	if err != nil {
		m.err = err
		return nil
	}
	m.follow(t.ID)

	ctx, reorder := m.ctx, m.reorder
	return func() tea.Msg {
		return reorderedMsg{txn: txn, drag: drag, err: reorder.Persist(ctx, drag)}
	}
}

// columnIndex is the position of a task in its whole column, filter aside
func (m Model) columnIndex(status api.Status, id int64) int {
	for i, t := range m.state.Store.Column(status) {
		if t.ID == id {
			return i
		}
	}
	return 0
}

// scheduleCard drops the selected card on the calendar cursor
func (m *Model) scheduleCard() tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		m.status = "No card selected"
		return nil
	}
	drop := calendar.PayloadFor(t).DropAt(m.cursorTime())
	if m.slot < 0 {
		drop.AllDay = true
		drop.End = drop.Start.Add(24 * time.Hour)
	}

	txn, tempID := m.bridge.Begin(drop)
	ctx, bridge := m.ctx, m.bridge
	return func() tea.Msg {
		_, err := bridge.Persist(ctx, drop)
		return droppedMsg{txn: txn, tempID: tempID, title: drop.Title, err: err}
	}
}

// moveEvent shifts the event under the calendar cursor by shift and
// stretches its end by grow
func (m *Model) moveEvent(shift, grow time.Duration) tea.Cmd {
	it, ok := m.itemAtCursor()
	if !ok || it.Provisional {
		return nil
	}
	if it.AllDay && shift%(24*time.Hour) != 0 {
		return nil
	}
	start := it.Start.Add(shift)
	end := it.Ends().Add(shift + grow)
	if end.Sub(start.Time) < api.SlotDuration {
		return nil
	}
	if !m.grid.Window().Contains(start) {
		m.status = "Use the week keys to move past this week"
		return nil
	}

	txn, err := m.grid.BeginMove(it.ID, start, end)
	if err != nil {
		m.err = err
		return nil
	}
	m.day = dayIndex(m.grid.Window(), start)
	if !it.AllDay {
		m.slot = calendar.SlotIndex(start)
		m.ensureSlotVisible()
	}

	ctx, eng, id := m.ctx, m.eng, it.ID
	return func() tea.Msg {
		ev, err := eng.MoveEvent(ctx, id, start, end)
		return eventMovedMsg{txn: txn, event: ev, err: err}
	}
}

// openEditor looks up the card's first event, then opens the form
func (m *Model) openEditor(t api.Task) tea.Cmd {
	ctx, editor := m.ctx, m.editor
	return func() tea.Msg {
		return prefilledMsg{task: t, event: editor.Prefill(ctx, t.ID)}
	}
}

// openFromCalendar handles enter on a calendar item: a task's event opens
// its edit session, a free-standing one asks to be deleted
func (m *Model) openFromCalendar(it calendar.Item) {
	if it.Provisional {
		return
	}
	if !it.Linked() {
		m.confirmDelete(deleteTarget{kind: deleteEvent, eventID: it.ID, title: it.Title})
		return
	}
	t, ok := m.state.Store.Get(*it.TaskID)
	if !ok {
		m.err = fmt.Errorf("task %d is not on the board", *it.TaskID)
		return
	}
	ev := api.Event{ID: it.ID, Title: it.Title, Start: it.Start, End: it.End, AllDay: it.AllDay, TaskID: it.TaskID}
	m.fillInputs(m.editor.OpenFromCalendar(t, ev))
	m.mode = EditMode
}

func (m *Model) confirmDelete(target deleteTarget) {
	m.pendingDelete = &target
	m.mode = DeleteConfirmMode
}

// performDelete runs the confirmed deletion
func (m *Model) performDelete() tea.Cmd {
	target := m.pendingDelete
	m.pendingDelete = nil
	m.mode = NormalMode
	if target == nil {
		return nil
	}

	switch target.kind {
	case deleteTask:
		return m.dispatch(engine.DeleteTaskCmd{TaskID: target.taskID})
	case deleteEvent:
		return m.dispatch(engine.DeleteEventCmd{EventID: target.eventID})
	case removeFromCal:
		return m.dispatch(engine.RemoveFromCalendarCmd{TaskID: target.taskID, EventID: target.eventID})
	case deleteEditedTask:
		m.mode = EditMode
		ctx, editor, sess := m.ctx, m.editor, m.editor.Current()
		return func() tea.Msg {
			return sessionDeletedMsg{taskID: sess.TaskID, err: editor.DeleteSession(ctx, sess)}
		}
	}
	return nil
}

// cancelDelete returns to where the deletion was asked for
func (m *Model) cancelDelete() {
	if m.pendingDelete != nil && m.pendingDelete.kind == deleteEditedTask {
		m.mode = EditMode
	} else {
		m.mode = NormalMode
	}
	m.pendingDelete = nil
}

// submitForm handles saving the active form
func (m *Model) submitForm() tea.Cmd {
	f := m.form()
	title := strings.TrimSpace(f.Title)

	switch m.mode {
	case EditMode:
		ctx, editor, sess := m.ctx, m.editor, m.editor.Current()
		return func() tea.Msg {
			saved, err := editor.SaveSession(ctx, sess, f)
			return savedMsg{saved: saved, err: err}
		}

	case AddMode:
		if title == "" {
			m.err = session.ErrTitleRequired
			return nil
		}
		start, err := f.Start(m.now())
		if err != nil {
			m.err = err
			return nil
		}
		cmd := engine.CreateTaskCmd{Task: engine.NewTask{
			Title:       title,
			Description: strings.TrimSpace(f.Description),
			Tags:        session.ParseTags(f.Tags),
			Column:      m.column(),
			Start:       start,
		}}
		m.closeForm()
		return m.dispatch(cmd)

	case QuickAddMode:
		if title == "" {
			m.err = session.ErrTitleRequired
			return nil
		}
		m.closeForm()
		return m.dispatch(engine.QuickAddCmd{Title: title})

	case EventMode:
		if title == "" {
			m.err = session.ErrTitleRequired
			return nil
		}
		cmd := engine.CreateEventCmd{Title: title, Start: m.eventStart, End: m.eventStart.Add(api.SlotDuration)}
		if m.slot < 0 {
			cmd.AllDay = true
			cmd.End = m.eventStart.Add(24 * time.Hour)
		}
		m.closeForm()
		return m.dispatch(cmd)
	}
	return nil
}

// closeForm leaves any form mode
func (m *Model) closeForm() {
	if m.mode == EditMode {
		m.editor.Close()
	}
	m.mode = NormalMode
	m.err = nil
	m.resetInputs()
}

// focusNextInput moves the form cursor forward, wrapping around
func (m *Model) focusNextInput() {
	m.focusInput((m.activeInput + 1) % fieldsFor(m.mode))
}

// focusPreviousInput moves the form cursor back, wrapping around
func (m *Model) focusPreviousInput() {
	n := fieldsFor(m.mode)
	m.focusInput((m.activeInput + n - 1) % n)
}

func (m *Model) focusInput(i int) {
	m.inputs[m.activeInput].Blur()
	m.activeInput = i
	m.inputs[i].Focus()
}

// resizeColumn widens (or narrows, for a negative delta) the column under
// the cursor and stores the result
func (m *Model) resizeColumn(deltaPct float64) {
	gutter := m.col
	if gutter == len(api.DisplayStatuses)-1 {
		// The last column only has a gutter on its left
		gutter--
		deltaPct = -deltaPct
	}
	m.widths = database.ResizeColumns(m.widths, gutter, deltaPct)
	if m.prefs == nil {
		return
	}
	if err := m.prefs.SaveColumnWidths(m.widths); err != nil {
		utils.Log("Saving column widths failed: %v", err)
	}
}
