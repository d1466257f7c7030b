package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"timely/pkg/api"
	"timely/pkg/calendar"
	"timely/pkg/engine"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureSlotVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tasksLoadedMsg:
		if msg.err != nil {
			// Keep showing the last good board
			m.err = msg.err
			return m, nil
		}
		m.state.Apply(msg.tasks)
		m.present()
		m.clampCursor()
		return m, nil

	case eventsLoadedMsg:
		if !msg.window.Start.Equal(m.grid.Window().Start.Time) {
			return m, nil // a week we already left
		}
		if msg.err != nil {
			m.err = msg.err
			m.events = nil
		} else {
			m.events = msg.events
		}
		m.present()
		return m, nil

	case resultMsg:
		if msg.Err != nil {
			m.err = fmt.Errorf("%s: %w", msg.Command.Name(), msg.Err)
		} else {
			m.status = describe(msg.Result)
		}
		return m, m.refresh(msg.Result)

	case reorderedMsg:
		if err := msg.txn.Settle(msg.err); err != nil {
			m.err = fmt.Errorf("move reverted: %w", err)
			m.follow(msg.drag.TaskID)
		}
		return m, nil

	case droppedMsg:
		if err := m.bridge.Finish(msg.txn, msg.tempID, msg.err); err != nil {
			m.err = fmt.Errorf("schedule reverted: %w", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Scheduled %q", msg.title)
		return m, m.fetchEvents()

	case eventMovedMsg:
		if err := msg.txn.Settle(msg.err); err != nil {
			m.err = fmt.Errorf("event move reverted: %w", err)
			return m, nil
		}
		m.storeEvent(msg.event)
		return m, nil

	case prefilledMsg:
		m.fillInputs(m.editor.OpenFromBoard(msg.task, msg.event))
		m.mode = EditMode
		return m, nil

	case savedMsg:
		m.editor.Apply(msg.saved)
		if msg.err != nil {
			// The form stays open so the user can retry
			m.err = msg.err
			return m, m.reload()
		}
		m.closeForm()
		m.status = "Saved"
		return m, m.reload()

	case removedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.editor.DetachAnchor()
		m.inputs[fieldDate].SetValue("")
		m.inputs[fieldTime].SetValue("")
		m.status = "Removed from calendar"
		return m, m.reload()

	case sessionDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state.Store.Remove(msg.taskID)
		m.state.RefreshTags()
		m.closeForm()
		m.clampCursor()
		m.status = "Deleted"
		return m, m.reload()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case NormalMode:
		return m.handleNormalKey(msg)

	case TagMode:
		switch {
		case key.Matches(msg, m.keyMap.Cancel), key.Matches(msg, m.keyMap.TagFilter):
			m.mode = NormalMode
		case key.Matches(msg, m.keyMap.Left):
			if m.tagCursor > 0 {
				m.tagCursor--
			}
		case key.Matches(msg, m.keyMap.Right):
			if m.tagCursor < len(m.state.AvailableTags())-1 {
				m.tagCursor++
			}
		case key.Matches(msg, m.keyMap.ToggleTag):
			tags := m.state.AvailableTags()
			if m.tagCursor < len(tags) {
				m.state.Selection.Toggle(tags[m.tagCursor])
				m.clampCursor()
				m.present()
				return m, m.fetchEvents()
			}
		case key.Matches(msg, m.keyMap.ClearTags):
			m.state.Selection.Clear()
			m.clampCursor()
			m.present()
			return m, m.fetchEvents()
		case key.Matches(msg, m.keyMap.QuitApp):
			return m, tea.Quit
		}
		return m, nil

	case AddMode, QuickAddMode, EditMode, EventMode:
		return m.handleFormKey(msg)

	case DeleteConfirmMode:
		switch msg.String() {
		case "y", "Y":
			return m, m.performDelete()
		case "n", "N", "esc":
			m.cancelDelete()
		}
		return m, nil

	case HelpViewMode:
		switch {
		case key.Matches(msg, m.keyMap.ShowHelp), key.Matches(msg, m.keyMap.Cancel):
			m.mode = NormalMode
		case key.Matches(msg, m.keyMap.QuitApp):
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A new key press clears the last message
	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, m.keyMap.QuitApp):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.ShowHelp):
		m.mode = HelpViewMode

	case key.Matches(msg, m.keyMap.SwitchPane):
		if m.pane == BoardPane {
			m.pane = CalendarPane
		} else {
			m.pane = BoardPane
		}

	case key.Matches(msg, m.keyMap.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keyMap.TagFilter):
		if len(m.state.AvailableTags()) > 0 {
			m.mode = TagMode
			m.clampCursor()
		} else {
			m.status = "No tags to filter by"
		}

	case key.Matches(msg, m.keyMap.ClearTags):
		m.state.Selection.Clear()
		m.clampCursor()
		m.present()
		return m, m.fetchEvents()

	case key.Matches(msg, m.keyMap.PrevWeek):
		return m, m.setWindow(m.grid.Window().Prev())

	case key.Matches(msg, m.keyMap.NextWeek):
		return m, m.setWindow(m.grid.Window().Next())

	case key.Matches(msg, m.keyMap.JumpToToday):
		now := m.now()
		cmd := m.setWindow(calendar.Week(now))
		m.day = dayIndex(m.grid.Window(), api.AsLocal(now))
		m.slot = calendar.SlotIndex(api.AsLocal(now))
		m.ensureSlotVisible()
		return m, cmd

	case key.Matches(msg, m.keyMap.NarrowColumn):
		m.resizeColumn(-5)

	case key.Matches(msg, m.keyMap.WidenColumn):
		m.resizeColumn(5)

	case key.Matches(msg, m.keyMap.AddTask):
		m.resetInputs()
		m.mode = AddMode

	case key.Matches(msg, m.keyMap.QuickAdd):
		m.resetInputs()
		m.mode = QuickAddMode

	case key.Matches(msg, m.keyMap.ScheduleTask):
		return m, m.scheduleCard()

	default:
		if m.pane == CalendarPane {
			return m.handleCalendarKey(msg)
		}
		return m.handleBoardKey(msg)
	}
	return m, nil
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.row--
		m.clampCursor()
	case key.Matches(msg, m.keyMap.Down):
		m.row++
		m.clampCursor()
	case key.Matches(msg, m.keyMap.Left):
		m.col--
		m.clampCursor()
	case key.Matches(msg, m.keyMap.Right):
		m.col++
		m.clampCursor()

	case key.Matches(msg, m.keyMap.MoveUp):
		return m, m.moveCard(0, -1)
	case key.Matches(msg, m.keyMap.MoveDown):
		return m, m.moveCard(0, 1)
	case key.Matches(msg, m.keyMap.MoveLeft):
		return m, m.moveCard(-1, 0)
	case key.Matches(msg, m.keyMap.MoveRight):
		return m, m.moveCard(1, 0)

	case key.Matches(msg, m.keyMap.EditTask):
		if t, ok := m.selectedTask(); ok {
			return m, m.openEditor(t)
		}

	case key.Matches(msg, m.keyMap.DeleteTask):
		if t, ok := m.selectedTask(); ok {
			m.confirmDelete(deleteTarget{kind: deleteTask, taskID: t.ID, title: t.Title})
		}

	case key.Matches(msg, m.keyMap.Unschedule):
		if t, ok := m.selectedTask(); ok {
			return m, m.dispatch(engine.SetScheduleCmd{TaskID: t.ID, Title: t.Title})
		}
	}
	return m, nil
}

func (m Model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	const day = 24 * time.Hour

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.slot > -1 {
			m.slot--
			m.ensureSlotVisible()
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.slot < calendar.SlotsPerDay-1 {
			m.slot++
			m.ensureSlotVisible()
		}
	case key.Matches(msg, m.keyMap.Left):
		if m.day > 0 {
			m.day--
		}
	case key.Matches(msg, m.keyMap.Right):
		if m.day < len(m.grid.Window().Days())-1 {
			m.day++
		}

	case key.Matches(msg, m.keyMap.MoveUp):
		return m, m.moveEvent(-api.SlotDuration, 0)
	case key.Matches(msg, m.keyMap.MoveDown):
		return m, m.moveEvent(api.SlotDuration, 0)
	case key.Matches(msg, m.keyMap.MoveLeft):
		return m, m.moveEvent(-day, 0)
	case key.Matches(msg, m.keyMap.MoveRight):
		return m, m.moveEvent(day, 0)
	case key.Matches(msg, m.keyMap.Shorter):
		return m, m.moveEvent(0, -api.SlotDuration)
	case key.Matches(msg, m.keyMap.Longer):
		return m, m.moveEvent(0, api.SlotDuration)

	case key.Matches(msg, m.keyMap.EditTask):
		if it, ok := m.itemAtCursor(); ok {
			m.openFromCalendar(it)
			return m, nil
		}
		m.startEvent()

	case key.Matches(msg, m.keyMap.NewEvent):
		m.startEvent()

	case key.Matches(msg, m.keyMap.DeleteTask):
		it, ok := m.itemAtCursor()
		if !ok || it.Provisional {
			return m, nil
		}
		if it.Linked() {
			m.confirmDelete(deleteTarget{kind: removeFromCal, taskID: *it.TaskID, eventID: it.ID, title: it.Title})
		} else {
			m.confirmDelete(deleteTarget{kind: deleteEvent, eventID: it.ID, title: it.Title})
		}
	}
	return m, nil
}

// startEvent opens the title prompt for a free-standing event at the cursor
func (m *Model) startEvent() {
	m.resetInputs()
	m.eventStart = m.cursorTime()
	m.mode = EventMode
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keyMap.Save):
		return m, m.submitForm()

	case msg.Type == tea.KeyEnter:
		if m.activeInput == fieldsFor(m.mode)-1 {
			return m, m.submitForm()
		}
		m.focusNextInput()
		return m, nil

	case key.Matches(msg, m.keyMap.NextField):
		m.focusNextInput()
		return m, nil

	case key.Matches(msg, m.keyMap.PrevField):
		m.focusPreviousInput()
		return m, nil

	case m.mode == EditMode && key.Matches(msg, m.keyMap.RemoveFromCalendar):
		sess := m.editor.Current()
		if !sess.CanRemoveFromCalendar() {
			return m, nil
		}
		ctx, editor := m.ctx, m.editor
		return m, func() tea.Msg {
			return removedMsg{err: editor.RemoveSession(ctx, sess)}
		}

	case m.mode == EditMode && key.Matches(msg, m.keyMap.DeleteFromForm):
		m.confirmDelete(deleteTarget{
			kind:   deleteEditedTask,
			taskID: m.editor.Current().TaskID,
			title:  m.inputs[fieldTitle].Value(),
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.activeInput], cmd = m.inputs[m.activeInput].Update(msg)
	return m, cmd
}

// describe is the status line after a successful command
func describe(res engine.Result) string {
	switch c := res.Command.(type) {
	case engine.CreateTaskCmd:
		return fmt.Sprintf("Added %q", c.Task.Title)
	case engine.QuickAddCmd:
		return fmt.Sprintf("Added %q to backlog", c.Title)
	case engine.SetScheduleCmd:
		if c.Start == nil {
			return fmt.Sprintf("Unscheduled %q", c.Title)
		}
		return fmt.Sprintf("Scheduled %q", c.Title)
	case engine.DeleteTaskCmd:
		return "Task deleted"
	case engine.CreateEventCmd:
		return fmt.Sprintf("Created %q", c.Title)
	case engine.DeleteEventCmd:
		return "Event deleted"
	case engine.RemoveFromCalendarCmd:
		return "Removed from calendar"
	}
	return ""
}
