package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/calendar"
	"timely/pkg/config"
	"timely/pkg/database"
	"timely/pkg/engine"
	"timely/pkg/keymaps"
	"timely/pkg/session"
	"timely/pkg/utils"
)

// InputMode represents the current input mode
type InputMode int

const (
	NormalMode InputMode = iota
	TagMode              // Tag chip bar has the cursor
	AddMode              // Adding a task to a column
	QuickAddMode         // Adding a title-only task to the backlog
	EditMode             // Edit session form
	EventMode            // Titling a new free-standing event
	DeleteConfirmMode
	HelpViewMode // Mode for displaying help
)

// Pane is the half of the screen that has the cursor
type Pane int

const (
	BoardPane Pane = iota
	CalendarPane
)

// Form fields, in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldTags
	fieldDate
	fieldTime
	fieldCount
)

// firstVisibleSlot is where the week grid scrolls to on start (08:00)
const firstVisibleSlot = 16

// Collaborator is everything the UI talks to over the network
type Collaborator interface {
	engine.Tasks
	engine.Events
	board.TaskLister
	calendar.EventLister
}

type deleteKind int

const (
	deleteTask       deleteKind = iota // a card and its events
	deleteEvent                        // a free-standing event
	removeFromCal                      // a task's event; the task goes to backlog
	deleteEditedTask                   // the task of the open edit session
)

// deleteTarget is what DeleteConfirmMode will delete
type deleteTarget struct {
	kind    deleteKind
	taskID  int64
	eventID int64
	title   string
}

// Model represents the application state
type Model struct {
	ctx    context.Context
	client Collaborator
	state  *board.State
	eng    *engine.Engine
	events []api.Event // last fetched week, before filtering

	reorder *board.Reorderer
	adapter *calendar.Adapter
	grid    *calendar.Grid
	bridge  *calendar.Bridge
	editor  *session.Editor

	prefs  *database.Prefs // nil when preferences are not persisted
	widths database.ColumnWidths

	width, height int
	err           error
	status        string

	// Configuration
	config config.Config
	styles config.Styles
	keyMap keymaps.KeyMap

	// Cursor state
	pane      Pane
	col, row  int
	day, slot int // slot -1 is the all-day row
	scroll    int
	tagCursor int

	// Form state
	mode        InputMode
	inputs      []textinput.Model
	activeInput int
	eventStart  api.LocalTime

	pendingDelete *deleteTarget
	now           func() time.Time
}

// NewModel creates a new UI model over the collaborator. prefs may be nil.
func NewModel(ctx context.Context, client Collaborator, prefs *database.Prefs, cfg config.Config, styles config.Styles) Model {
	state := board.NewState()
	eng := engine.New(client, client)
	grid := calendar.NewGrid(calendar.Week(time.Now()))

	m := Model{
		ctx:     ctx,
		client:  client,
		state:   state,
		eng:     eng,
		reorder: board.NewReorderer(state.Store, eng),
		adapter: calendar.NewAdapter(client, state),
		grid:    grid,
		bridge:  calendar.NewBridge(grid, eng),
		editor:  session.NewEditor(state, eng, client),
		prefs:   prefs,
		widths:  database.DefaultColumnWidths,
		config:  cfg,
		styles:  styles,
		keyMap:  keymaps.BuildKeyMap(cfg.KeyMap),
		mode:    NormalMode,
		inputs:  newInputs(),
		slot:    firstVisibleSlot,
		scroll:  firstVisibleSlot,
		now:     time.Now,
	}
	m.day = dayIndex(grid.Window(), api.AsLocal(m.now()))

	if prefs != nil {
		w, err := prefs.LoadColumnWidths()
		if err != nil {
			utils.Log("Column widths unavailable: %v", err)
		}
		m.widths = w
	}
	return m
}

func newInputs() []textinput.Model {
	placeholders := [fieldCount]string{
		fieldTitle: "Title",
		fieldDesc:  "Description",
		fieldTags:  "Tags (comma separated)",
		fieldDate:  "Date (YYYY-MM-DD, empty for today)",
		fieldTime:  "Time (HH:MM on the half hour, empty to unschedule)",
	}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Width = 50
		in.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = in
	}
	inputs[fieldTitle].CharLimit = 200
	inputs[fieldTime].CharLimit = 5
	return inputs
}

// Init loads the board and the current week
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasks(), m.fetchEvents())
}

// resetInputs clears all form inputs
func (m *Model) resetInputs() {
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.activeInput = 0
	m.inputs[0].Focus()
}

// fillInputs loads a session form into the inputs
func (m *Model) fillInputs(f session.Form) {
	m.resetInputs()
	m.inputs[fieldTitle].SetValue(f.Title)
	m.inputs[fieldDesc].SetValue(f.Description)
	m.inputs[fieldTags].SetValue(f.Tags)
	m.inputs[fieldDate].SetValue(f.Date)
	m.inputs[fieldTime].SetValue(f.Time)
}

// form reads the inputs back
func (m Model) form() session.Form {
	return session.Form{
		Title:       m.inputs[fieldTitle].Value(),
		Description: m.inputs[fieldDesc].Value(),
		Tags:        m.inputs[fieldTags].Value(),
		Date:        m.inputs[fieldDate].Value(),
		Time:        m.inputs[fieldTime].Value(),
	}
}

// fieldsFor is how many inputs a mode uses
func fieldsFor(mode InputMode) int {
	switch mode {
	case QuickAddMode, EventMode:
		return 1
	default:
		return fieldCount
	}
}
