// Package calendar answers windowed event queries for the week view and
// bridges board cards dropped onto calendar slots.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/utils"
)

// SlotsPerDay is the number of 30-minute slots in a day
const SlotsPerDay = int(24 * time.Hour / api.SlotDuration)

// EventLister is the part of the event collaborator the adapter reads from
type EventLister interface {
	EventsInRange(ctx context.Context, start, end api.LocalTime) ([]api.Event, error)
}

// Window is a half-open [Start, End) range of wall-clock time
type Window struct {
	Start api.LocalTime
	End   api.LocalTime
}

// Week returns the Monday-based seven-day window containing day
func Week(day time.Time) Window {
	offset := (int(day.Weekday()) + 6) % 7
	monday := api.NewLocalTime(day.Year(), day.Month(), day.Day()-offset, 0, 0)
	return Window{Start: monday, End: api.LocalTime{Time: monday.AddDate(0, 0, 7)}}
}

// Next is the following week
func (w Window) Next() Window {
	return Window{Start: api.LocalTime{Time: w.Start.AddDate(0, 0, 7)}, End: api.LocalTime{Time: w.End.AddDate(0, 0, 7)}}
}

// Prev is the preceding week
func (w Window) Prev() Window {
	return Window{Start: api.LocalTime{Time: w.Start.AddDate(0, 0, -7)}, End: api.LocalTime{Time: w.End.AddDate(0, 0, -7)}}
}

// Days returns midnight of each day in the window
func (w Window) Days() []api.LocalTime {
	var out []api.LocalTime
	for d := w.Start; d.Before(w.End.Time); d = (api.LocalTime{Time: d.AddDate(0, 0, 1)}) {
		out = append(out, d)
	}
	return out
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t api.LocalTime) bool {
	return !t.Before(w.Start.Time) && t.Before(w.End.Time)
}

// Overlaps reports whether [start, end) intersects the window
func (w Window) Overlaps(start, end api.LocalTime) bool {
	if end.IsZero() || !end.After(start.Time) {
		end = start.Add(api.SlotDuration)
	}
	return start.Before(w.End.Time) && end.After(w.Start.Time)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.DateString(), w.End.DateString())
}

// SlotStart returns the start of slot n (0-based) on day
func SlotStart(day api.LocalTime, n int) api.LocalTime {
	midnight := api.NewLocalTime(day.Year(), day.Month(), day.Day(), 0, 0)
	return midnight.Add(time.Duration(n) * api.SlotDuration)
}

// SlotIndex returns the slot containing t
func SlotIndex(t api.LocalTime) int {
	return (t.Hour()*60 + t.Minute()) / int(api.SlotDuration/time.Minute)
}

// Item is an event in the shape the week view renders
type Item struct {
	ID          int64
	Title       string
	Start       api.LocalTime
	End         api.LocalTime
	AllDay      bool
	TaskID      *int64
	Provisional bool // placed locally, not yet confirmed by the collaborator
}

// Linked reports whether the item belongs to a task
func (it Item) Linked() bool {
	return it.TaskID != nil
}

// Ends returns End, or a 30-minute block when End is missing
func (it Item) Ends() api.LocalTime {
	if it.End.IsZero() || !it.End.After(it.Start.Time) {
		return it.Start.Add(api.SlotDuration)
	}
	return it.End
}

// ItemFrom maps a collaborator event
func ItemFrom(e api.Event) Item {
	return Item{ID: e.ID, Title: e.Title, Start: e.Start, End: e.End, AllDay: e.AllDay, TaskID: e.TaskID}
}

// Adapter feeds the week view. Query talks to the collaborator; Present
// reads the shared state and must run where that state is owned.
type Adapter struct {
	lister EventLister
	state  *board.State
}

// NewAdapter creates an adapter reading events from lister and filtering
// them with the selection held in state
func NewAdapter(lister EventLister, state *board.State) *Adapter {
	return &Adapter{lister: lister, state: state}
}

// Query fetches the events overlapping w. A failed query is reported as an
// error; an empty response is an empty slice.
func (a *Adapter) Query(ctx context.Context, w Window) ([]api.Event, error) {
	evs, err := a.lister.EventsInRange(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("load events %s: %w", w, err)
	}
	if evs == nil {
		evs = []api.Event{}
	}
	return evs, nil
}

// Present applies the filter predicate and maps events to items sorted by start
func (a *Adapter) Present(evs []api.Event) []Item {
	items := make([]Item, 0, len(evs))
	for _, e := range evs {
		if board.EventVisible(a.state.Selection, a.state.Store, e) {
			items = append(items, ItemFrom(e))
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start.Time) })
	utils.Log("Calendar: %d of %d events visible", len(items), len(evs))
	return items
}

// Fetch runs Query and Present back to back
func (a *Adapter) Fetch(ctx context.Context, w Window) ([]Item, error) {
	evs, err := a.Query(ctx, w)
	if err != nil {
		return nil, err
	}
	return a.Present(evs), nil
}
