package calendar

import (
	"fmt"
	"sort"

	"timely/pkg/api"
	"timely/pkg/engine"
)

// Grid holds what the week view shows: the items of the last fetch plus
// provisional items placed by drops that have not been refetched yet.
// Provisional items get negative ids so they never collide with stored ones.
type Grid struct {
	window      Window
	items       []Item
	provisional map[int64]Item
	nextTemp    int64
}

// NewGrid creates an empty grid over w
func NewGrid(w Window) *Grid {
	return &Grid{window: w, provisional: map[int64]Item{}}
}

func (g *Grid) Window() Window {
	return g.window
}

// SetWindow switches weeks and drops the items of the old one
func (g *Grid) SetWindow(w Window) {
	g.window = w
	g.items = nil
}

// Load replaces the fetched items
func (g *Grid) Load(items []Item) {
	g.items = append([]Item(nil), items...)
}

// Place adds a provisional item and returns its temporary id
func (g *Grid) Place(it Item) int64 {
	g.nextTemp--
	it.ID = g.nextTemp
	it.Provisional = true
	g.provisional[it.ID] = it
	return it.ID
}

// Discard removes a provisional item
func (g *Grid) Discard(tempID int64) {
	delete(g.provisional, tempID)
}

// Get looks up an item by id, provisional ones included
func (g *Grid) Get(id int64) (Item, bool) {
	if it, ok := g.provisional[id]; ok {
		return it, true
	}
	for _, it := range g.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Items returns everything shown in the window, ordered by start
func (g *Grid) Items() []Item {
	out := make([]Item, 0, len(g.items)+len(g.provisional))
	for _, it := range g.items {
		if g.window.Overlaps(it.Start, it.Ends()) {
			out = append(out, it)
		}
	}
	for _, it := range g.provisional {
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start.Time)
	})
	return out
}

// At returns the items covering the slot starting at slot
func (g *Grid) At(slot api.LocalTime) []Item {
	end := slot.Add(api.SlotDuration)
	var out []Item
	for _, it := range g.Items() {
		if it.AllDay {
			continue
		}
		if it.Start.Before(end.Time) && it.Ends().After(slot.Time) {
			out = append(out, it)
		}
	}
	return out
}

// AllDay returns the all-day items on day
func (g *Grid) AllDay(day api.LocalTime) []Item {
	var out []Item
	for _, it := range g.Items() {
		if it.AllDay && it.Start.DateString() == day.DateString() {
			out = append(out, it)
		}
	}
	return out
}

func (g *Grid) set(id int64, start, end api.LocalTime) {
	for i := range g.items {
		if g.items[i].ID == id {
			g.items[i].Start = start
			g.items[i].End = end
			return
		}
	}
}

// BeginMove shows a stored item at its new times (a drag or a resize) and
// returns the open interaction. Reverting puts the item back.
func (g *Grid) BeginMove(id int64, start, end api.LocalTime) (*engine.Txn, error) {
	prev, ok := g.Get(id)
	if !ok {
		return nil, fmt.Errorf("event %d is not shown", id)
	}
	if prev.Provisional {
		return nil, fmt.Errorf("event %d is not saved yet", id)
	}
	if end.IsZero() {
		end = start.Add(api.SlotDuration)
	}
	if !end.After(start.Time) {
		return nil, fmt.Errorf("event %d would end before it starts", id)
	}
	return engine.Begin(
		func() { g.set(id, start, end) },
		func() { g.set(id, prev.Start, prev.End) },
	), nil
}
