package calendar

import (
	"context"
	"time"

	"timely/pkg/api"
	"timely/pkg/engine"
	"timely/pkg/utils"
)

// Payload is what a board card carries when dragged onto the calendar
type Payload struct {
	Title    string
	Duration time.Duration
	TaskID   int64
}

// PayloadFor builds the drag payload of a card
func PayloadFor(t api.Task) Payload {
	return Payload{Title: t.Title, Duration: api.SlotDuration, TaskID: t.ID}
}

// DropAt places the payload on a slot
func (p Payload) DropAt(start api.LocalTime) Drop {
	return Drop{Payload: p, Start: start, End: start.Add(p.Duration)}
}

// Drop is the "received" notification: a payload and where it landed
type Drop struct {
	Payload
	Start  api.LocalTime
	End    api.LocalTime
	AllDay bool
}

// Receiver persists a drop
type Receiver interface {
	ReceiveExternalDrop(ctx context.Context, taskID int64, start, end api.LocalTime, title string, allDay bool) (api.Event, error)
}

// Bridge turns card drops into events
type Bridge struct {
	grid *Grid
	recv Receiver
}

// NewBridge creates a bridge placing provisional items into grid
func NewBridge(grid *Grid, recv Receiver) *Bridge {
	return &Bridge{grid: grid, recv: recv}
}

// Begin shows the drop as a provisional item. It returns the open
// interaction and the item's temporary id.
func (b *Bridge) Begin(d Drop) (*engine.Txn, int64) {
	var tempID int64
	txn := engine.Begin(
		func() {
			tempID = b.grid.Place(Item{
				Title:  d.Title,
				Start:  d.Start,
				End:    d.End,
				AllDay: d.AllDay,
				TaskID: api.Int64Ptr(d.TaskID),
			})
		},
		func() { b.grid.Discard(tempID) },
	)
	return txn, tempID
}

// Persist forwards the drop to the engine. It does not touch the grid.
func (b *Bridge) Persist(ctx context.Context, d Drop) (api.Event, error) {
	return b.recv.ReceiveExternalDrop(ctx, d.TaskID, d.Start, d.End, d.Title, d.AllDay)
}

// Finish settles a drop. Either way the provisional item goes: on success
// the stored event shows up on the next refetch, which the caller must
// trigger; on failure the drop is reverted.
func (b *Bridge) Finish(txn *engine.Txn, tempID int64, err error) error {
	if err = txn.Settle(err); err != nil {
		utils.Log("Calendar: drop reverted: %v", err)
		return err
	}
	b.grid.Discard(tempID)
	return nil
}

// Receive runs a whole drop
func (b *Bridge) Receive(ctx context.Context, d Drop) (api.Event, error) {
	txn, tempID := b.Begin(d)
	ev, err := b.Persist(ctx, d)
	if err = b.Finish(txn, tempID, err); err != nil {
		return api.Event{}, err
	}
	return ev, nil
}
