package board

import (
	"context"
	"fmt"

	"timely/pkg/api"
	"timely/pkg/engine"
	"timely/pkg/utils"
)

// Mover persists a status/order change for one task
type Mover interface {
	MoveTask(ctx context.Context, taskID int64, status api.Status, order int) error
}

// DragEnd is the notification emitted when a card is dropped in a column.
// All columns share one reorder group, so Target may differ from the
// card's current status.
type DragEnd struct {
	TaskID   int64
	Target   api.Status
	NewIndex int // zero-based position within Target
}

// Order is the 1-based order persisted for the drop position
func (d DragEnd) Order() int {
	return d.NewIndex + 1
}

// Reorderer turns drag-end notifications into persisted moves. Only the moved
// task is written; siblings keep their stored order values.
type Reorderer struct {
	store *Store
	mover Mover
}

// NewReorderer creates a reorder controller over the shared store
func NewReorderer(store *Store, mover Mover) *Reorderer {
	return &Reorderer{store: store, mover: mover}
}

// Begin applies the move to the local store and returns the open interaction.
// The card is pinned at NewIndex so the drop shows even among equal orders.
func (r *Reorderer) Begin(d DragEnd) (*engine.Txn, error) {
	if !d.Target.Valid() {
		return nil, fmt.Errorf("unknown column %q", d.Target)
	}
	if d.NewIndex < 0 {
		return nil, fmt.Errorf("negative drop index %d", d.NewIndex)
	}
	prev, ok := r.store.Get(d.TaskID)
	if !ok {
		return nil, fmt.Errorf("task %d is not loaded", d.TaskID)
	}
	prevPin, wasPinned := r.store.pinned(d.TaskID)
	return engine.Begin(
		func() {
			r.store.PatchStatus(d.TaskID, d.Target)
			r.store.PatchOrder(d.TaskID, d.Order())
			r.store.Pin(d.TaskID, d.NewIndex)
		},
		func() {
			r.store.PatchStatus(d.TaskID, prev.Status)
			r.store.PatchOrder(d.TaskID, prev.Order)
			if wasPinned {
				r.store.Pin(d.TaskID, prevPin)
			} else {
				r.store.Unpin(d.TaskID)
			}
		},
	), nil
}

// Persist writes the move. It does not touch the store.
func (r *Reorderer) Persist(ctx context.Context, d DragEnd) error {
	return r.mover.MoveTask(ctx, d.TaskID, d.Target, d.Order())
}

// DragEnd runs the whole interaction: tentative move, persistence, then
// commit or revert.
func (r *Reorderer) DragEnd(ctx context.Context, d DragEnd) error {
	txn, err := r.Begin(d)
	if err != nil {
		return err
	}
	err = txn.Settle(r.Persist(ctx, d))
	if err != nil {
		utils.Log("Reverted move of task %d to %s: %v", d.TaskID, d.Target, err)
	}
	return err
}
