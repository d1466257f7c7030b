// Package engine keeps tasks and their calendar events consistent. Every
// operation is a sequence of collaborator calls with no cross-call
// atomicity: nothing is rolled back, failures are returned to the caller.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"timely/pkg/api"
	"timely/pkg/utils"
)

// Tasks is the task collaborator surface the engine writes through
type Tasks interface {
	CreateTask(ctx context.Context, in api.TaskCreate) (api.Task, error)
	UpdateTask(ctx context.Context, id int64, patch api.TaskPatch) (api.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Events is the event collaborator surface the engine writes through
type Events interface {
	EventsForTask(ctx context.Context, taskID int64) ([]api.Event, error)
	CreateEvent(ctx context.Context, in api.EventCreate) (api.Event, error)
	UpdateEvent(ctx context.Context, id int64, patch api.EventPatch) (api.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// Engine orchestrates task and event writes so that a scheduled task has
// one event and an unscheduled task sits in backlog.
type Engine struct {
	tasks  Tasks
	events Events
}

// New creates an engine over the two collaborators
func New(tasks Tasks, events Events) *Engine {
	return &Engine{tasks: tasks, events: events}
}

// NewTask describes a task created from the board
type NewTask struct {
	Title       string
	Description string
	Tags        []string
	Column      api.Status     // column the add affordance belongs to
	Start       *api.LocalTime // nil leaves the task unscheduled
}

// probe lists the events of a task. Probe failures are treated as "no
// events" so the primary action is never blocked by them.
func (e *Engine) probe(ctx context.Context, taskID int64) []api.Event {
	evs, err := e.events.EventsForTask(ctx, taskID)
	if err != nil {
		utils.Logger().Warnw("event probe failed, assuming none", "task_id", taskID, "error", err)
		return nil
	}
	return evs
}

// deleteEvents removes events concurrently and waits for all of them.
// An event that is already gone counts as deleted.
func (e *Engine) deleteEvents(ctx context.Context, evs []api.Event) error {
	errs := make([]error, len(evs))
	var g errgroup.Group
	for i, ev := range evs {
		i, id := i, ev.ID
		g.Go(func() error {
			if err := e.events.DeleteEvent(ctx, id); err != nil && !api.IsNotFound(err) {
				errs[i] = fmt.Errorf("delete event %d: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

// SetSchedule gives a task exactly one 30-minute event starting at start, or
// clears its schedule when start is nil.
//
// With a start, the anchor event is updated when given, otherwise the task's
// first event, otherwise a new event is created. Any other event still
// referencing the task is then deleted. A stale anchor (404) falls back to
// creating a new event.
//
// Without a start, every event of the task is deleted and its status is set
// to backlog. The status write is issued even if some deletions failed.
func (e *Engine) SetSchedule(ctx context.Context, taskID int64, start *api.LocalTime, title string, anchor *int64) (*api.Event, error) {
	if start == nil {
		return nil, e.clearSchedule(ctx, taskID)
	}

	end := start.Add(api.SlotDuration)
	existing := e.probe(ctx, taskID)

	var targetID *int64
	switch {
	case anchor != nil:
		targetID = anchor
	case len(existing) > 0:
		targetID = &existing[0].ID
	}

	var (
		ev  api.Event
		err error
	)
	if targetID != nil {
		ev, err = e.events.UpdateEvent(ctx, *targetID, api.EventPatch{Start: start, End: &end})
		if api.IsNotFound(err) {
			utils.Log("Anchor event %d vanished, creating a new one for task %d", *targetID, taskID)
			targetID = nil
		} else if err != nil {
			return nil, fmt.Errorf("update event %d: %w", *targetID, err)
		}
	}
	if targetID == nil {
		ev, err = e.events.CreateEvent(ctx, api.EventCreate{
			Title:  title,
			Start:  *start,
			End:    end,
			TaskID: api.Int64Ptr(taskID),
		})
		if err != nil {
			return nil, fmt.Errorf("create event for task %d: %w", taskID, err)
		}
	}

	var extras []api.Event
	for _, x := range existing {
		if x.ID != ev.ID {
			extras = append(extras, x)
		}
	}
	if len(extras) > 0 {
		utils.Log("Task %d had %d extra events, removing them", taskID, len(extras))
		if err := e.deleteEvents(ctx, extras); err != nil {
			return &ev, err
		}
	}
	return &ev, nil
}

func (e *Engine) clearSchedule(ctx context.Context, taskID int64) error {
	delErr := e.deleteEvents(ctx, e.probe(ctx, taskID))
	_, err := e.tasks.UpdateTask(ctx, taskID, api.TaskPatch{Status: api.StatusPtr(api.StatusBacklog)})
	if err != nil {
		err = fmt.Errorf("move task %d to backlog: %w", taskID, err)
	}
	return multierr.Combine(delErr, err)
}

// MoveTask persists a column/position change. Events are not touched.
// Applying the same move twice yields the same stored status and order.
func (e *Engine) MoveTask(ctx context.Context, taskID int64, status api.Status, order int) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", api.ErrValidation, status)
	}
	if order < 1 {
		return fmt.Errorf("%w: order %d", api.ErrValidation, order)
	}
	_, err := e.tasks.UpdateTask(ctx, taskID, api.TaskPatch{
		Status: api.StatusPtr(status),
		Order:  api.IntPtr(order),
	})
	if err != nil {
		return fmt.Errorf("move task %d: %w", taskID, err)
	}
	return nil
}

// DeleteTask removes every event of the task, then the task itself.
// Nothing is rolled back. Events go first, so a retry after a failed task
// delete is safe; a task that is already gone counts as deleted.
func (e *Engine) DeleteTask(ctx context.Context, taskID int64) error {
	delErr := e.deleteEvents(ctx, e.probe(ctx, taskID))
	err := e.tasks.DeleteTask(ctx, taskID)
	if err != nil && !api.IsNotFound(err) {
		err = fmt.Errorf("delete task %d: %w", taskID, err)
	} else {
		err = nil
	}
	return multierr.Combine(delErr, err)
}

// ReceiveExternalDrop creates one event for a card dropped on the calendar.
// The task keeps its status, so it may show on the board and the calendar.
func (e *Engine) ReceiveExternalDrop(ctx context.Context, taskID int64, start, end api.LocalTime, title string, allDay bool) (api.Event, error) {
	if end.IsZero() || !end.After(start.Time) {
		end = start.Add(api.SlotDuration)
	}
	ev, err := e.events.CreateEvent(ctx, api.EventCreate{
		Title:  title,
		Start:  start,
		End:    end,
		AllDay: allDay,
		TaskID: api.Int64Ptr(taskID),
	})
	if err != nil {
		return api.Event{}, fmt.Errorf("schedule dropped task %d: %w", taskID, err)
	}
	return ev, nil
}

// CreateTask adds a task. A task entered with a time lands in its column
// and gets one event; otherwise it goes to backlog. New tasks take order 1.
func (e *Engine) CreateTask(ctx context.Context, in NewTask) (api.Task, error) {
	status := api.StatusBacklog
	if in.Start != nil && in.Column.Valid() {
		status = in.Column
	}
	t, err := e.tasks.CreateTask(ctx, api.TaskCreate{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Order:       1,
		Tags:        in.Tags,
	})
	if err != nil {
		return api.Task{}, fmt.Errorf("create task: %w", err)
	}
	if in.Start != nil {
		if _, err := e.SetSchedule(ctx, t.ID, in.Start, t.Title, nil); err != nil {
			return t, err
		}
	}
	return t, nil
}

// QuickAdd creates an untagged backlog task
func (e *Engine) QuickAdd(ctx context.Context, title string) (api.Task, error) {
	return e.CreateTask(ctx, NewTask{Title: title, Column: api.StatusBacklog})
}

// UpdateDetails writes the editable text fields and tags of a task
func (e *Engine) UpdateDetails(ctx context.Context, taskID int64, title, description string, tags []string) (api.Task, error) {
	t, err := e.tasks.UpdateTask(ctx, taskID, api.TaskPatch{
		Title:       api.StringPtr(title),
		Description: api.StringPtr(description),
		Tags:        api.TagsPtr(tags),
	})
	if err != nil {
		return api.Task{}, fmt.Errorf("update task %d: %w", taskID, err)
	}
	return t, nil
}

// RemoveFromCalendar deletes one specific event of a task and sends the
// task back to backlog. Other events of the task are left alone.
func (e *Engine) RemoveFromCalendar(ctx context.Context, taskID, eventID int64) error {
	if err := e.events.DeleteEvent(ctx, eventID); err != nil && !api.IsNotFound(err) {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	if _, err := e.tasks.UpdateTask(ctx, taskID, api.TaskPatch{Status: api.StatusPtr(api.StatusBacklog)}); err != nil {
		return fmt.Errorf("move task %d to backlog: %w", taskID, err)
	}
	return nil
}

// MoveEvent persists a calendar drag or resize. A missing end means a
// 30-minute block.
func (e *Engine) MoveEvent(ctx context.Context, eventID int64, start, end api.LocalTime) (api.Event, error) {
	if end.IsZero() {
		end = start.Add(api.SlotDuration)
	}
	ev, err := e.events.UpdateEvent(ctx, eventID, api.EventPatch{Start: &start, End: &end})
	if err != nil {
		return api.Event{}, fmt.Errorf("move event %d: %w", eventID, err)
	}
	return ev, nil
}

// CreateFreeEvent creates a calendar entry with no task
func (e *Engine) CreateFreeEvent(ctx context.Context, title string, start, end api.LocalTime, allDay bool) (api.Event, error) {
	if end.IsZero() {
		end = start.Add(api.SlotDuration)
	}
	ev, err := e.events.CreateEvent(ctx, api.EventCreate{Title: title, Start: start, End: end, AllDay: allDay})
	if err != nil {
		return api.Event{}, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

// DeleteEvent removes one event. The linked task, if any, is untouched. An
// event that is already gone counts as deleted.
func (e *Engine) DeleteEvent(ctx context.Context, eventID int64) error {
	if err := e.events.DeleteEvent(ctx, eventID); err != nil && !api.IsNotFound(err) {
		return fmt.Errorf("delete event %d: %w", eventID, err)
	}
	return nil
}
