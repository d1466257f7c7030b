package engine

import (
	"context"
	"fmt"

	"timely/pkg/api"
	"timely/pkg/utils"
)

// Command is one user interaction addressed to the engine
type Command interface {
	Name() string
}

type CreateTaskCmd struct{ Task NewTask }

type QuickAddCmd struct{ Title string }

// SetScheduleCmd schedules (Start != nil) or unschedules a task
type SetScheduleCmd struct {
	TaskID int64
	Start  *api.LocalTime
	Title  string
	Anchor *int64
}

type MoveTaskCmd struct {
	TaskID int64
	Status api.Status
	Order  int
}

type DeleteTaskCmd struct{ TaskID int64 }

// ReceiveDropCmd is a board card dropped on a calendar slot
type ReceiveDropCmd struct {
	TaskID int64
	Start  api.LocalTime
	End    api.LocalTime
	Title  string
	AllDay bool
}

type UpdateDetailsCmd struct {
	TaskID      int64
	Title       string
	Description string
	Tags        []string
}

type RemoveFromCalendarCmd struct {
	TaskID  int64
	EventID int64
}

type MoveEventCmd struct {
	EventID int64
	Start   api.LocalTime
	End     api.LocalTime
}

type CreateEventCmd struct {
	Title  string
	Start  api.LocalTime
	End    api.LocalTime
	AllDay bool
}

type DeleteEventCmd struct{ EventID int64 }

func (CreateTaskCmd) Name() string         { return "create-task" }
func (QuickAddCmd) Name() string           { return "quick-add" }
func (SetScheduleCmd) Name() string        { return "set-schedule" }
func (MoveTaskCmd) Name() string           { return "move-task" }
func (DeleteTaskCmd) Name() string         { return "delete-task" }
func (ReceiveDropCmd) Name() string        { return "receive-drop" }
func (UpdateDetailsCmd) Name() string      { return "update-details" }
func (RemoveFromCalendarCmd) Name() string { return "remove-from-calendar" }
func (MoveEventCmd) Name() string          { return "move-event" }
func (CreateEventCmd) Name() string        { return "create-event" }
func (DeleteEventCmd) Name() string        { return "delete-event" }

// Result tells the render-refresh step what changed
type Result struct {
	Command         Command
	ReloadTasks     bool
	RefetchCalendar bool
	Task            *api.Task
	Event           *api.Event
	Err             error
}

// Dispatch runs cmd and describes which views need refreshing. It performs
// network calls only; no local state is touched. A failed command still
// reports its refresh needs, since a partial sequence may have landed.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) Result {
	res := Result{Command: cmd}
	switch c := cmd.(type) {
	case CreateTaskCmd:
		t, err := e.CreateTask(ctx, c.Task)
		res.Err = err
		res.ReloadTasks = true
		res.RefetchCalendar = c.Task.Start != nil
		if t.ID != 0 {
			res.Task = &t
		}
	case QuickAddCmd:
		t, err := e.QuickAdd(ctx, c.Title)
		res.Err = err
		res.ReloadTasks = err == nil
		if err == nil {
			res.Task = &t
		}
	case SetScheduleCmd:
		ev, err := e.SetSchedule(ctx, c.TaskID, c.Start, c.Title, c.Anchor)
		res.Err = err
		res.Event = ev
		res.RefetchCalendar = true
		res.ReloadTasks = c.Start == nil
	case MoveTaskCmd:
		res.Err = e.MoveTask(ctx, c.TaskID, c.Status, c.Order)
	case DeleteTaskCmd:
		res.Err = e.DeleteTask(ctx, c.TaskID)
		res.ReloadTasks = true
		res.RefetchCalendar = true
	case ReceiveDropCmd:
		ev, err := e.ReceiveExternalDrop(ctx, c.TaskID, c.Start, c.End, c.Title, c.AllDay)
		res.Err = err
		res.RefetchCalendar = err == nil
		if err == nil {
			res.Event = &ev
		}
	case UpdateDetailsCmd:
		t, err := e.UpdateDetails(ctx, c.TaskID, c.Title, c.Description, c.Tags)
		res.Err = err
		if err == nil {
			res.Task = &t
		}
	case RemoveFromCalendarCmd:
		res.Err = e.RemoveFromCalendar(ctx, c.TaskID, c.EventID)
		res.ReloadTasks = true
		res.RefetchCalendar = true
	case MoveEventCmd:
		ev, err := e.MoveEvent(ctx, c.EventID, c.Start, c.End)
		res.Err = err
		if err == nil {
			res.Event = &ev
		}
	case CreateEventCmd:
		ev, err := e.CreateFreeEvent(ctx, c.Title, c.Start, c.End, c.AllDay)
		res.Err = err
		res.RefetchCalendar = err == nil
		if err == nil {
			res.Event = &ev
		}
	case DeleteEventCmd:
		res.Err = e.DeleteEvent(ctx, c.EventID)
		res.RefetchCalendar = true
	default:
		res.Err = fmt.Errorf("unsupported command %T", cmd)
	}

	if res.Err != nil {
		utils.Logger().Warnw("command failed", "command", cmd.Name(), "error", res.Err)
	} else {
		utils.Logger().Debugw("command done", "command", cmd.Name(),
			"reload_tasks", res.ReloadTasks, "refetch_calendar", res.RefetchCalendar)
	}
	return res
}
