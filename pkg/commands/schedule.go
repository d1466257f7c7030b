package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"timely/pkg/api"
	"timely/pkg/calendar"
	"timely/pkg/engine"
	"timely/pkg/session"
)

// HandleSchedule gives a task exactly one event at date and clock
func HandleSchedule(ctx context.Context, c Client, out io.Writer, id int64, date, clock string, now time.Time) error {
	if clock == "" {
		return fmt.Errorf("%w: a time is required, use unschedule to clear", api.ErrValidation)
	}
	start, err := session.Form{Date: date, Time: clock}.Start(now)
	if err != nil {
		return err
	}
	t, err := c.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("load task %d: %w", id, err)
	}

	res := run(ctx, c, engine.SetScheduleCmd{TaskID: id, Start: start, Title: t.Title})
	if res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(out, "Scheduled task %d at %s (event %d)\n", id, start, res.Event.ID)
	return nil
}

// HandleUnschedule removes every event of a task and sends it to backlog
func HandleUnschedule(ctx context.Context, c Client, out io.Writer, id int64) error {
	if res := run(ctx, c, engine.SetScheduleCmd{TaskID: id}); res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(out, "Unscheduled task %d\n", id)
	return nil
}

// HandleMove puts a task in a column at a 1-based position
func HandleMove(ctx context.Context, c Client, out io.Writer, id int64, status string, order int) error {
	s, err := api.ParseStatus(status)
	if err != nil {
		return err
	}
	if res := run(ctx, c, engine.MoveTaskCmd{TaskID: id, Status: s, Order: order}); res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(out, "Moved task %d to %s at position %d\n", id, s, order)
	return nil
}

// HandleDrop places a card on the calendar the way a drag does: one more
// event, the task keeps its column. at is YYYY-MM-DDTHH:MM, or a bare date
// with allDay.
func HandleDrop(ctx context.Context, c Client, out io.Writer, id int64, at string, allDay bool) error {
	var start api.LocalTime
	if allDay {
		day, err := time.ParseInLocation("2006-01-02", at, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q", at)
		}
		start = api.AsLocal(day)
	} else {
		s, err := api.ParseLocalTime(at)
		if err != nil {
			return fmt.Errorf("invalid time %q", at)
		}
		if s.Minute()%30 != 0 || s.Second() != 0 {
			return fmt.Errorf("time %s is not on a 30-minute slot", s.ClockString())
		}
		start = s
	}

	t, err := c.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("load task %d: %w", id, err)
	}
	drop := calendar.PayloadFor(t).DropAt(start)
	drop.AllDay = allDay

	res := run(ctx, c, engine.ReceiveDropCmd{
		TaskID: id,
		Start:  drop.Start,
		End:    drop.End,
		Title:  drop.Title,
		AllDay: drop.AllDay,
	})
	if res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(out, "Dropped task %d on %s (event %d)\n", id, drop.Start, res.Event.ID)
	return nil
}
