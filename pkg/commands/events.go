package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"timely/pkg/calendar"
)

// HandleEvents prints the agenda of the week containing week (YYYY-MM-DD,
// empty for this week). Tags filter events the way the calendar does.
func HandleEvents(ctx context.Context, c Client, out io.Writer, week string, tags []string, now time.Time) error {
	day := now
	if week != "" {
		d, err := time.ParseInLocation("2006-01-02", week, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q", week)
		}
		day = d
	}
	w := calendar.Week(day)

	st, err := loadState(ctx, c, tags)
	if err != nil {
		return err
	}
	items, err := calendar.NewAdapter(c, st).Fetch(ctx, w)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Week of %s\n", w.Start.DateString())
	days := calendar.GroupByDay(items)
	if len(days) == 0 {
		fmt.Fprintln(out, "No events this week")
	}
	for _, d := range days {
		fmt.Fprintf(out, "\n%s:\n", d.Items[0].Start.Format("Monday 2006-01-02"))
		for _, it := range d.Items {
			when := it.Start.ClockString() + "-" + it.Ends().ClockString()
			if it.AllDay {
				when = "all day    "
			}
			kind := ""
			if it.Linked() {
				kind = fmt.Sprintf(" [task %d]", *it.TaskID)
			}
			fmt.Fprintf(out, "  %s  %s%s (event %d)\n", when, it.Title, kind, it.ID)
		}
	}
	return nil
}
