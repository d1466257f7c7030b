package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"

	"timely/pkg/api"
	"timely/pkg/engine"
)

// DeleteFilter selects tasks for a bulk delete when no ids are given
type DeleteFilter struct {
	Status string
	Tags   []string
}

func (f DeleteFilter) empty() bool {
	return f.Status == "" && len(f.Tags) == 0
}

// HandleDelete deletes tasks and every event that references them. Targets
// are the given ids or, without ids, the tasks matching filter. Unless
// skipConfirm is set the user confirms on in.
func HandleDelete(ctx context.Context, c Client, in io.Reader, out io.Writer, ids []int64, filter DeleteFilter, skipConfirm bool) error {
	targets, err := deleteTargets(ctx, c, ids, filter)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "No matching tasks.")
		return nil
	}

	for _, t := range targets {
		fmt.Fprintf(out, "  %4d  %s (%s)\n", t.ID, t.Title, t.Status)
	}
	if !skipConfirm && !confirm(in, out, fmt.Sprintf("Delete %d task(s) and their events?", len(targets))) {
		fmt.Fprintln(out, "Operation cancelled.")
		return nil
	}

	var errs error
	deleted := 0
	for _, t := range targets {
		if res := run(ctx, c, engine.DeleteTaskCmd{TaskID: t.ID}); res.Err != nil {
			errs = multierr.Append(errs, res.Err)
			continue
		}
		deleted++
	}
	fmt.Fprintf(out, "Deleted %d task(s)\n", deleted)
	return errs
}

func deleteTargets(ctx context.Context, c Client, ids []int64, filter DeleteFilter) ([]api.Task, error) {
	if len(ids) > 0 {
		var targets []api.Task
		for _, id := range ids {
			t, err := c.GetTask(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load task %d: %w", id, err)
			}
			targets = append(targets, t)
		}
		return targets, nil
	}

	if filter.empty() {
		return nil, fmt.Errorf("%w: give task ids or a --status/--tag filter", api.ErrValidation)
	}
	columns := api.DisplayStatuses
	if filter.Status != "" {
		s, err := api.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		columns = []api.Status{s}
	}
	st, err := loadState(ctx, c, filter.Tags)
	if err != nil {
		return nil, err
	}
	var targets []api.Task
	for _, s := range columns {
		targets = append(targets, st.VisibleColumn(s)...)
	}
	return targets, nil
}

// confirm asks a y/N question; anything but y or yes declines
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return response == "y" || response == "yes"
}
