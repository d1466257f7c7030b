package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"timely/pkg/api"
	"timely/pkg/board"
)

// exportedTask is a task with the start of its first event
type exportedTask struct {
	api.Task
	Start *api.LocalTime `json:"start,omitempty"`
}

// HandleExportCommand writes every task to filename as json or txt. The txt
// form is the one HandleImportCommand reads. "-" writes to out.
func HandleExportCommand(ctx context.Context, c Client, out io.Writer, filename, exportType string) error {
	st, err := loadState(ctx, c, nil)
	if err != nil {
		return err
	}
	tasks, err := withSchedules(ctx, c, st.Store)
	if err != nil {
		return err
	}

	var content []byte
	switch exportType {
	case "json":
		content, err = json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal tasks: %w", err)
		}
	case "txt":
		content = []byte(agendaText(tasks))
	default:
		return fmt.Errorf("unknown export type: %s", exportType)
	}

	if filename == "-" {
		_, err := out.Write(append(content, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	fmt.Fprintf(out, "Successfully exported %d task(s) to %s\n", len(tasks), filename)
	return nil
}

// withSchedules looks up the events of every task, a few at a time, in
// board order
func withSchedules(ctx context.Context, c Client, store *board.Store) ([]exportedTask, error) {
	var tasks []exportedTask
	for _, s := range api.DisplayStatuses {
		for _, t := range store.Column(s) {
			tasks = append(tasks, exportedTask{Task: t})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range tasks {
		i := i
		g.Go(func() error {
			evs, err := c.EventsForTask(gctx, tasks[i].ID)
			if err != nil {
				return fmt.Errorf("events of task %d: %w", tasks[i].ID, err)
			}
			for _, e := range evs {
				if !e.AllDay {
					start := e.Start
					tasks[i].Start = &start
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func agendaText(tasks []exportedTask) string {
	var lines []string
	var lastStatus api.Status
	for _, t := range tasks {
		if t.Status != lastStatus {
			lines = append(lines, "", string(t.Status)+":")
			lastStatus = t.Status
		}
		mark := " "
		if t.Status == api.StatusDone {
			mark = "x"
		}
		when := ""
		if t.Start != nil {
			when = t.Start.DateString() + " " + t.Start.ClockString() + " "
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s%s%s", mark, when, t.Title, formatTags(t.Tags)))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
