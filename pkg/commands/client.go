// Package commands implements the scriptable subcommands. Each handler takes
// the collaborator and an output writer and goes through the same engine
// the board uses.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/calendar"
	"timely/pkg/engine"
)

// Client is the collaborator surface the commands use
type Client interface {
	engine.Tasks
	engine.Events
	board.TaskLister
	calendar.EventLister
	GetTask(ctx context.Context, id int64) (api.Task, error)
}

// ParseID parses a task or event id argument
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// run dispatches cmd and returns its error
func run(ctx context.Context, c Client, cmd engine.Command) engine.Result {
	return engine.New(c, c).Dispatch(ctx, cmd)
}

// loadState loads every column with tags selected as the filter
func loadState(ctx context.Context, c Client, tags []string) (*board.State, error) {
	st := board.NewState()
	if err := st.Reload(ctx, c); err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" && !st.Selection.Has(tag) {
			st.Selection.Toggle(tag)
		}
	}
	return st, nil
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " #" + strings.Join(tags, " #")
}
