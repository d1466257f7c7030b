package commands

import (
	"context"
	"fmt"
	"io"

	"timely/pkg/api"
)

// HandleList prints the board column by column. An empty status lists every
// column; tags filter the same way the tag chips do.
func HandleList(ctx context.Context, c Client, out io.Writer, status string, tags []string) error {
	columns := api.DisplayStatuses
	if status != "" {
		s, err := api.ParseStatus(status)
		if err != nil {
			return err
		}
		columns = []api.Status{s}
	}

	st, err := loadState(ctx, c, tags)
	if err != nil {
		return err
	}

	for i, s := range columns {
		tasks := st.VisibleColumn(s)
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d):\n", s, len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(out, "  %4d  %s%s\n", t.ID, t.Title, formatTags(t.Tags))
		}
	}
	return nil
}

// HandleTags prints every tag in use, one per line
func HandleTags(ctx context.Context, c Client, out io.Writer) error {
	st, err := loadState(ctx, c, nil)
	if err != nil {
		return err
	}
	for _, tag := range st.AvailableTags() {
		fmt.Fprintln(out, tag)
	}
	return nil
}
