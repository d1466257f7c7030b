package commands

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"timely/pkg/api"
	"timely/pkg/engine"
	"timely/pkg/session"
)

var (
	tagPattern      = regexp.MustCompile(`(?:^|\s)[#+]([\w-]+)`)
	stripTagPattern = regexp.MustCompile(`(?:^|\s+)[#+][\w-]+`)
)

// AddOptions are the optional parts of an added task
type AddOptions struct {
	Description string
	Column      string // todo, working or done; only used with a time
	Date        string // YYYY-MM-DD, defaults to today
	Time        string // HH:MM on the half hour; empty leaves it unscheduled
	Quick       bool   // title only, straight to backlog
}

// HandleAddTask creates a task from text. Words like #tag or +tag become
// tags and are removed from the title.
func HandleAddTask(ctx context.Context, c Client, out io.Writer, text string, opts AddOptions, now time.Time) error {
	title := removeTags(text)
	if title == "" {
		return fmt.Errorf("%w: empty title", api.ErrValidation)
	}

	var cmd engine.Command
	if opts.Quick {
		cmd = engine.QuickAddCmd{Title: title}
	} else {
		column := api.StatusTodo
		if opts.Column != "" {
			s, err := api.ParseStatus(opts.Column)
			if err != nil {
				return err
			}
			column = s
		}
		start, err := session.Form{Date: opts.Date, Time: opts.Time}.Start(now)
		if err != nil {
			return err
		}
		cmd = engine.CreateTaskCmd{Task: engine.NewTask{
			Title:       title,
			Description: opts.Description,
			Tags:        extractTags(text),
			Column:      column,
			Start:       start,
		}}
	}

	res := run(ctx, c, cmd)
	if res.Task != nil {
		fmt.Fprintf(out, "Added task %d %q to %s\n", res.Task.ID, res.Task.Title, res.Task.Status)
	}
	if ct, ok := cmd.(engine.CreateTaskCmd); ok && ct.Task.Start != nil && res.Err == nil {
		fmt.Fprintf(out, "Scheduled at %s\n", ct.Task.Start)
	}
	return res.Err
}

// extractTags finds every #tag or +tag in text, without duplicates
func extractTags(text string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			tags = append(tags, match[1])
		}
	}
	return tags
}

// removeTags removes tag words from text for a clean title
func removeTags(text string) string {
	return strings.TrimSpace(stripTagPattern.ReplaceAllString(text, ""))
}
