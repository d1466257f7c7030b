package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"

	"timely/pkg/api"
	"timely/pkg/engine"
	"timely/pkg/session"
	"timely/pkg/utils"
)

var (
	// DD.MM.YYYY: or YYYY-MM-DD:
	dateHeading = regexp.MustCompile(`^(?:(\d{2})\.(\d{2})\.(\d{4})|(\d{4})-(\d{2})-(\d{2})):?$`)
	// optional date, then HH:MM, at the start of an item
	itemSchedule = regexp.MustCompile(`^(?:(\d{4}-\d{2}-\d{2})\s+)?(\d{1,2}:\d{2})\s+`)
)

// importItem is one "- [ ] ..." line
type importItem struct {
	line   int
	done   bool
	title  string
	tags   []string
	date   string
	clock  string
	status api.Status // from the heading, empty under a date heading
}

// HandleImportCommand reads an agenda text file and creates its tasks.
// Headings are a column name (todo:, working:, done:, backlog:) or a date.
// Items are "- [ ] text" or "- [x] text"; a leading HH:MM, optionally after
// a date, schedules the task. "-" reads from in.
func HandleImportCommand(ctx context.Context, c Client, in io.Reader, out io.Writer, filename string, now time.Time) error {
	r := in
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("read %s: %w", filename, err)
		}
		defer f.Close()
		r = f
	}

	items, err := parseAgenda(r)
	if err != nil {
		return err
	}

	var errs error
	imported := 0
	position := map[api.Status]int{}
	for _, it := range items {
		if err := importOne(ctx, c, it, position, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", it.line, err))
			continue
		}
		imported++
	}
	fmt.Fprintf(out, "Successfully imported %d task(s) from %s\n", imported, filename)
	return errs
}

func parseAgenda(r io.Reader) ([]importItem, error) {
	var (
		items  []importItem
		status api.Status
		date   string
	)
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "-") {
			heading := strings.TrimSuffix(line, ":")
			if s, err := api.ParseStatus(strings.ToLower(heading)); err == nil {
				status, date = s, ""
				continue
			}
			if m := dateHeading.FindStringSubmatch(line); m != nil {
				status = ""
				if m[1] != "" {
					date = m[3] + "-" + m[2] + "-" + m[1]
				} else {
					date = m[4] + "-" + m[5] + "-" + m[6]
				}
				continue
			}
			utils.Log("Import: ignoring line %d: %q", n, line)
			continue
		}

		text := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if text == "" {
			continue
		}
		it := importItem{line: n, status: status, date: date}
		switch {
		case strings.HasPrefix(text, "[x]"), strings.HasPrefix(text, "[X]"):
			it.done = true
			text = strings.TrimSpace(text[3:])
		case strings.HasPrefix(text, "[ ]"):
			text = strings.TrimSpace(text[3:])
		}
		if m := itemSchedule.FindStringSubmatch(text); m != nil {
			if m[1] != "" {
				it.date = m[1]
			}
			it.clock = m[2]
			text = text[len(m[0]):]
		}
		it.tags = extractTags(text)
		it.title = removeTags(text)
		items = append(items, it)
	}
	return items, scanner.Err()
}

func importOne(ctx context.Context, c Client, it importItem, position map[api.Status]int, now time.Time) error {
	if it.title == "" {
		return fmt.Errorf("%w: empty title", api.ErrValidation)
	}
	var start *api.LocalTime
	if it.clock != "" {
		s, err := session.Form{Date: it.date, Time: it.clock}.Start(now)
		if err != nil {
			return err
		}
		start = s
	}

	// A column heading holds even without a time, as a board drag would
	status := it.status
	switch {
	case it.done:
		status = api.StatusDone
	case status == "" && start != nil:
		status = api.StatusTodo
	case status == "":
		status = api.StatusBacklog
	}

	res := run(ctx, c, engine.CreateTaskCmd{Task: engine.NewTask{
		Title:  it.title,
		Tags:   it.tags,
		Column: status,
		Start:  start,
	}})
	if res.Err != nil {
		return res.Err
	}

	position[status]++
	order := position[status]
	if res.Task.Status == status && order == 1 {
		return nil
	}
	return run(ctx, c, engine.MoveTaskCmd{TaskID: res.Task.ID, Status: status, Order: order}).Err
}
