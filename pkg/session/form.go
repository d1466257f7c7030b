package session

import (
	"fmt"
	"strings"
	"time"

	"timely/pkg/api"
)

// Form is the editable text of a task as entered by the user
type Form struct {
	Title       string
	Description string
	Tags        string // comma separated
	Date        string // YYYY-MM-DD, empty means today when Time is set
	Time        string // HH:MM, empty means unscheduled
}

// FormFor prefills a form from a task and an optional start
func FormFor(t api.Task, start *api.LocalTime) Form {
	f := Form{
		Title:       t.Title,
		Description: t.Description,
		Tags:        strings.Join(t.Tags, ", "),
	}
	if start != nil && !start.IsZero() {
		f.Date = start.DateString()
		f.Time = start.ClockString()
	}
	return f
}

// Start parses the date and time fields. No time means no schedule.
func (f Form) Start(now time.Time) (*api.LocalTime, error) {
	clock := strings.TrimSpace(f.Time)
	if clock == "" {
		return nil, nil
	}
	date := strings.TrimSpace(f.Date)
	if date == "" {
		date = now.Format("2006-01-02")
	}
	start, err := api.ParseLocalTime(date + "T" + clock)
	if err != nil {
		return nil, fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	if start.Minute()%30 != 0 || start.Second() != 0 {
		return nil, fmt.Errorf("time %s is not on a 30-minute slot", clock)
	}
	return &start, nil
}

// ParseTags splits a comma list, trimming blanks and duplicates
func ParseTags(s string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// TimeOptions lists the selectable start times, one per 30-minute slot
func TimeOptions() []string {
	var out []string
	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 30} {
			out = append(out, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return out
}
