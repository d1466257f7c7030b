package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status determines which board column a task belongs to
type Status string

const (
	StatusTodo    Status = "todo"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusBacklog Status = "backlog"
)

// DisplayStatuses is the fixed left-to-right column order of the board
var DisplayStatuses = []Status{StatusTodo, StatusWorking, StatusDone, StatusBacklog}

// Valid reports whether s is one of the four board statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusWorking, StatusDone, StatusBacklog:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want todo, working, done or backlog)", s)
	}
	return st, nil
}

// SlotDuration is the length of a scheduled block and of a calendar slot
const SlotDuration = 30 * time.Minute

// Task represents a single work item on the board
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Order       int      `json:"order"`
	Tags        []string `json:"tags"`
}

// HasTag reports whether the task carries tag (exact match)
func (t Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts null tags and fractional orders from the collaborator.
func (t *Task) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          int64    `json:"id"`
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Status      Status   `json:"status"`
		Order       float64  `json:"order"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Task{
		ID:     raw.ID,
		Title:  raw.Title,
		Status: raw.Status,
		Order:  int(raw.Order),
		Tags:   raw.Tags,
	}
	if raw.Description != nil {
		t.Description = *raw.Description
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return nil
}

// Event is a time-boxed calendar entry, optionally linked to a task
type Event struct {
	ID     int64     `json:"id"`
	Title  string    `json:"title"`
	Start  LocalTime `json:"start"`
	End    LocalTime `json:"end"`
	AllDay bool      `json:"allDay"`
	TaskID *int64    `json:"task_id"`
}

// LinkedTo reports whether the event references the given task
func (e Event) LinkedTo(taskID int64) bool {
	return e.TaskID != nil && *e.TaskID == taskID
}

// UnmarshalJSON accepts both allDay and all_day.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Start     LocalTime `json:"start"`
		End       LocalTime `json:"end"`
		AllDay    *bool     `json:"allDay"`
		AllDaySnk *bool     `json:"all_day"`
		TaskID    *int64    `json:"task_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Event{ID: raw.ID, Title: raw.Title, Start: raw.Start, End: raw.End, TaskID: raw.TaskID}
	switch {
	case raw.AllDay != nil:
		e.AllDay = *raw.AllDay
	case raw.AllDaySnk != nil:
		e.AllDay = *raw.AllDaySnk
	}
	return nil
}

// TaskCreate is the POST /tasks body
type TaskCreate struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Status      Status   `json:"status" validate:"required,oneof=todo working done backlog"`
	Order       int      `json:"order" validate:"min=1"`
	Tags        []string `json:"tags"`
}

// TaskPatch is the partial PUT /tasks/<id> body; nil fields are not sent
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty" validate:"omitempty,oneof=todo working done backlog"`
	Order       *int      `json:"order,omitempty" validate:"omitempty,min=1"`
	Tags        *[]string `json:"tags,omitempty"`
}

// EventCreate is the POST /events body
type EventCreate struct {
	Title  string    `json:"title" validate:"required"`
	Start  LocalTime `json:"start"`
	End    LocalTime `json:"end"`
	AllDay bool      `json:"all_day"`
	TaskID *int64    `json:"task_id,omitempty"`
}

// EventPatch is the partial PUT /events/<id> body
type EventPatch struct {
	Start *LocalTime `json:"start,omitempty"`
	End   *LocalTime `json:"end,omitempty"`
}

// StringPtr and friends build patch fields inline.
func StringPtr(s string) *string { return &s }

func StatusPtr(s Status) *Status { return &s }

func IntPtr(i int) *int { return &i }

func Int64Ptr(i int64) *int64 { return &i }

func TagsPtr(tags []string) *[]string {
	if tags == nil {
		tags = []string{}
	}
	return &tags
}
