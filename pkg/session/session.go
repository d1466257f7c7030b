// Package session tracks the task being edited and turns a submitted form
// into engine operations.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/utils"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrNoSession       = errors.New("no task is being edited")
	ErrNotFromCalendar = errors.New("task was not opened from a calendar event")
)

// Session identifies what an open editor targets. The anchor is the
// calendar event the session was opened from; it decides which event a save
// updates when a task has more than one.
type Session struct {
	TaskID           int64
	CameFromCalendar bool
	AnchorEventID    *int64
	AnchorEventStart *api.LocalTime
}

// Active reports whether a task is being edited
func (s Session) Active() bool {
	return s.TaskID != 0
}

// CanRemoveFromCalendar reports whether "remove from calendar" is offered
func (s Session) CanRemoveFromCalendar() bool {
	return s.CameFromCalendar && s.AnchorEventID != nil
}

// Engine is the subset of engine operations an editor drives
type Engine interface {
	UpdateDetails(ctx context.Context, taskID int64, title, description string, tags []string) (api.Task, error)
	SetSchedule(ctx context.Context, taskID int64, start *api.LocalTime, title string, anchor *int64) (*api.Event, error)
	RemoveFromCalendar(ctx context.Context, taskID, eventID int64) error
	DeleteTask(ctx context.Context, taskID int64) error
}

// Prober looks up a task's events for prefill
type Prober interface {
	EventsForTask(ctx context.Context, taskID int64) ([]api.Event, error)
}

// Saved is the outcome of a save, to be applied to local state
type Saved struct {
	TaskID int64
	Tags   []string
	Event  *api.Event // nil when the schedule was cleared
	Tagged bool       // the details write landed
}

// Editor owns the single edit session. Methods that take a context only
// talk to the collaborators; the rest touch local state.
type Editor struct {
	state *board.State
	eng   Engine
	probe Prober
	cur   Session
	Now   func() time.Time
}

// NewEditor creates an editor with no open session
func NewEditor(state *board.State, eng Engine, probe Prober) *Editor {
	return &Editor{state: state, eng: eng, probe: probe, Now: time.Now}
}

// Current returns the open session
func (e *Editor) Current() Session {
	return e.cur
}

// Prefill returns the first event of a task, or nil. Lookup failures are
// treated as "no event".
func (e *Editor) Prefill(ctx context.Context, taskID int64) *api.Event {
	evs, err := e.probe.EventsForTask(ctx, taskID)
	if err != nil {
		utils.Log("Prefill lookup for task %d failed: %v", taskID, err)
		return nil
	}
	if len(evs) == 0 {
		return nil
	}
	return &evs[0]
}

// OpenFromBoard starts a session for a card. first is only used to prefill
// the form; it does not become an anchor.
func (e *Editor) OpenFromBoard(t api.Task, first *api.Event) Form {
	e.cur = Session{TaskID: t.ID}
	var start *api.LocalTime
	if first != nil {
		start = &first.Start
	}
	return FormFor(t, start)
}

// OpenFromCalendar starts a session anchored on the clicked event
func (e *Editor) OpenFromCalendar(t api.Task, ev api.Event) Form {
	id, start := ev.ID, ev.Start
	e.cur = Session{
		TaskID:           t.ID,
		CameFromCalendar: true,
		AnchorEventID:    &id,
		AnchorEventStart: &start,
	}
	return FormFor(t, &start)
}

// Open runs Prefill and OpenFromBoard
func (e *Editor) Open(ctx context.Context, t api.Task) Form {
	return e.OpenFromBoard(t, e.Prefill(ctx, t.ID))
}

// SaveSession writes a form for sess. The details go first; a failure there
// aborts the save. With a time the schedule is set, using the anchor when
// the session came from the calendar; without one it is cleared.
func (e *Editor) SaveSession(ctx context.Context, sess Session, f Form) (Saved, error) {
	if !sess.Active() {
		return Saved{}, ErrNoSession
	}
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return Saved{}, ErrTitleRequired
	}
	start, err := f.Start(e.Now())
	if err != nil {
		return Saved{}, err
	}
	tags := ParseTags(f.Tags)

	if _, err := e.eng.UpdateDetails(ctx, sess.TaskID, title, strings.TrimSpace(f.Description), tags); err != nil {
		return Saved{}, err
	}
	saved := Saved{TaskID: sess.TaskID, Tags: tags, Tagged: true}

	var anchor *int64
	if start != nil && sess.CameFromCalendar {
		anchor = sess.AnchorEventID
	}
	ev, err := e.eng.SetSchedule(ctx, sess.TaskID, start, title, anchor)
	saved.Event = ev
	return saved, err
}

// Apply mirrors a save into local state
func (e *Editor) Apply(s Saved) {
	if !s.Tagged {
		return
	}
	if e.state.Store.PatchTags(s.TaskID, s.Tags) {
		e.state.RefreshTags()
	}
}

// Save writes the form for the open session, mirrors the tags and closes
// the session. On error the session stays open.
func (e *Editor) Save(ctx context.Context, f Form) error {
	saved, err := e.SaveSession(ctx, e.cur, f)
	e.Apply(saved)
	if err != nil {
		return err
	}
	e.Close()
	return nil
}

// RemoveSession deletes the anchor event of sess and backlogs its task
func (e *Editor) RemoveSession(ctx context.Context, sess Session) error {
	if !sess.Active() {
		return ErrNoSession
	}
	if !sess.CanRemoveFromCalendar() {
		return ErrNotFromCalendar
	}
	return e.eng.RemoveFromCalendar(ctx, sess.TaskID, *sess.AnchorEventID)
}

// DetachAnchor forgets the anchor once its event is gone. The session stays
// open so the user can keep editing.
func (e *Editor) DetachAnchor() {
	e.cur.AnchorEventID = nil
	e.cur.AnchorEventStart = nil
}

// RemoveFromCalendar runs RemoveSession and DetachAnchor
func (e *Editor) RemoveFromCalendar(ctx context.Context) error {
	if err := e.RemoveSession(ctx, e.cur); err != nil {
		return err
	}
	e.DetachAnchor()
	return nil
}

// DeleteSession deletes the task of sess with its events
func (e *Editor) DeleteSession(ctx context.Context, sess Session) error {
	if !sess.Active() {
		return ErrNoSession
	}
	return e.eng.DeleteTask(ctx, sess.TaskID)
}

// Delete removes the task being edited and closes the session
func (e *Editor) Delete(ctx context.Context) error {
	if err := e.DeleteSession(ctx, e.cur); err != nil {
		return err
	}
	e.state.Store.Remove(e.cur.TaskID)
	e.state.RefreshTags()
	e.Close()
	return nil
}

// Close resets the session
func (e *Editor) Close() {
	e.cur = Session{}
}
