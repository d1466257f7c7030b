// Package testutil provides an in-memory task/event collaborator served over
// httptest, so package tests exercise the real api.Client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"timely/pkg/api"
)

type failure struct {
	status int
	body   string
	times  int // 0 means every time
}

// Backend is a fake collaborator. It keeps tasks and events in memory and
// records every request it receives.
type Backend struct {
	mu       sync.Mutex
	nextID   int64
	tasks    map[int64]api.Task
	seq      []int64 // task insertion order
	events   map[int64]api.Event
	evSeq    []int64
	failures map[string]*failure
	requests []string
}

// NewBackend creates an empty fake collaborator
func NewBackend() *Backend {
	return &Backend{
		tasks:    map[int64]api.Task{},
		events:   map[int64]api.Event{},
		failures: map[string]*failure{},
	}
}

// NewServer starts a Backend behind httptest and returns a client bound to it
func NewServer(t *testing.T) (*Backend, *api.Client) {
	t.Helper()
	b := NewBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, api.NewClient(api.Options{BaseURL: srv.URL + "/api"})
}

// Fail makes requests matching method and path (no query) answer with
// status and body. times==0 fails forever.
func (b *Backend) Fail(method, path string, status int, body string, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = &failure{status: status, body: body, times: times}
}

// Heal removes every injected failure
func (b *Backend) Heal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = map[string]*failure{}
}

// Requests returns "METHOD path?query" for each request received
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// CountRequests counts received requests starting with prefix
func (b *Backend) CountRequests(prefix string) int {
	n := 0
	for _, r := range b.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// SeedTask stores t as-is and assigns an id
func (b *Backend) SeedTask(t api.Task) api.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	t.ID = b.nextID
	if t.Tags == nil {
		t.Tags = []string{}
	}
	b.tasks[t.ID] = t
	b.seq = append(b.seq, t.ID)
	return t
}

// SeedEvent stores e as-is and assigns an id
func (b *Backend) SeedEvent(e api.Event) api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	e.ID = b.nextID
	b.events[e.ID] = e
	b.evSeq = append(b.evSeq, e.ID)
	return e
}

// Task returns the stored task
func (b *Backend) Task(id int64) (api.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	return t, ok
}

// EventsFor returns the stored events referencing taskID
func (b *Backend) EventsFor(taskID int64) []api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []api.Event
	for _, id := range b.evSeq {
		if e, ok := b.events[id]; ok && e.LinkedTo(taskID) {
			out = append(out, e)
		}
	}
	return out
}

// Events returns every stored event
func (b *Backend) Events() []api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []api.Event
	for _, id := range b.evSeq {
		if e, ok := b.events[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")

	b.mu.Lock()
	line := r.Method + " " + path
	if r.URL.RawQuery != "" {
		line += "?" + r.URL.RawQuery
	}
	b.requests = append(b.requests, line)
	if f, ok := b.failures[r.Method+" "+path]; ok {
		if f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(b.failures, r.Method+" "+path)
			}
		}
		b.mu.Unlock()
		http.Error(w, f.body, f.status)
		return
	}
	b.mu.Unlock()

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "tasks":
		b.tasksCollection(w, r)
	case len(parts) == 2 && parts[0] == "tasks":
		b.taskItem(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "events":
		b.eventsCollection(w, r)
	case len(parts) == 2 && parts[0] == "events":
		b.eventItem(w, r, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (b *Backend) tasksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := api.Status(r.URL.Query().Get("status"))
		b.mu.Lock()
		var out []api.Task
		for _, id := range b.seq {
			t, ok := b.tasks[id]
			if !ok || (status != "" && t.Status != status) {
				continue
			}
			out = append(out, t)
		}
		b.mu.Unlock()
		sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
		if out == nil {
			out = []api.Task{}
		}
		writeJSON(w, out)
	case http.MethodPost:
		var in api.TaskCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		t := b.SeedTask(api.Task{
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			Order:       in.Order,
			Tags:        in.Tags,
		})
		writeJSON(w, t)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) taskItem(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusUnprocessableEntity)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		http.Error(w, `{"detail":"Task not found"}`, http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, t)
	case http.MethodPut:
		var p api.TaskPatch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		if p.Order != nil {
			t.Order = *p.Order
		}
		if p.Tags != nil {
			t.Tags = *p.Tags
		}
		b.tasks[id] = t
		writeJSON(w, t)
	case http.MethodDelete:
		delete(b.tasks, id)
		writeJSON(w, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) eventsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		var (
			start, end api.LocalTime
			taskID     *int64
		)
		if s := q.Get("start"); s != "" {
			start, _ = api.ParseLocalTime(s)
		}
		if s := q.Get("end"); s != "" {
			end, _ = api.ParseLocalTime(s)
		}
		if s := q.Get("task_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				http.Error(w, "bad task_id", http.StatusUnprocessableEntity)
				return
			}
			taskID = &id
		}
		out := []api.Event{}
		for _, e := range b.Events() {
			if !start.IsZero() && e.End.Before(start.Time) {
				continue
			}
			if !end.IsZero() && e.Start.After(end.Time) {
				continue
			}
			if taskID != nil && !e.LinkedTo(*taskID) {
				continue
			}
			out = append(out, e)
		}
		writeJSON(w, out)
	case http.MethodPost:
		var in api.EventCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		e := b.SeedEvent(api.Event{
			Title:  in.Title,
			Start:  in.Start,
			End:    in.End,
			AllDay: in.AllDay,
			TaskID: in.TaskID,
		})
		writeJSON(w, e)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) eventItem(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusUnprocessableEntity)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.events[id]
	if !ok {
		http.Error(w, fmt.Sprintf(`{"detail":"Event %d not found"}`, id), http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var p api.EventPatch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if p.Start != nil {
			e.Start = *p.Start
		}
		if p.End != nil {
			e.End = *p.End
		}
		b.events[id] = e
		writeJSON(w, e)
	case http.MethodDelete:
		delete(b.events, id)
		writeJSON(w, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
