package board

import (
	"context"
	"fmt"
	"sort"

	"timely/pkg/api"
	"timely/pkg/utils"
)

// TaskLister is the part of the task collaborator the store loads from
type TaskLister interface {
	ListTasks(ctx context.Context, status api.Status) ([]api.Task, error)
}

// Store is the in-memory record of loaded tasks. It is rebuilt wholesale on
// every load; between loads only just-confirmed writes are mirrored into it.
type Store struct {
	byID map[int64]api.Task
	seq  []int64 // retrieval order, used to break order ties
	pins []pin   // dragged positions shown until the next Replace
}

// pin holds a dragged card at a column index. Stored orders are not dense,
// so the order value alone cannot always place the card where it was dropped.
type pin struct {
	id    int64
	index int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{byID: map[int64]api.Task{}}
}

// Replace discards the current contents and loads tasks in retrieval order
func (s *Store) Replace(tasks []api.Task) {
	s.byID = make(map[int64]api.Task, len(tasks))
	s.seq = s.seq[:0]
	s.pins = nil
	for _, t := range tasks {
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if _, dup := s.byID[t.ID]; !dup {
			s.seq = append(s.seq, t.ID)
		}
		s.byID[t.ID] = t
	}
}

// Len returns the number of loaded tasks
func (s *Store) Len() int {
	return len(s.byID)
}

// Get looks up a task by id
func (s *Store) Get(id int64) (api.Task, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// All returns every task in retrieval order
func (s *Store) All() []api.Task {
	out := make([]api.Task, 0, len(s.byID))
	for _, id := range s.seq {
		if t, ok := s.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Column returns the tasks of one status ordered by their stored Order.
// Equal orders keep retrieval order: the ordering is stable but not unique.
func (s *Store) Column(status api.Status) []api.Task {
	var out []api.Task
	for _, id := range s.seq {
		if t, ok := s.byID[id]; ok && t.Status == status {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	for _, p := range s.pins {
		from := -1
		for i, t := range out {
			if t.ID == p.id {
				from = i
				break
			}
		}
		if from < 0 {
			continue
		}
		t := out[from]
		out = append(out[:from], out[from+1:]...)
		to := min(p.index, len(out))
		out = append(out[:to], append([]api.Task{t}, out[to:]...)...)
	}
	return out
}

// Pin shows a task at index of its column until the next Replace. Later
// pins are applied after earlier ones.
func (s *Store) Pin(id int64, index int) {
	s.Unpin(id)
	s.pins = append(s.pins, pin{id: id, index: index})
}

// Unpin drops the pinned position of a task
func (s *Store) Unpin(id int64) {
	for i, p := range s.pins {
		if p.id == id {
			s.pins = append(s.pins[:i], s.pins[i+1:]...)
			return
		}
	}
}

// pinned returns the pinned index of a task
func (s *Store) pinned(id int64) (int, bool) {
	for _, p := range s.pins {
		if p.id == id {
			return p.index, true
		}
	}
	return 0, false
}

// PatchStatus mirrors a confirmed status write
func (s *Store) PatchStatus(id int64, status api.Status) bool {
	t, ok := s.byID[id]
	if ok {
		t.Status = status
		s.byID[id] = t
	}
	return ok
}

// PatchOrder mirrors a confirmed order write
func (s *Store) PatchOrder(id int64, order int) bool {
	t, ok := s.byID[id]
	if ok {
		t.Order = order
		s.byID[id] = t
	}
	return ok
}

// PatchTags mirrors a confirmed tag write
func (s *Store) PatchTags(id int64, tags []string) bool {
	t, ok := s.byID[id]
	if ok {
		t.Tags = append([]string{}, tags...)
		s.byID[id] = t
	}
	return ok
}

// Remove drops a deleted task
func (s *Store) Remove(id int64) {
	delete(s.byID, id)
	s.Unpin(id)
}

// FetchAll retrieves every display column in board order. It does not touch
// any store; callers pass the result to Replace.
func FetchAll(ctx context.Context, lister TaskLister) ([]api.Task, error) {
	var all []api.Task
	for _, status := range api.DisplayStatuses {
		tasks, err := lister.ListTasks(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("load %s tasks: %w", status, err)
		}
		for i := range tasks {
			// Trust the column we asked for.
			tasks[i].Status = status
		}
		all = append(all, tasks...)
	}
	utils.Log("Loaded %d tasks", len(all))
	return all, nil
}
