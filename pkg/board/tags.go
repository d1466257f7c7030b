package board

import (
	"sort"

	"timely/pkg/api"
)

// Tags returns the distinct tags across loaded tasks, sorted
func Tags(s *Store) []string {
	seen := map[string]struct{}{}
	for _, t := range s.byID {
		for _, tag := range t.Tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Selection is the set of tag chips currently toggled on
type Selection struct {
	set map[string]struct{}
}

// NewSelection creates a selection holding tags
func NewSelection(tags ...string) *Selection {
	s := &Selection{set: map[string]struct{}{}}
	for _, t := range tags {
		s.set[t] = struct{}{}
	}
	return s
}

// Toggle flips tag and reports whether it is now selected
func (s *Selection) Toggle(tag string) bool {
	if _, ok := s.set[tag]; ok {
		delete(s.set, tag)
		return false
	}
	s.set[tag] = struct{}{}
	return true
}

// Clear deselects every tag
func (s *Selection) Clear() {
	s.set = map[string]struct{}{}
}

func (s *Selection) Has(tag string) bool {
	_, ok := s.set[tag]
	return ok
}

func (s *Selection) Empty() bool {
	return len(s.set) == 0
}

// Tags returns the selected tags, sorted
func (s *Selection) Tags() []string {
	out := make([]string, 0, len(s.set))
	for t := range s.set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Visible is the filter predicate shared by board cards and calendar events:
// an empty selection shows everything, otherwise a task needs at least one
// selected tag.
func Visible(sel *Selection, t api.Task) bool {
	if sel == nil || sel.Empty() {
		return true
	}
	for _, tag := range t.Tags {
		if sel.Has(tag) {
			return true
		}
	}
	return false
}

// EventVisible applies the predicate to a calendar event. Free-standing
// events are always shown. A linked event whose task is not loaded cannot
// match any tag, so it is shown only when nothing is selected.
func EventVisible(sel *Selection, s *Store, e api.Event) bool {
	if e.TaskID == nil {
		return true
	}
	t, ok := s.Get(*e.TaskID)
	if !ok {
		return sel == nil || sel.Empty()
	}
	return Visible(sel, t)
}
