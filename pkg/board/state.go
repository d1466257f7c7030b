package board

import (
	"context"

	"timely/pkg/api"
)

// State is the application state shared by every component: the record
// store, the selected tags and the derived tag universe. One controller owns
// it and hands the pointer to the components that need it.
type State struct {
	Store     *Store
	Selection *Selection
	tags      []string
}

// NewState creates an empty state
func NewState() *State {
	return &State{Store: NewStore(), Selection: NewSelection()}
}

// Apply rebuilds the store and the tag universe from a fresh load
func (st *State) Apply(tasks []api.Task) {
	st.Store.Replace(tasks)
	st.tags = Tags(st.Store)
}

// Reload fetches every column and applies it. On error the previous
// contents are kept.
func (st *State) Reload(ctx context.Context, lister TaskLister) error {
	tasks, err := FetchAll(ctx, lister)
	if err != nil {
		return err
	}
	st.Apply(tasks)
	return nil
}

// AvailableTags is the tag universe from the last load, sorted
func (st *State) AvailableTags() []string {
	return st.tags
}

// RefreshTags recomputes the tag universe after a local tag patch
func (st *State) RefreshTags() {
	st.tags = Tags(st.Store)
}

// Visible applies the filter predicate with the current selection
func (st *State) Visible(t api.Task) bool {
	return Visible(st.Selection, t)
}

// VisibleColumn returns the visible tasks of one column in display order
func (st *State) VisibleColumn(status api.Status) []api.Task {
	var out []api.Task
	for _, t := range st.Store.Column(status) {
		if st.Visible(t) {
			out = append(out, t)
		}
	}
	return out
}
