package session_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/engine"
	"timely/pkg/session"
	"timely/pkg/testutil"
)

func at(h, m int) api.LocalTime {
	return api.NewLocalTime(2024, 1, 10, h, m)
}

type fixture struct {
	backend *testutil.Backend
	client  *api.Client
	state   *board.State
	editor  *session.Editor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b, c := testutil.NewServer(t)
	st := board.NewState()
	ed := session.NewEditor(st, engine.New(c, c), c)
	ed.Now = func() time.Time { return at(8, 0).Time }
	return fixture{backend: b, client: c, state: st, editor: ed}
}

func ptr(lt api.LocalTime) *api.LocalTime { return &lt }

func TestForm_Start(t *testing.T) {
	now := at(8, 0).Time

	start, err := session.Form{Time: ""}.Start(now)
	require.NoError(t, err)
	assert.Nil(t, start)

	start, err = session.Form{Time: "09:30"}.Start(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10T09:30:00", start.String())

	start, err = session.Form{Date: "2024-02-01", Time: "23:30"}.Start(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01T23:30:00", start.String())

	_, err = session.Form{Date: "tomorrow", Time: "10:00"}.Start(now)
	assert.Error(t, err)

	_, err = session.Form{Time: "10:15"}.Start(now)
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"urgent", "home"}, session.ParseTags(" urgent, home ,,urgent"))
	assert.Equal(t, []string{}, session.ParseTags(""))
}

func TestTimeOptions(t *testing.T) {
	opts := session.TimeOptions()
	require.Len(t, opts, 48)
	assert.Equal(t, "00:00", opts[0])
	assert.Equal(t, "09:30", opts[19])
	assert.Equal(t, "23:30", opts[47])
}

func TestOpenFromBoard_PrefillsFirstEvent(t *testing.T) {
	f := newFixture(t)
	task := f.backend.SeedTask(api.Task{Title: "Standup", Status: api.StatusTodo, Order: 1, Tags: []string{"work"}})
	f.backend.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})

	form := f.editor.Open(context.Background(), task)
	assert.Equal(t, "Standup", form.Title)
	assert.Equal(t, "work", form.Tags)
	assert.Equal(t, "2024-01-10", form.Date)
	assert.Equal(t, "09:00", form.Time)

	sess := f.editor.Current()
	assert.Equal(t, task.ID, sess.TaskID)
	assert.False(t, sess.CameFromCalendar)
	assert.Nil(t, sess.AnchorEventID)
	assert.False(t, sess.CanRemoveFromCalendar())
}

func TestOpenFromBoard_ProbeFailureLeavesTimeEmpty(t *testing.T) {
	f := newFixture(t)
	task := f.backend.SeedTask(api.Task{Title: "Standup", Status: api.StatusTodo, Order: 1})
	f.backend.Fail(http.MethodGet, "/events", http.StatusInternalServerError, "down", 0)

	form := f.editor.Open(context.Background(), task)
	assert.Empty(t, form.Time)
	assert.True(t, f.editor.Current().Active())
}

func TestSave_FromBoardUpdatesExistingEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Standup", Status: api.StatusTodo, Order: 1})
	ev := f.backend.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})
	f.state.Apply([]api.Task{task})

	form := f.editor.Open(ctx, task)
	form.Time = "10:00"
	form.Tags = "work, daily"
	require.NoError(t, f.editor.Save(ctx, form))

	evs := f.backend.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, ev.ID, evs[0].ID)
	assert.Equal(t, "2024-01-10T10:00:00", evs[0].Start.String())

	stored, _ := f.backend.Task(task.ID)
	assert.Equal(t, []string{"work", "daily"}, stored.Tags)
	local, _ := f.state.Store.Get(task.ID)
	assert.Equal(t, []string{"work", "daily"}, local.Tags)
	assert.Equal(t, []string{"daily", "work"}, f.state.AvailableTags())
	assert.False(t, f.editor.Current().Active())
}

func TestSave_FromCalendarTargetsAnchor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Gym", Status: api.StatusTodo, Order: 1})
	f.backend.SeedEvent(api.Event{Start: at(7, 0), End: at(7, 30), TaskID: api.Int64Ptr(task.ID)})
	anchor := f.backend.SeedEvent(api.Event{Start: at(18, 0), End: at(18, 30), TaskID: api.Int64Ptr(task.ID)})

	form := f.editor.OpenFromCalendar(task, anchor)
	assert.Equal(t, "18:00", form.Time)
	form.Time = "19:00"
	require.NoError(t, f.editor.Save(ctx, form))

	evs := f.backend.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, anchor.ID, evs[0].ID)
	assert.Equal(t, "2024-01-10T19:00:00", evs[0].Start.String())
}

func TestSave_WithoutTimeClearsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Call", Status: api.StatusWorking, Order: 1})
	f.backend.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})
	f.backend.SeedEvent(api.Event{Start: at(11, 0), End: at(11, 30), TaskID: api.Int64Ptr(task.ID)})

	form := f.editor.Open(ctx, task)
	form.Time = ""
	require.NoError(t, f.editor.Save(ctx, form))

	assert.Empty(t, f.backend.EventsFor(task.ID))
	stored, _ := f.backend.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
}

func TestSave_RequiresTitleAndKeepsSessionOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Call", Status: api.StatusTodo, Order: 1})

	form := f.editor.Open(ctx, task)
	form.Title = "   "
	assert.ErrorIs(t, f.editor.Save(ctx, form), session.ErrTitleRequired)
	assert.True(t, f.editor.Current().Active())
	assert.Zero(t, f.backend.CountRequests("PUT "))
}

func TestSave_DetailFailureAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Call", Status: api.StatusTodo, Order: 1})
	f.backend.Fail(http.MethodPut, "/tasks/"+strconv.FormatInt(task.ID, 10), http.StatusInternalServerError, "write failed", 1)

	form := f.editor.Open(ctx, task)
	form.Time = "10:00"
	err := f.editor.Save(ctx, form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
	assert.True(t, f.editor.Current().Active())
	assert.Zero(t, f.backend.CountRequests("POST /events"))
}

func TestSave_WithoutSession(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.editor.Save(context.Background(), session.Form{Title: "x"}), session.ErrNoSession)
}

func TestRemoveFromCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := engine.New(f.client, f.client).CreateTask(ctx, engine.NewTask{
		Title:  "Standup",
		Column: api.StatusTodo,
		Start:  ptr(at(9, 0)),
	})
	require.NoError(t, err)
	evs := f.backend.EventsFor(task.ID)
	require.Len(t, evs, 1)

	// Board sessions cannot remove.
	f.editor.OpenFromBoard(task, &evs[0])
	assert.ErrorIs(t, f.editor.RemoveFromCalendar(ctx), session.ErrNotFromCalendar)

	f.editor.OpenFromCalendar(task, evs[0])
	require.True(t, f.editor.Current().CanRemoveFromCalendar())
	require.NoError(t, f.editor.RemoveFromCalendar(ctx))

	assert.Empty(t, f.backend.EventsFor(task.ID))
	stored, _ := f.backend.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)

	sess := f.editor.Current()
	assert.True(t, sess.Active())
	assert.Nil(t, sess.AnchorEventID)
	assert.False(t, sess.CanRemoveFromCalendar())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.backend.SeedTask(api.Task{Title: "Pack", Status: api.StatusTodo, Order: 1, Tags: []string{"trip"}})
	f.backend.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})
	f.state.Apply([]api.Task{task})

	f.editor.OpenFromBoard(task, nil)
	require.NoError(t, f.editor.Delete(ctx))

	_, ok := f.backend.Task(task.ID)
	assert.False(t, ok)
	assert.Empty(t, f.backend.Events())
	assert.Zero(t, f.state.Store.Len())
	assert.Empty(t, f.state.AvailableTags())
	assert.False(t, f.editor.Current().Active())
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	f.editor.OpenFromCalendar(api.Task{ID: 3, Title: "x"}, api.Event{ID: 4, Start: at(9, 0)})
	f.editor.Close()
	assert.Equal(t, session.Session{}, f.editor.Current())
}
