package engine_test

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timely/pkg/api"
	"timely/pkg/engine"
	"timely/pkg/testutil"
)

func setup(t *testing.T) (*testutil.Backend, *engine.Engine) {
	t.Helper()
	b, c := testutil.NewServer(t)
	return b, engine.New(c, c)
}

func at(h, m int) api.LocalTime {
	return api.NewLocalTime(2024, 1, 10, h, m)
}

func ptr(lt api.LocalTime) *api.LocalTime { return &lt }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestSetSchedule_ExactlyOneEvent(t *testing.T) {
	for _, pre := range []int{0, 1, 3} {
		b, e := setup(t)
		task := b.SeedTask(api.Task{Title: "Standup", Status: api.StatusTodo, Order: 1})
		for i := 0; i < pre; i++ {
			b.SeedEvent(api.Event{Title: "Standup", Start: at(8, 0), End: at(8, 30), TaskID: api.Int64Ptr(task.ID)})
		}

		ev, err := e.SetSchedule(context.Background(), task.ID, ptr(at(9, 0)), task.Title, nil)
		require.NoError(t, err, "pre-existing events: %d", pre)
		require.NotNil(t, ev)

		evs := b.EventsFor(task.ID)
		require.Len(t, evs, 1, "pre-existing events: %d", pre)
		assert.Equal(t, at(9, 0), evs[0].Start)
		assert.Equal(t, at(9, 30), evs[0].End)
		assert.Equal(t, ev.ID, evs[0].ID)
	}
}

func TestSetSchedule_UpdatesAnchorAndDropsOthers(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Gym", Status: api.StatusTodo, Order: 1})
	first := b.SeedEvent(api.Event{Start: at(7, 0), End: at(7, 30), TaskID: api.Int64Ptr(task.ID)})
	anchor := b.SeedEvent(api.Event{Start: at(18, 0), End: at(18, 30), TaskID: api.Int64Ptr(task.ID)})

	ev, err := e.SetSchedule(context.Background(), task.ID, ptr(at(19, 0)), task.Title, &anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, anchor.ID, ev.ID)

	evs := b.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, anchor.ID, evs[0].ID)
	assert.NotEqual(t, first.ID, evs[0].ID)
	assert.Equal(t, at(19, 0), evs[0].Start)
}

func TestSetSchedule_StaleAnchorCreates(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Read", Status: api.StatusTodo, Order: 1})

	ev, err := e.SetSchedule(context.Background(), task.ID, ptr(at(21, 0)), task.Title, api.Int64Ptr(999))
	require.NoError(t, err)
	evs := b.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, ev.ID, evs[0].ID)
	assert.Equal(t, "Read", evs[0].Title)
}

func TestSetSchedule_ClearRemovesAllAndBacklogs(t *testing.T) {
	for _, pre := range []int{0, 1, 4} {
		b, e := setup(t)
		task := b.SeedTask(api.Task{Title: "Call", Status: api.StatusWorking, Order: 2})
		for i := 0; i < pre; i++ {
			b.SeedEvent(api.Event{Start: at(10, 0), End: at(10, 30), TaskID: api.Int64Ptr(task.ID)})
		}
		free := b.SeedEvent(api.Event{Title: "Lunch", Start: at(12, 0), End: at(13, 0)})

		ev, err := e.SetSchedule(context.Background(), task.ID, nil, task.Title, nil)
		require.NoError(t, err)
		assert.Nil(t, ev)
		assert.Empty(t, b.EventsFor(task.ID))

		stored, _ := b.Task(task.ID)
		assert.Equal(t, api.StatusBacklog, stored.Status)
		assert.Len(t, b.Events(), 1)
		assert.Equal(t, free.ID, b.Events()[0].ID)
	}
}

func TestSetSchedule_ClearStillBacklogsWhenDeleteFails(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Call", Status: api.StatusTodo, Order: 1})
	ev := b.SeedEvent(api.Event{Start: at(10, 0), End: at(10, 30), TaskID: api.Int64Ptr(task.ID)})
	b.Fail(http.MethodDelete, "/events/"+itoa(ev.ID), http.StatusInternalServerError, "boom", 0)

	_, err := e.SetSchedule(context.Background(), task.ID, nil, task.Title, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
}

func TestMoveTask_Idempotent(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Write", Status: api.StatusBacklog, Order: 1})
	ctx := context.Background()

	require.NoError(t, e.MoveTask(ctx, task.ID, api.StatusWorking, 3))
	once, _ := b.Task(task.ID)
	require.NoError(t, e.MoveTask(ctx, task.ID, api.StatusWorking, 3))
	twice, _ := b.Task(task.ID)

	assert.Equal(t, once, twice)
	assert.Equal(t, api.StatusWorking, twice.Status)
	assert.Equal(t, 3, twice.Order)
}

func TestMoveTask_RejectsBadInput(t *testing.T) {
	b, e := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.MoveTask(ctx, 1, "later", 1), api.ErrValidation)
	assert.ErrorIs(t, e.MoveTask(ctx, 1, api.StatusTodo, 0), api.ErrValidation)
	assert.Empty(t, b.Requests())
}

func TestDeleteTask_Cascade(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Pack", Status: api.StatusTodo, Order: 1})
	other := b.SeedTask(api.Task{Title: "Keep", Status: api.StatusTodo, Order: 2})
	for i := 0; i < 3; i++ {
		b.SeedEvent(api.Event{Start: at(9+i, 0), End: at(9+i, 30), TaskID: api.Int64Ptr(task.ID)})
	}
	kept := b.SeedEvent(api.Event{Start: at(15, 0), End: at(15, 30), TaskID: api.Int64Ptr(other.ID)})

	require.NoError(t, e.DeleteTask(context.Background(), task.ID))

	_, ok := b.Task(task.ID)
	assert.False(t, ok)
	assert.Empty(t, b.EventsFor(task.ID))
	require.Len(t, b.Events(), 1)
	assert.Equal(t, kept.ID, b.Events()[0].ID)
	assert.Equal(t, 3, b.CountRequests("DELETE /events/"))
}

func TestDeleteTask_ProbeFailureStillDeletesTask(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Pack", Status: api.StatusTodo, Order: 1})
	b.Fail(http.MethodGet, "/events", http.StatusBadGateway, "probe down", 0)

	require.NoError(t, e.DeleteTask(context.Background(), task.ID))
	_, ok := b.Task(task.ID)
	assert.False(t, ok)
}

func TestDeleteTask_RetryAfterTaskFailure(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Pack", Status: api.StatusTodo, Order: 1})
	b.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})
	b.Fail(http.MethodDelete, "/tasks/"+itoa(task.ID), http.StatusServiceUnavailable, "busy", 1)
	ctx := context.Background()

	err := e.DeleteTask(ctx, task.ID)
	require.Error(t, err)
	var herr *api.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusServiceUnavailable, herr.StatusCode)

	// Events are already gone; the task survived.
	assert.Empty(t, b.EventsFor(task.ID))
	_, ok := b.Task(task.ID)
	assert.True(t, ok)

	require.NoError(t, e.DeleteTask(ctx, task.ID))
	_, ok = b.Task(task.ID)
	assert.False(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, e.DeleteTask(ctx, task.ID))
}

func TestReceiveExternalDrop_KeepsStatus(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Laundry", Status: api.StatusBacklog, Order: 1})

	ev, err := e.ReceiveExternalDrop(context.Background(), task.ID, at(14, 0), api.LocalTime{}, task.Title, false)
	require.NoError(t, err)
	assert.Equal(t, at(14, 30), ev.End)

	evs := b.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, at(14, 0), evs[0].Start)

	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
	assert.Zero(t, b.CountRequests("PUT /tasks/"))
}

func TestCreateTask_WithoutTimeGoesToBacklog(t *testing.T) {
	b, e := setup(t)

	task, err := e.CreateTask(context.Background(), engine.NewTask{Title: "Buy milk", Column: api.StatusTodo})
	require.NoError(t, err)

	stored, ok := b.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, api.StatusBacklog, stored.Status)
	assert.Equal(t, 1, stored.Order)
	assert.Empty(t, b.Events())
}

func TestCreateTask_WithTimeSchedulesIntoColumn(t *testing.T) {
	b, e := setup(t)

	task, err := e.CreateTask(context.Background(), engine.NewTask{
		Title:  "Standup",
		Column: api.StatusTodo,
		Start:  ptr(at(9, 0)),
	})
	require.NoError(t, err)

	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusTodo, stored.Status)
	evs := b.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, "2024-01-10T09:00:00", evs[0].Start.String())
	assert.Equal(t, "2024-01-10T09:30:00", evs[0].End.String())
}

func TestQuickAdd(t *testing.T) {
	b, e := setup(t)

	task, err := e.QuickAdd(context.Background(), "Call mom")
	require.NoError(t, err)
	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
	assert.Empty(t, stored.Tags)

	_, err = e.QuickAdd(context.Background(), "")
	assert.ErrorIs(t, err, api.ErrValidation)
}

func TestRemoveFromCalendar(t *testing.T) {
	b, e := setup(t)
	task := b.SeedTask(api.Task{Title: "Standup", Status: api.StatusTodo, Order: 1})
	ev := b.SeedEvent(api.Event{Start: at(9, 0), End: at(9, 30), TaskID: api.Int64Ptr(task.ID)})

	require.NoError(t, e.RemoveFromCalendar(context.Background(), task.ID, ev.ID))
	assert.Empty(t, b.EventsFor(task.ID))
	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
}

func TestMoveEvent_DefaultsEnd(t *testing.T) {
	b, e := setup(t)
	ev := b.SeedEvent(api.Event{Title: "Lunch", Start: at(12, 0), End: at(13, 0)})

	moved, err := e.MoveEvent(context.Background(), ev.ID, at(12, 30), api.LocalTime{})
	require.NoError(t, err)
	assert.Equal(t, at(13, 0), moved.End)
}

func TestDispatch_Results(t *testing.T) {
	b, e := setup(t)
	ctx := context.Background()
	task := b.SeedTask(api.Task{Title: "Plan", Status: api.StatusBacklog, Order: 1})

	res := e.Dispatch(ctx, engine.ReceiveDropCmd{TaskID: task.ID, Start: at(14, 0), Title: task.Title})
	require.NoError(t, res.Err)
	assert.True(t, res.RefetchCalendar)
	assert.False(t, res.ReloadTasks)
	require.NotNil(t, res.Event)

	res = e.Dispatch(ctx, engine.SetScheduleCmd{TaskID: task.ID})
	require.NoError(t, res.Err)
	assert.True(t, res.ReloadTasks)
	assert.True(t, res.RefetchCalendar)

	res = e.Dispatch(ctx, engine.MoveTaskCmd{TaskID: 12345, Status: api.StatusDone, Order: 1})
	assert.True(t, api.IsNotFound(res.Err))
	assert.Equal(t, "move-task", res.Command.Name())
}

func TestDispatch_ConcurrentSafe(t *testing.T) {
	b, e := setup(t)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, b.SeedTask(api.Task{Title: "T", Status: api.StatusTodo, Order: i + 1}).ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			res := e.Dispatch(ctx, engine.DeleteTaskCmd{TaskID: id})
			assert.NoError(t, res.Err)
		}(id)
	}
	wg.Wait()
	for _, id := range ids {
		_, ok := b.Task(id)
		assert.False(t, ok)
	}
}

func TestDeleteEvent_GoneCountsAsDeleted(t *testing.T) {
	b, e := setup(t)
	ev := b.SeedEvent(api.Event{Title: "Dentist", Start: at(14, 0), End: at(15, 0)})
	ctx := context.Background()

	require.NoError(t, e.DeleteEvent(ctx, ev.ID))
	assert.Empty(t, b.Events())

	// Deleting it again finds nothing to delete
	require.NoError(t, e.DeleteEvent(ctx, ev.ID))

	other := b.SeedEvent(api.Event{Title: "Standup", Start: at(9, 0), End: at(9, 30)})
	b.Fail(http.MethodDelete, "/events/"+itoa(other.ID), http.StatusInternalServerError, "boom", 1)
	assert.Error(t, e.DeleteEvent(ctx, other.ID))
	assert.Len(t, b.Events(), 1)
}
