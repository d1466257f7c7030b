package calendar_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timely/pkg/api"
	"timely/pkg/board"
	"timely/pkg/calendar"
	"timely/pkg/engine"
	"timely/pkg/testutil"
)

func at(d, h, m int) api.LocalTime {
	return api.NewLocalTime(2024, 1, d, h, m)
}

func TestWeek_MondayBased(t *testing.T) {
	// 2024-01-10 is a Wednesday, 2024-01-14 a Sunday.
	for _, day := range []int{8, 10, 14} {
		w := calendar.Week(at(day, 15, 0).Time)
		assert.Equal(t, "2024-01-08T00:00:00", w.Start.String())
		assert.Equal(t, "2024-01-15T00:00:00", w.End.String())
	}

	w := calendar.Week(at(10, 0, 0).Time)
	days := w.Days()
	require.Len(t, days, 7)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Sunday, days[6].Weekday())
	assert.Equal(t, "2024-01-15", w.Next().Start.DateString())
	assert.Equal(t, "2024-01-01", w.Prev().Start.DateString())
	assert.True(t, w.Contains(at(14, 23, 30)))
	assert.False(t, w.Contains(at(15, 0, 0)))
}

func TestSlots(t *testing.T) {
	assert.Equal(t, 48, calendar.SlotsPerDay)
	assert.Equal(t, at(10, 9, 30), calendar.SlotStart(at(10, 17, 0), 19))
	assert.Equal(t, 19, calendar.SlotIndex(at(10, 9, 45)))
}

func TestAdapter_FiltersAndMaps(t *testing.T) {
	b, c := testutil.NewServer(t)
	ctx := context.Background()
	work := b.SeedTask(api.Task{Title: "Report", Status: api.StatusTodo, Order: 1, Tags: []string{"work"}})
	home := b.SeedTask(api.Task{Title: "Dishes", Status: api.StatusTodo, Order: 2, Tags: []string{"home"}})
	b.SeedEvent(api.Event{Title: "Report", Start: at(10, 9, 0), End: at(10, 9, 30), TaskID: api.Int64Ptr(work.ID)})
	b.SeedEvent(api.Event{Title: "Dishes", Start: at(11, 19, 0), End: at(11, 19, 30), TaskID: api.Int64Ptr(home.ID)})
	b.SeedEvent(api.Event{Title: "Lunch", Start: at(9, 12, 0), End: at(9, 13, 0), AllDay: false})
	b.SeedEvent(api.Event{Title: "Next week", Start: at(17, 12, 0), End: at(17, 13, 0)})

	st := board.NewState()
	require.NoError(t, st.Reload(ctx, c))
	a := calendar.NewAdapter(c, st)
	w := calendar.Week(at(10, 0, 0).Time)

	items, err := a.Fetch(ctx, w)
	require.NoError(t, err)
	titles := func(items []calendar.Item) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Lunch", "Report", "Dishes"}, titles(items))

	st.Selection.Toggle("work")
	items, err = a.Fetch(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch", "Report"}, titles(items))
	require.NotNil(t, items[1].TaskID)
	assert.Equal(t, work.ID, *items[1].TaskID)
}

func TestAdapter_SurfacesFailure(t *testing.T) {
	b, c := testutil.NewServer(t)
	a := calendar.NewAdapter(c, board.NewState())
	b.Fail(http.MethodGet, "/events", http.StatusInternalServerError, "calendar offline", 1)

	items, err := a.Fetch(context.Background(), calendar.Week(at(10, 0, 0).Time))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar offline")
	assert.Nil(t, items)

	items, err = a.Fetch(context.Background(), calendar.Week(at(10, 0, 0).Time))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestBridge_DropCreatesOneEventAndKeepsStatus(t *testing.T) {
	b, c := testutil.NewServer(t)
	task := b.SeedTask(api.Task{Title: "Laundry", Status: api.StatusBacklog, Order: 1})
	grid := calendar.NewGrid(calendar.Week(at(10, 0, 0).Time))
	br := calendar.NewBridge(grid, engine.New(c, c))

	d := calendar.PayloadFor(task).DropAt(at(10, 14, 0))
	assert.Equal(t, at(10, 14, 30), d.End)

	txn, tempID := br.Begin(d)
	assert.Less(t, tempID, int64(0))
	require.Len(t, grid.Items(), 1)
	assert.True(t, grid.Items()[0].Provisional)

	_, err := br.Persist(context.Background(), d)
	require.NoError(t, br.Finish(txn, tempID, err))
	assert.Equal(t, engine.PhaseCommitted, txn.Phase())
	assert.Empty(t, grid.Items())

	evs := b.EventsFor(task.ID)
	require.Len(t, evs, 1)
	assert.Equal(t, "2024-01-10T14:00:00", evs[0].Start.String())
	stored, _ := b.Task(task.ID)
	assert.Equal(t, api.StatusBacklog, stored.Status)
}

func TestBridge_FailedDropIsReverted(t *testing.T) {
	b, c := testutil.NewServer(t)
	task := b.SeedTask(api.Task{Title: "Laundry", Status: api.StatusBacklog, Order: 1})
	grid := calendar.NewGrid(calendar.Week(at(10, 0, 0).Time))
	br := calendar.NewBridge(grid, engine.New(c, c))
	b.Fail(http.MethodPost, "/events", http.StatusBadRequest, "slot taken", 1)

	_, err := br.Receive(context.Background(), calendar.PayloadFor(task).DropAt(at(10, 14, 0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot taken")
	assert.Empty(t, grid.Items())
	assert.Empty(t, b.EventsFor(task.ID))
}

func TestGrid_MoveCommitAndRevert(t *testing.T) {
	grid := calendar.NewGrid(calendar.Week(at(10, 0, 0).Time))
	grid.Load([]calendar.Item{
		{ID: 5, Title: "Lunch", Start: at(10, 12, 0), End: at(10, 13, 0)},
		{ID: 6, Title: "Holiday", Start: at(12, 0, 0), End: at(13, 0, 0), AllDay: true},
	})

	assert.Len(t, grid.At(at(10, 12, 30)), 1)
	assert.Empty(t, grid.At(at(10, 13, 0)))
	assert.Len(t, grid.AllDay(at(12, 0, 0)), 1)

	txn, err := grid.BeginMove(5, at(10, 14, 0), api.LocalTime{})
	require.NoError(t, err)
	moved, _ := grid.Get(5)
	assert.Equal(t, at(10, 14, 30), moved.End)
	require.NoError(t, txn.Settle(nil))

	txn, err = grid.BeginMove(5, at(11, 8, 0), at(11, 9, 0))
	require.NoError(t, err)
	assert.Error(t, txn.Settle(assert.AnError))
	back, _ := grid.Get(5)
	assert.Equal(t, at(10, 14, 0), back.Start)
	assert.Equal(t, engine.PhaseReverted, txn.Phase())

	_, err = grid.BeginMove(99, at(10, 9, 0), at(10, 9, 30))
	assert.Error(t, err)
	_, err = grid.BeginMove(5, at(10, 9, 0), at(10, 8, 0))
	assert.Error(t, err)
}

func TestGroupByDay(t *testing.T) {
	items := []calendar.Item{
		{ID: 1, Title: "b", Start: at(11, 10, 0)},
		{ID: 2, Title: "a", Start: at(10, 9, 0)},
		{ID: 3, Title: "holiday", Start: at(11, 0, 0), AllDay: true},
		{ID: 4, Title: "a", Start: at(11, 10, 0)},
	}

	days := calendar.GroupByDay(items)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-10", days[0].Date)
	assert.Equal(t, "2024-01-11", days[1].Date)

	var ids []int64
	for _, it := range days[1].Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{3, 4, 1}, ids)
	assert.Empty(t, calendar.GroupByDay(nil))
}
