package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// EventsForTask lists every event referencing taskID
func (c *Client) EventsForTask(ctx context.Context, taskID int64) ([]Event, error) {
	q := url.Values{}
	q.Set("task_id", strconv.FormatInt(taskID, 10))
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventsInRange lists events overlapping [start, end]
func (c *Client) EventsInRange(ctx context.Context, start, end LocalTime) ([]Event, error) {
	q := url.Values{}
	q.Set("start", start.String())
	q.Set("end", end.String())
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/events", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent inserts a new event
func (c *Client) CreateEvent(ctx context.Context, in EventCreate) (Event, error) {
	if err := c.check(in); err != nil {
		return Event{}, err
	}
	if in.Start.IsZero() || in.End.Before(in.Start.Time) {
		return Event{}, fmt.Errorf("%w: event window %s..%s", ErrValidation, in.Start, in.End)
	}
	var e Event
	err := c.do(ctx, http.MethodPost, "/events", nil, in, &e)
	return e, err
}

// UpdateEvent moves or resizes an event
func (c *Client) UpdateEvent(ctx context.Context, id int64, patch EventPatch) (Event, error) {
	if patch.Start != nil && patch.End != nil && patch.End.Before(patch.Start.Time) {
		return Event{}, fmt.Errorf("%w: event window %s..%s", ErrValidation, patch.Start, patch.End)
	}
	var e Event
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/events/%d", id), nil, patch, &e)
	return e, err
}

// DeleteEvent removes one event
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil, nil)
}
