package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListTasks returns the tasks of one column in collaborator order
func (c *Client) ListTasks(ctx context.Context, status Status) ([]Task, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task
func (c *Client) GetTask(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &t)
	return t, err
}

// CreateTask inserts a new task
func (c *Client) CreateTask(ctx context.Context, in TaskCreate) (Task, error) {
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if err := c.check(in); err != nil {
		return Task{}, err
	}
	var t Task
	err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &t)
	return t, err
}

// UpdateTask sends a partial update; only non-nil patch fields are sent
func (c *Client) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	if err := c.check(patch); err != nil {
		return Task{}, err
	}
	var t Task
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), nil, patch, &t)
	return t, err
}

// DeleteTask removes a task. Its events are not touched by the collaborator
// contract; see engine.DeleteTask for the cascade.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, nil)
}
