package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"timely/pkg/utils"
)

// ErrValidation is returned when a payload is rejected before it is sent
var ErrValidation = errors.New("invalid payload")

// HTTPError is a non-success collaborator response. The response body is
// the error detail.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the collaborator
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// Options configures a Client
type Options struct {
	// BaseURL is the collaborator root, e.g. http://localhost:8000/api
	BaseURL string
	// HTTPClient defaults to a client without timeout; timeouts are left
	// to the collaborator.
	HTTPClient *http.Client
	// RateLimit caps requests per second. Zero disables throttling.
	RateLimit float64
}

// Client talks to the task and event collaborators
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	validate *validator.Validate
}

// NewClient creates a collaborator client
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		validate: validator.New(),
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

func (c *Client) check(payload any) error {
	if err := c.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// do issues one JSON request and decodes the response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		utils.Logger().Warnw("collaborator request failed",
			"request_id", reqID, "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	utils.Logger().Debugw("collaborator request",
		"request_id", reqID,
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", float64(time.Since(started).Microseconds())/1000,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
