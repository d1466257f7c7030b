package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timely/pkg/api"
	"timely/pkg/testutil"
)

type harness struct {
	backend *testutil.Backend
	url     string
	config  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	b := testutil.NewBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	return &harness{
		backend: b,
		url:     srv.URL + "/api",
		config:  filepath.Join(home, "timely", "config.json"),
	}
}

// run executes the command tree with stdin and returns what it printed
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := &App{now: func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local) }}
	cmd := newRootCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.config, "--api", h.url}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddThenList(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "add", "Write", "report", "#work", "--time", "09:00", "--column", "working")
	require.NoError(t, err)
	assert.Contains(t, out, `Added task 1 "Write report" to working`)

	evs := h.backend.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, api.NewLocalTime(2024, 1, 10, 9, 0), evs[0].Start)

	out, err = h.run(t, "", "list", "--tag", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "working (1):")
	assert.Contains(t, out, "Write report #work")
}

func TestFirstRunWritesConfig(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "tags")
	require.NoError(t, err)

	_, err = os.Stat(h.config)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(h.config), "styles.json"))
	assert.NoError(t, err)
}

func TestConfigFileURLWithoutFlag(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedTask(api.Task{Title: "From file", Status: api.StatusBacklog, Order: 1})
	require.NoError(t, os.MkdirAll(filepath.Dir(h.config), 0755))
	require.NoError(t, os.WriteFile(h.config, []byte(`{"api_url": "`+h.url+`"}`), 0644))

	app := &App{now: time.Now}
	cmd := newRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", h.config, "list"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "From file")
	assert.Equal(t, h.url, app.Config.APIURL)
}

func TestDeleteReadsConfirmation(t *testing.T) {
	h := newHarness(t)
	task := h.backend.SeedTask(api.Task{Title: "Old", Status: api.StatusDone, Order: 1})

	out, err := h.run(t, "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled.")

	out, err = h.run(t, "y\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 task(s)")
	_, ok := h.backend.Task(task.ID)
	assert.False(t, ok)
}

func TestArgumentErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "bogus")
	assert.Error(t, err)

	_, err = h.run(t, "", "schedule", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = h.run(t, "", "unschedule", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")

	_, err = h.run(t, "", "move", "1")
	assert.Error(t, err)
}

func TestImportFromStdinThenEvents(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "todo:\n- [ ] 10:00 Standup #work\n", "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully imported 1 task(s)")

	out, err = h.run(t, "", "events")
	require.NoError(t, err)
	assert.Contains(t, out, "10:00-10:30  Standup")

	out, err = h.run(t, "", "export", "-", "--type", "txt")
	require.NoError(t, err)
	assert.Contains(t, out, "- [ ] 2024-01-10 10:00 Standup #work")
}
