package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaultsOnFirstRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, styles, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.APIURL)
	assert.Equal(t, filepath.Join(home, ".config", "timely", "prefs.db"), cfg.Database)
	assert.Zero(t, cfg.RateLimit)
	assert.NotEmpty(t, cfg.KeyMap)
	assert.Equal(t, "205", styles.AccentColor)

	assert.FileExists(t, filepath.Join(home, ".config", "timely", "config.json"))
	assert.FileExists(t, filepath.Join(home, ".config", "timely", "styles.json"))

	// Second run reads what the first wrote.
	again, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg.APIURL, again.APIURL)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_url": "http://tasks.local/api",
		"rate_limit": 5,
		"keymap": {"QuickAdd": "N"}
	}`), 0644))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://tasks.local/api", cfg.APIURL)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, "N", cfg.KeyMap["quickadd"])
	assert.Equal(t, filepath.Join(home, "styles.json"), cfg.StylesFile)

	t.Setenv("TIMELY_API_URL", "http://override:9000/api")
	cfg, _, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000/api", cfg.APIURL)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(written), "override")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_url": "not a url", "rate_limit": -1}`), 0644))

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_MalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

	_, _, err := Load(path)
	assert.Error(t, err)
}
