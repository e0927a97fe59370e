package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/ikoma-events/internal/scraper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, scraper.ListURL, c.ListURL)
	assert.Equal(t, 3, c.Months)
	assert.Equal(t, 10, c.MaxPages)
	assert.Equal(t, "2", c.Query.EventType)
	assert.Equal(t, "0", c.Query.Category)
	assert.Equal(t, "t", c.Query.LoadMode)
	assert.Equal(t, time.Second, c.HTTP.Interval)
	assert.Equal(t, "ikoma_events.csv", c.Output.Path)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
months: 6
workers: 2
query:
  category: "5"
http:
  timeout: 10s
  interval: 1500ms
  max_retries: 4
output:
  path: out/events.json
  sort: date
log:
  level: debug
  format: text
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 6, c.Months)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, "5", c.Query.Category)
	assert.Equal(t, 10*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 1500*time.Millisecond, c.HTTP.Interval)
	assert.Equal(t, 4, c.HTTP.MaxRetries)
	assert.Equal(t, "out/events.json", c.Output.Path)
	assert.Equal(t, SortDate, c.Output.Sort)
	assert.Equal(t, "text", c.Log.Format)

	// Unset keys keep their defaults
	assert.Equal(t, scraper.ListURL, c.ListURL)
	assert.Equal(t, 10, c.MaxPages)
	assert.Equal(t, "2", c.Query.EventType)
	assert.Equal(t, scraper.UserAgent, c.HTTP.UserAgent)
}

func TestLoad_NoPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "months: [not a number"))
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty list url", func(c *Config) { c.ListURL = "" }},
		{"zero months", func(c *Config) { c.Months = 0 }},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = -time.Second }},
		{"negative interval", func(c *Config) { c.HTTP.Interval = -time.Second }},
		{"zero burst while limiting", func(c *Config) { c.HTTP.Burst = 0 }},
		{"negative retries", func(c *Config) { c.HTTP.MaxRetries = -1 }},
		{"unknown format", func(c *Config) { c.Output.Format = "xlsx" }},
		{"unknown sort", func(c *Config) { c.Output.Sort = "venue" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}

	t.Run("zero burst without limiting", func(t *testing.T) {
		c := Default()
		c.HTTP.Interval = 0
		c.HTTP.Burst = 0
		assert.NoError(t, c.Validate())
	})
}

func TestConversions(t *testing.T) {
	c := Default()
	c.Workers = 8
	c.Query.LoadMode = "f"
	c.HTTP.Interval = 0
	c.HTTP.UserAgent = "test/1.0"

	sc := c.Crawler()
	assert.Equal(t, 8, sc.Workers)
	assert.Equal(t, "f", sc.LoadMode)
	assert.Equal(t, c.ListURL, sc.ListURL)
	assert.True(t, sc.Start.IsZero())

	opts := c.Client()
	assert.Equal(t, time.Duration(0), opts.Interval)
	assert.Equal(t, "test/1.0", opts.UserAgent)
	assert.Equal(t, scraper.DefaultRetryWait, opts.RetryWait)
}
