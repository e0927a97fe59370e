// Package config loads crawler settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/ikoma-events/internal/export"
	"github.com/pfrederiksen/ikoma-events/internal/logger"
	"github.com/pfrederiksen/ikoma-events/internal/scraper"
	"github.com/pfrederiksen/ikoma-events/internal/storage"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Sort orders
const (
	SortNone  = "none"
	SortDate  = "date"
	SortTitle = "title"
)

type QueryConfig struct {
	EventType string `yaml:"event_type"` // ev, default 2
	Category  string `yaml:"category"`   // ca, default 0
	LoadMode  string `yaml:"load_mode"`  // eoeload, default t
}

type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	Interval   time.Duration `yaml:"interval"` // between requests; 0 disables limiting
	Burst      int           `yaml:"burst"`
	MaxRetries int           `yaml:"max_retries"`
}

type OutputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"` // csv|json|ics|sqlite; empty picks by extension
	DataDir     string `yaml:"data_dir"`
	MetricsFile string `yaml:"metrics_file"`
	Sort        string `yaml:"sort"` // none|date|title
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|text
}

type Config struct {
	ListURL  string       `yaml:"list_url"`
	Months   int          `yaml:"months"`
	MaxPages int          `yaml:"max_pages"`
	Workers  int          `yaml:"workers"`
	Query    QueryConfig  `yaml:"query"`
	HTTP     HTTPConfig   `yaml:"http"`
	Output   OutputConfig `yaml:"output"`
	Log      LogConfig    `yaml:"log"`
}

// Default returns the settings used when no file is given
func Default() Config {
	client := scraper.DefaultClientOptions()
	return Config{
		ListURL:  scraper.ListURL,
		Months:   scraper.DefaultMonths,
		MaxPages: scraper.MaxPages,
		Workers:  scraper.DefaultWorkers,
		Query: QueryConfig{
			EventType: scraper.DefaultEventType,
			Category:  scraper.DefaultCategory,
			LoadMode:  scraper.DefaultLoadMode,
		},
		HTTP: HTTPConfig{
			Timeout:    client.Timeout,
			UserAgent:  client.UserAgent,
			Interval:   client.Interval,
			Burst:      client.Burst,
			MaxRetries: client.MaxRetries,
		},
		Output: OutputConfig{
			Path:    export.DefaultPath,
			DataDir: storage.DefaultDataDir,
			Sort:    SortNone,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults
// unchanged; a path that does not exist is an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

// Validate reports the first setting that cannot be used
func (c Config) Validate() error {
	switch {
	case c.ListURL == "":
		return fmt.Errorf("%w: list_url is empty", ErrInvalid)
	case c.Months < 1:
		return fmt.Errorf("%w: months must be at least 1, got %d", ErrInvalid, c.Months)
	case c.MaxPages < 1:
		return fmt.Errorf("%w: max_pages must be at least 1, got %d", ErrInvalid, c.MaxPages)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.HTTP.Timeout < 0:
		return fmt.Errorf("%w: http.timeout must not be negative", ErrInvalid)
	case c.HTTP.Interval < 0:
		return fmt.Errorf("%w: http.interval must not be negative", ErrInvalid)
	case c.HTTP.Interval > 0 && c.HTTP.Burst < 1:
		return fmt.Errorf("%w: http.burst must be at least 1 when rate limiting", ErrInvalid)
	case c.HTTP.MaxRetries < 0:
		return fmt.Errorf("%w: http.max_retries must not be negative", ErrInvalid)
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Output.Sort {
	case "", SortNone, SortDate, SortTitle:
	default:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalid, c.Output.Sort)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Crawler returns the crawl settings
func (c Config) Crawler() scraper.Config {
	return scraper.Config{
		ListURL:   c.ListURL,
		Months:    c.Months,
		MaxPages:  c.MaxPages,
		Workers:   c.Workers,
		EventType: c.Query.EventType,
		Category:  c.Query.Category,
		LoadMode:  c.Query.LoadMode,
	}
}

// Client returns the HTTP client settings
func (c Config) Client() scraper.ClientOptions {
	opts := scraper.DefaultClientOptions()
	opts.Timeout = c.HTTP.Timeout
	opts.UserAgent = c.HTTP.UserAgent
	opts.Interval = c.HTTP.Interval
	opts.Burst = c.HTTP.Burst
	opts.MaxRetries = c.HTTP.MaxRetries
	return opts
}
