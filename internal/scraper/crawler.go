package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/logger"
	"github.com/pfrederiksen/ikoma-events/internal/metrics"
)

// Defaults for the listing query and crawl window
const (
	DefaultMonths    = 3
	DefaultWorkers   = 4
	DefaultEventType = "2"
	DefaultCategory  = "0"
	DefaultLoadMode  = "t"
)

// Config controls what a Crawler fetches
type Config struct {
	ListURL   string
	Months    int
	MaxPages  int
	Workers   int
	EventType string // ev
	Category  string // ca
	LoadMode  string // eoeload

	// Start selects the first month of the window; zero means now
	Start time.Time
}

// DefaultConfig returns the configuration for the live site
func DefaultConfig() Config {
	return Config{
		ListURL:   ListURL,
		Months:    DefaultMonths,
		MaxPages:  MaxPages,
		Workers:   DefaultWorkers,
		EventType: DefaultEventType,
		Category:  DefaultCategory,
		LoadMode:  DefaultLoadMode,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ListURL == "" {
		c.ListURL = d.ListURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = d.MaxPages
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.EventType == "" {
		c.EventType = d.EventType
	}
	if c.Category == "" {
		c.Category = d.Category
	}
	if c.LoadMode == "" {
		c.LoadMode = d.LoadMode
	}
	return c
}

// Result is the outcome of one crawl
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Months     []MonthResult
	Records    []*event.Record
	Cancelled  bool
}

// Failed returns the months whose pagination ended on a fetch error
func (r *Result) Failed() []MonthResult {
	var failed []MonthResult
	for _, m := range r.Months {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// Crawler drives a PageWalker across the configured months
type Crawler struct {
	cfg     Config
	walker  *PageWalker
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a Crawler
func New(cfg Config, f Fetcher, log *logger.Logger, m *metrics.Metrics) (*Crawler, error) {
	if f == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	if cfg.Months < 0 {
		return nil, fmt.Errorf("months must not be negative: %d", cfg.Months)
	}
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	walker, err := NewPageWalker(cfg, f, log, m)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		cfg:     cfg.withDefaults(),
		walker:  walker,
		log:     log,
		metrics: m,
	}, nil
}

// Targets returns the months the crawler will visit
func (c *Crawler) Targets() []event.Target {
	var targets []event.Target
	for t := range event.Months(c.start(), c.cfg.Months) {
		targets = append(targets, t)
	}
	return targets
}

func (c *Crawler) start() time.Time {
	if c.cfg.Start.IsZero() {
		return time.Now()
	}
	return c.cfg.Start
}

// Run crawls every month of the window into one collection.
//
// Failures of one month never stop the others. When ctx is done no further
// request is started and the records collected so far are returned with
// Cancelled set.
func (c *Crawler) Run(ctx context.Context) *Result {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	collection := event.NewCollection()

	c.log.Info("Crawl starting", logger.Fields{
		"run_id":  res.RunID,
		"months":  c.cfg.Months,
		"workers": c.cfg.Workers,
	})

	for target := range event.Months(c.start(), c.cfg.Months) {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		c.log.Info("Crawling month", logger.Fields{
			"month": target.String(),
			"mon":   target.Param(),
		})
		mr := c.walker.Walk(ctx, target, collection)
		if mr.Cancelled {
			res.Cancelled = true
		}
		res.Months = append(res.Months, mr)
	}

	res.Records = collection.Records()
	res.FinishedAt = time.Now().UTC()
	c.metrics.SetRecords(len(res.Records))

	fields := logger.Fields{
		"run_id":   res.RunID,
		"records":  len(res.Records),
		"failed":   len(res.Failed()),
		"duration": res.FinishedAt.Sub(res.StartedAt).String(),
	}
	if res.Cancelled {
		c.log.Warn("Crawl cancelled, keeping partial results", fields, ctx.Err())
	} else {
		c.log.Info("Crawl finished", fields)
	}

	return res
}
