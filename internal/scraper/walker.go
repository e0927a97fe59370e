package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/ikoma-events/internal/document"
	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/logger"
	"github.com/pfrederiksen/ikoma-events/internal/metrics"
)

// MaxPages bounds the listing pages fetched for one month
const MaxPages = 10

// MonthResult summarizes the pagination of one month
type MonthResult struct {
	Target       event.Target
	Pages        int // listing pages fetched
	Accepted     int
	Duplicates   int
	Skipped      int // entries without link, date or usable href
	DetailErrors int
	Cancelled    bool
	Err          error // listing fetch failure that ended the month early
}

type walkState int

const (
	stateFetching walkState = iota
	stateParsing
	stateDeciding
	stateStopped
)

// cursor is the pagination state of one month
type cursor struct {
	target   event.Target
	page     int
	valid    int
	maxPages int
}

// next decides whether another listing page should be fetched
func (c *cursor) next() walkState {
	if c.valid == 0 || c.page >= c.maxPages {
		return stateStopped
	}
	c.page++
	c.valid = 0
	return stateFetching
}

// PageWalker paginates the listing of one month
type PageWalker struct {
	fetcher  Fetcher
	listURL  *url.URL
	query    url.Values
	maxPages int
	workers  int
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewPageWalker creates a PageWalker. A nil logger or metrics falls back to
// the package defaults.
func NewPageWalker(cfg Config, f Fetcher, log *logger.Logger, m *metrics.Metrics) (*PageWalker, error) {
	cfg = cfg.withDefaults()
	listURL, err := url.Parse(cfg.ListURL)
	if err != nil {
		return nil, fmt.Errorf("parsing list URL: %w", err)
	}
	if !listURL.IsAbs() {
		return nil, fmt.Errorf("list URL %q is not absolute", cfg.ListURL)
	}
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	return &PageWalker{
		fetcher: f,
		listURL: listURL,
		query: url.Values{
			"ev":      {cfg.EventType},
			"ca":      {cfg.Category},
			"eoeload": {cfg.LoadMode},
		},
		maxPages: cfg.MaxPages,
		workers:  cfg.Workers,
		log:      log,
		metrics:  m,
	}, nil
}

// Walk pages through the listing of target, accepting records into c.
//
// The walk stops after a page that adds no new record, after the page cap,
// when the listing is missing, when a listing fetch fails, or once ctx is
// done. None of these end the crawl; a fetch failure is reported in Err.
func (w *PageWalker) Walk(ctx context.Context, target event.Target, c *event.Collection) MonthResult {
	res := MonthResult{Target: target}
	cur := &cursor{target: target, page: 1, maxPages: w.maxPages}

	var page document.Node
	state := stateFetching
	for state != stateStopped {
		switch state {
		case stateFetching:
			if ctx.Err() != nil {
				res.Cancelled = true
				state = stateStopped
				continue
			}
			doc, err := w.fetchListing(ctx, cur)
			if err != nil {
				w.metrics.PageFetched(metrics.OutcomeError)
				if ctx.Err() != nil {
					res.Cancelled = true
				} else {
					res.Err = fmt.Errorf("fetching %s page %d: %w", target, cur.page, err)
					w.log.Error("Listing fetch failed", logger.Fields{
						"month": target.String(),
						"page":  cur.page,
					}, err)
				}
				state = stateStopped
				continue
			}
			w.metrics.PageFetched(metrics.OutcomeOK)
			res.Pages++
			page = doc
			state = stateParsing

		case stateParsing:
			list, ok := page.First(listSelector)
			if !ok {
				if cur.page == 1 {
					w.log.Info("No events this month", logger.Fields{"month": target.String()})
				}
				state = stateStopped
				continue
			}
			w.processPage(ctx, list, cur, c, &res)
			w.log.Info("Page crawled", logger.Fields{
				"month":  target.String(),
				"page":   cur.page,
				"events": cur.valid,
			})
			state = stateDeciding

		case stateDeciding:
			state = cur.next()
		}
	}

	return res
}

func (w *PageWalker) fetchListing(ctx context.Context, cur *cursor) (document.Node, error) {
	params := url.Values{}
	for k, vs := range w.query {
		params[k] = vs
	}
	params.Set("mon", cur.target.Param())
	params.Set("page", strconv.Itoa(cur.page))

	start := time.Now()
	doc, err := w.fetcher.Fetch(ctx, w.listURL.String(), params)
	w.metrics.ObserveFetch(metrics.KindListing, time.Since(start))
	return doc, err
}

// processPage extracts, enriches and accepts the entries of one listing page
func (w *PageWalker) processPage(ctx context.Context, list document.Node, cur *cursor, c *event.Collection, res *MonthResult) {
	var candidates []*event.Record
	for _, item := range list.Find(itemSelector) {
		rec, err := ExtractItem(item, w.listURL, cur.target)
		if err != nil {
			res.Skipped++
			switch {
			case errors.Is(err, ErrNoAnchor):
				w.metrics.ItemProcessed(metrics.ItemNoAnchor)
			case IsMiss(err):
				w.metrics.ItemProcessed(metrics.ItemNoDate)
			default:
				w.metrics.ItemProcessed(metrics.ItemBadLink)
				w.log.Warn("Skipping list item", logger.Fields{
					"month": cur.target.String(),
					"page":  cur.page,
				}, err)
			}
			continue
		}
		candidates = append(candidates, rec)
	}

	done, detailErrors := w.enrich(ctx, candidates, c)
	res.DetailErrors += detailErrors

	// Accept in listing order so the collection order does not depend on
	// which worker finished first
	for i, rec := range candidates {
		if !done[i] {
			w.metrics.ItemProcessed(metrics.ItemCancelled)
			res.Cancelled = true
			continue
		}
		if c.Accept(rec) {
			cur.valid++
			res.Accepted++
			w.metrics.ItemProcessed(metrics.ItemAccepted)
		} else {
			res.Duplicates++
			w.metrics.ItemProcessed(metrics.ItemDuplicate)
		}
	}
}

// enrich fetches detail pages for candidates on at most w.workers goroutines.
// done[i] is false for candidates whose fetch never started because ctx was
// done. A failed fetch leaves the candidate without detail fields.
func (w *PageWalker) enrich(ctx context.Context, candidates []*event.Record, c *event.Collection) ([]bool, int) {
	done := make([]bool, len(candidates))
	var failures atomic.Int64

	var g errgroup.Group
	g.SetLimit(w.workers)

	for i, rec := range candidates {
		if ctx.Err() != nil {
			break
		}
		// Already collected from an earlier page; it will be discarded anyway
		if c.Contains(rec.Key()) {
			done[i] = true
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			start := time.Now()
			doc, err := w.fetcher.Fetch(ctx, rec.DetailURL, nil)
			w.metrics.ObserveFetch(metrics.KindDetail, time.Since(start))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				failures.Add(1)
				w.metrics.DetailFetched(metrics.OutcomeError)
				w.log.Warn("Detail fetch failed", logger.Fields{
					"url": rec.DetailURL,
				}, err)
				done[i] = true
				return nil
			}

			w.metrics.DetailFetched(metrics.OutcomeOK)
			rec.Enrich(ExtractDetail(doc))
			done[i] = true
			return nil
		})
	}

	// Workers never return errors; failures are absorbed above
	_ = g.Wait()

	return done, int(failures.Load())
}
