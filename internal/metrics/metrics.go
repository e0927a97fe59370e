// Package metrics tracks crawl counters on a private Prometheus registry.
//
// A crawl is a short-lived CLI run, so metrics are not served over HTTP;
// WriteTextfile dumps them in the text exposition format for node_exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ikoma_events"

// Item outcomes
const (
	ItemAccepted  = "accepted"
	ItemDuplicate = "duplicate"
	ItemNoAnchor  = "no_anchor"
	ItemNoDate    = "no_date"
	ItemBadLink   = "bad_link"
	ItemCancelled = "cancelled"
)

// Fetch outcomes and kinds
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"

	KindListing = "listing"
	KindDetail  = "detail"
)

// Metrics holds the collectors for one crawl. All methods are safe for
// concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	pages         *prometheus.CounterVec
	items         *prometheus.CounterVec
	details       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	records       prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// New creates a Metrics with its collectors registered
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.pages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_pages_total",
		Help:      "Listing pages fetched, by outcome",
	}, []string{"outcome"})
	m.items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_items_total",
		Help:      "Listing entries processed, by outcome",
	}, []string{"outcome"})
	m.details = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detail_fetches_total",
		Help:      "Detail pages fetched, by outcome",
	}, []string{"outcome"})
	m.fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time spent on one HTTP fetch including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	m.records = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Unique records collected by the last crawl",
	})
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last crawl whose output was written",
	})

	m.registry.MustRegister(m.pages, m.items, m.details, m.fetchDuration, m.records, m.lastSuccess)
	return m
}

// PageFetched counts one listing fetch
func (m *Metrics) PageFetched(outcome string) {
	m.pages.WithLabelValues(outcome).Inc()
}

// ItemProcessed counts one listing entry
func (m *Metrics) ItemProcessed(outcome string) {
	m.items.WithLabelValues(outcome).Inc()
}

// DetailFetched counts one detail fetch
func (m *Metrics) DetailFetched(outcome string) {
	m.details.WithLabelValues(outcome).Inc()
}

// ObserveFetch records how long a fetch of the given kind took
func (m *Metrics) ObserveFetch(kind string, d time.Duration) {
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetRecords sets the number of records collected
func (m *Metrics) SetRecords(n int) {
	m.records.Set(float64(n))
}

// MarkSuccess stamps the last successful run
func (m *Metrics) MarkSuccess(at time.Time) {
	m.lastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics to path in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
