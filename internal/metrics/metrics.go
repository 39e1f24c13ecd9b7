package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/threadscrape/internal/model"
)

const namespace = "threadscrape"

// Collector implements the crawler's Observer interface with Prometheus
// counters. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	pages       prometheus.Counter
	records     prometheus.Counter
	duplicates  prometheus.Counter
	failures    prometheus.Counter
	currentPage prometheus.Gauge
	lastPage    prometheus.Gauge
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		pages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_crawled_total",
			Help:      "Listing pages fully extracted.",
		}),
		records: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Top-level comment trees written to the output.",
		}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Comments skipped because their identity was already seen.",
		}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_failures_total",
			Help:      "Comments dropped because they could not be parsed.",
		}),
		currentPage: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_page",
			Help:      "Listing page currently being processed.",
		}),
		lastPage: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_page",
			Help:      "Last listing page of the resolved range.",
		}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// BoundsResolved records the last page of the range.
func (c *Collector) BoundsResolved(r model.PageRange) {
	c.lastPage.Set(float64(r.Last))
}

// PageStarted records the page being processed.
func (c *Collector) PageStarted(page int, _ string) {
	c.currentPage.Set(float64(page))
}

// RecordEmitted counts a written record.
func (c *Collector) RecordEmitted(int) {
	c.records.Inc()
}

// PageDone counts a finished page.
func (c *Collector) PageDone(int, int) {
	c.pages.Inc()
}

// DuplicateSkipped counts a skipped duplicate.
func (c *Collector) DuplicateSkipped(string) {
	c.duplicates.Inc()
}

// NodeFailed counts a dropped comment.
func (c *Collector) NodeFailed(string, error) {
	c.failures.Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
