package prometheus

import (
	goLink "github.com/MrEthical07/goLink"
	"github.com/MrEthical07/goLink/metrics/export/internaldefs"
	promclient "github.com/prometheus/client_golang/prometheus"
)

// Collector adapts store metrics to a client_golang registry. Values are
// read from one snapshot per scrape.
type Collector struct {
	source       metricsSource
	counters     []*promclient.Desc
	histograms   []*promclient.Desc
	auditDropped *promclient.Desc
}

var _ promclient.Collector = (*Collector)(nil)

// NewCollector creates a Collector that reads from store.
func NewCollector(store *goLink.Store) *Collector {
	return NewCollectorFromSource(store)
}

// NewCollectorFromSource creates a Collector over any metrics source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counters:     make([]*promclient.Desc, len(internaldefs.CounterDefs)),
		histograms:   make([]*promclient.Desc, len(internaldefs.HistogramDefs)),
		auditDropped: promclient.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = promclient.NewDesc(def.Name, def.Help, nil, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = promclient.NewDesc(def.Name, def.Help, nil, nil)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *promclient.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.auditDropped
}

// Collect implements prometheus.Collector. Disabled metrics report zeros.
func (c *Collector) Collect(ch chan<- promclient.Metric) {
	snapshot := c.source.MetricsSnapshot()

	for i, def := range internaldefs.CounterDefs {
		ch <- promclient.MustNewConstMetric(c.counters[i], promclient.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for i, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for j, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[j]
		}
		ch <- promclient.MustNewConstHistogram(c.histograms[i], cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- promclient.MustNewConstMetric(c.auditDropped, promclient.CounterValue, float64(c.source.AuditDropped()))
}
