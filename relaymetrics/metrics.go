// Package relaymetrics exports relay module counters to Prometheus.
package relaymetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amorphic/tosr0x/relay"
)

// ModuleSource lists modules. discovery.Registry and ModuleList implement it.
type ModuleSource interface {
	Range(f func(addr string, m *relay.Module) bool)
}

// ModuleList is a fixed ModuleSource.
type ModuleList []*relay.Module

// Range calls f for every module until f returns false.
func (l ModuleList) Range(f func(addr string, m *relay.Module) bool) {
	for _, m := range l {
		if !f(m.Address(), m) {
			return
		}
	}
}

// Collector is a prometheus.Collector reading the counters of every module of a
// ModuleSource at scrape time.
type Collector struct {
	source ModuleSource

	commands    *prometheus.Desc
	failures    *prometheus.Desc
	throttled   *prometheus.Desc
	invalidArgs *prometheus.Desc
	relays      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for the modules of source. Metric names are
// prefixed with namespace when it is not empty.
func NewCollector(namespace string, source ModuleSource) *Collector {
	labels := []string{"addr", "transport"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "relay", name), help, labels, nil)
	}

	return &Collector{
		source:      source,
		commands:    desc("commands_total", "Commands sent to the board."),
		failures:    desc("command_failures_total", "Commands that failed in the transport."),
		throttled:   desc("commands_throttled_total", "Commands delayed to keep the minimum command interval."),
		invalidArgs: desc("invalid_arguments_total", "Calls rejected before a command was sent."),
		relays:      desc("count", "Number of relays on the board."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commands
	ch <- c.failures
	ch <- c.throttled
	ch <- c.invalidArgs
	ch <- c.relays
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.source.Range(func(addr string, m *relay.Module) bool {
		kind := m.Kind().String()
		metrics := m.Metrics()

		counter := func(desc *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), addr, kind)
		}
		counter(c.commands, metrics.CommandCount.Load())
		counter(c.failures, metrics.CommandErrCount.Load())
		counter(c.throttled, metrics.ThrottleCount.Load())
		counter(c.invalidArgs, metrics.InvalidArgCount.Load())
		ch <- prometheus.MustNewConstMetric(c.relays, prometheus.GaugeValue, float64(m.RelayCount()), addr, kind)

		return true
	})
}

// NewRegistry creates a Prometheus registry with the Go and process collectors and
// a Collector for source.
func NewRegistry(namespace string, source ModuleSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewCollector(namespace, source),
	)

	return reg
}

// Handler returns the HTTP handler serving the metrics of reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
