// Package metrics holds Prometheus counters for the browsing core. The
// registry is private; the debug overlay reads it back through Snapshot.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "vitrine"

// Metrics is the set of counters the core updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec // purpose, outcome
	staleDiscards *prometheus.CounterVec // operation
	itemLookups   *prometheus.CounterVec // outcome
	viewsMarked   prometheus.Counter
	forwardErrors prometheus.Counter
	requestSecs   *prometheus.HistogramVec // operation
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_requests_total",
		Help:      "Catalog page requests by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	m.staleDiscards = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_discards_total",
		Help:      "Responses dropped because a newer request superseded them.",
	}, []string{"operation"})

	m.itemLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_lookups_total",
		Help:      "Deep-link single item lookups by outcome.",
	}, []string{"outcome"})

	m.viewsMarked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "views_marked_total",
		Help:      "Items newly added to the session viewed set.",
	})

	m.forwardErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_forward_errors_total",
		Help:      "View events that could not be delivered upstream.",
	})

	m.requestSecs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Catalog API latency by operation.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	m.registry.MustRegister(m.requests, m.staleDiscards, m.itemLookups,
		m.viewsMarked, m.forwardErrors, m.requestSecs)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// PageRequest counts one page response by purpose ("reset", "more") and
// outcome ("applied", "stale", "rejected", "error").
func (m *Metrics) PageRequest(purpose, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(purpose, outcome).Inc()
	if outcome == "stale" {
		m.staleDiscards.WithLabelValues("page").Inc()
	}
}

// ItemLookup counts one deep-link lookup by outcome ("open", "stale",
// "not_found", "error").
func (m *Metrics) ItemLookup(outcome string) {
	if m == nil {
		return
	}
	m.itemLookups.WithLabelValues(outcome).Inc()
	if outcome == "stale" {
		m.staleDiscards.WithLabelValues("item").Inc()
	}
}

// ViewMarked counts a newly viewed item.
func (m *Metrics) ViewMarked() {
	if m == nil {
		return
	}
	m.viewsMarked.Inc()
}

// ForwardError counts a failed view event delivery.
func (m *Metrics) ForwardError() {
	if m == nil {
		return
	}
	m.forwardErrors.Inc()
}

// ObserveRequest records API latency for an operation.
func (m *Metrics) ObserveRequest(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.requestSecs.WithLabelValues(operation).Observe(seconds)
}

// Sample is one flattened counter value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers every counter and histogram count, sorted by name.
func (m *Metrics) Snapshot() ([]Sample, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: labels(metric)}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = metric.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Name += "_count"
				s.Value = float64(metric.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Value returns the current value of the sample matching name and labels, or 0.
func (m *Metrics) Value(name string, lbls map[string]string) float64 {
	samples, err := m.Snapshot()
	if err != nil {
		return 0
	}
	for _, s := range samples {
		if s.Name == name && sameLabels(s.Labels, lbls) {
			return s.Value
		}
	}
	return 0
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func sameLabels(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range b {
		if a[k] != v {
			return false
		}
	}
	return true
}
