// Package metrics holds the domain counters exported next to the HTTP metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Domain groups the application-level collectors.
type Domain struct {
	BookMutations   *prometheus.CounterVec
	CatalogRequests *prometheus.CounterVec
	LiveSubscribers prometheus.Gauge
}

// NewDomain creates and registers the domain collectors on reg.
func NewDomain(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		BookMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "books_mutations_total",
				Help: "Book writes by operation.",
			},
			[]string{"op"},
		),
		CatalogRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_requests_total",
				Help: "Upstream catalog calls by outcome.",
			},
			[]string{"outcome"},
		),
		LiveSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "live_subscribers",
				Help: "Open book list streams.",
			},
		),
	}

	for _, c := range []prometheus.Collector{d.BookMutations, d.CatalogRequests, d.LiveSubscribers} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Noop returns unregistered collectors for tests and tools that do not export metrics.
func Noop() *Domain {
	d, _ := NewDomain(prometheus.NewRegistry())
	return d
}
