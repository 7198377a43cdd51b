package geoip

import (
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// Locator is anything that can resolve an address to a GeoRecord.
type Locator interface {
	Lookup(ip net.IP) (*models.GeoRecord, error)
}

const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

var _ Locator = (*PrometheusWrapper)(nil)

// PrometheusWrapper counts lookups by outcome and observes their duration.
type PrometheusWrapper struct {
	wrapped         Locator
	lookupCount     *prometheus.CounterVec
	durationSeconds prometheus.Histogram
}

// NewPrometheusWrapper decorates locator with lookup metrics.
func NewPrometheusWrapper(locator Locator) *PrometheusWrapper {
	return &PrometheusWrapper{
		wrapped: locator,
		lookupCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "senderinfo",
			Subsystem: "geoip",
			Name:      "lookups_total",
			Help:      "Number of GeoIP lookups by outcome",
		}, []string{"outcome"}),
		durationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "senderinfo",
			Subsystem: "geoip",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of GeoIP lookups in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}

// Collectors returns the metrics to register.
func (p *PrometheusWrapper) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.lookupCount, p.durationSeconds}
}

func (p *PrometheusWrapper) Lookup(ip net.IP) (*models.GeoRecord, error) {
	start := time.Now()
	record, err := p.wrapped.Lookup(ip)
	p.durationSeconds.Observe(time.Since(start).Seconds())

	switch {
	case err == nil && record != nil:
		p.lookupCount.WithLabelValues(outcomeFound).Inc()
	case err == nil, errors.Is(err, ErrNotFound):
		p.lookupCount.WithLabelValues(outcomeNotFound).Inc()
	default:
		p.lookupCount.WithLabelValues(outcomeError).Inc()
	}
	return record, err
}
