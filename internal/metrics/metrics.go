package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup sources recorded by altitude_lookups_total.
const (
	SourceFallback = "fallback"
	SourceCache    = "cache"
	SourceLive     = "live"
	SourceDefault  = "default"
)

// StatusOther labels provider statuses outside the documented Elevation API set.
const StatusOther = "OTHER"

var providerStatuses = map[string]struct{}{
	"OK":                 {},
	"DATA_NOT_AVAILABLE": {},
	"INVALID_REQUEST":    {},
	"OVER_DAILY_LIMIT":   {},
	"OVER_QUERY_LIMIT":   {},
	"REQUEST_DENIED":     {},
	"UNKNOWN_ERROR":      {},
}

// Metrics bundles the Prometheus counters of the altitude service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Lookups          *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
}

// New registers the service metrics against reg, defaulting to the global
// Prometheus registry when nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "altitude_lookups_total",
		Help: "Altitude lookups served, labeled by the source of the pre-jitter value.",
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "elevation_requests_total",
		Help: "Elevation provider requests, labeled by provider status.",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:         gatherer,
		Lookups:          lookups,
		ProviderRequests: requests,
	}, nil
}

// ObserveLookup counts one resolved altitude.
func (m *Metrics) ObserveLookup(source string) {
	if m == nil || m.Lookups == nil {
		return
	}
	m.Lookups.WithLabelValues(source).Inc()
}

// ObserveProviderStatus counts one elevation provider response.
// Unrecognized statuses are counted as StatusOther.
func (m *Metrics) ObserveProviderStatus(status string) {
	if m == nil || m.ProviderRequests == nil {
		return
	}
	if _, ok := providerStatuses[status]; !ok {
		status = StatusOther
	}
	m.ProviderRequests.WithLabelValues(status).Inc()
}

// Handler exposes the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}
