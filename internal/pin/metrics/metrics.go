package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the PIN allocation module.
type Metrics struct {
	PINsServed           prometheus.Counter
	Rollovers            prometheus.Counter
	CapacityRejections   prometheus.Counter
	StoreErrors          *prometheus.CounterVec
	AllowedPool          prometheus.Gauge
	RequestDuration      prometheus.Histogram
	BootstrapDuration    prometheus.Histogram
	ClassifiedNotAllowed prometheus.Counter
}

// New creates the module metrics on the given registerer.
// Passing nil registers on the default prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		PINsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pinpool_pins_served_total",
			Help: "Total number of PIN codes handed out to requesters",
		}),
		Rollovers: factory.NewCounter(prometheus.CounterOpts{
			Name: "pinpool_allocation_rollovers_total",
			Help: "Total number of allocation resets (automatic and manual)",
		}),
		CapacityRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "pinpool_capacity_rejections_total",
			Help: "Requests rejected because the allowed pool cannot satisfy them",
		}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pinpool_store_errors_total",
			Help: "Failed store round-trips by operation",
		}, []string{"operation"}),
		AllowedPool: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pinpool_allowed_pool_size",
			Help: "Number of codes that can ever be served (universe minus NotAllowed)",
		}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinpool_request_pins_duration_seconds",
			Help:    "Duration of RequestPINs including rollover rounds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BootstrapDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinpool_bootstrap_duration_seconds",
			Help:    "Duration of session bootstrap (universe insert and classification)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ClassifiedNotAllowed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pinpool_codes_classified_not_allowed_total",
			Help: "Codes marked NotAllowed by the classification pass",
		}),
	}
}

func (m *Metrics) AddServed(n int) {
	m.PINsServed.Add(float64(n))
}

func (m *Metrics) IncrementRollovers() {
	m.Rollovers.Inc()
}

func (m *Metrics) IncrementCapacityRejections() {
	m.CapacityRejections.Inc()
}

func (m *Metrics) IncrementStoreErrors(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) SetAllowedPool(n int) {
	m.AllowedPool.Set(float64(n))
}

func (m *Metrics) AddClassified(n int) {
	m.ClassifiedNotAllowed.Add(float64(n))
}

// ObserveRequest records the duration of a RequestPINs call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRequest(start time.Time) {
	m.RequestDuration.Observe(time.Since(start).Seconds())
}

// ObserveBootstrap records the duration of a Bootstrap call.
func (m *Metrics) ObserveBootstrap(start time.Time) {
	m.BootstrapDuration.Observe(time.Since(start).Seconds())
}
