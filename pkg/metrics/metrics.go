package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg                 *prometheus.Registry
	Turns               *prometheus.CounterVec
	Offers              *prometheus.CounterVec
	Accepted            prometheus.Counter
	Expired             prometheus.Counter
	GenerationFallbacks prometheus.Counter
	ReconcileDrift      prometheus.Counter
	Conflicts           prometheus.Counter
	GenerationLatency   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negotiation_turns_total",
		Help: "Shopper turns by classifier category.",
	}, []string{"category"})
	offers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negotiation_offers_total",
		Help: "Calculator decisions by kind.",
	}, []string{"kind"})
	accepted := prometheus.NewCounter(prometheus.CounterOpts{Name: "negotiation_accepted_total"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{Name: "negotiation_expired_total"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "negotiation_generation_fallbacks_total"})
	drift := prometheus.NewCounter(prometheus.CounterOpts{Name: "negotiation_reconcile_drift_total"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{Name: "negotiation_commit_conflicts_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "negotiation_generation_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(turns, offers, accepted, expired, fallbacks, drift, conflicts, latency)
	return &Registry{
		reg:                 r,
		Turns:               turns,
		Offers:              offers,
		Accepted:            accepted,
		Expired:             expired,
		GenerationFallbacks: fallbacks,
		ReconcileDrift:      drift,
		Conflicts:           conflicts,
		GenerationLatency:   latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
