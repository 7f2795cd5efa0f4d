package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PinsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "biomap_pins_submitted_total",
		Help: "Total number of pins accepted into the moderation queue",
	})
	ValidationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biomap_validation_failures_total",
		Help: "Submission field violations by field",
	}, []string{"field"})
	ModerationTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biomap_moderation_transitions_total",
		Help: "Successful moderation transitions by target status",
	}, []string{"status"})
	ModerationConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "biomap_moderation_conflicts_total",
		Help: "Transitions refused because the pin was no longer pending",
	})
	ForbiddenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biomap_forbidden_total",
		Help: "Requests refused by the authorization policy by action",
	}, []string{"action"})
	CircleCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biomap_circle_cache_total",
		Help: "Geo-circle cache lookups by tier and result",
	}, []string{"tier", "result"})
	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biomap_store_errors_total",
		Help: "Pin store failures by operation",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(PinsSubmittedTotal)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(ModerationTransitionsTotal)
	prometheus.MustRegister(ModerationConflictsTotal)
	prometheus.MustRegister(ForbiddenTotal)
	prometheus.MustRegister(CircleCacheTotal)
	prometheus.MustRegister(StoreErrorsTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
