package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "herald"

var (
	registry = prometheus.NewRegistry()

	filterDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_decisions_total",
		Help:      "Modifications evaluated by the filter chain, by decision",
	}, []string{"decision"})

	publishOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_outcomes_total",
		Help:      "Publisher invocations, by terminal state",
	}, []string{"state"})

	renderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "render_failures_total",
		Help:      "Message builder failures replaced by a diagnostic body",
	})

	configReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_reloads_total",
		Help:      "Project file reload attempts, by result",
	}, []string{"result"})
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() {
		registry.MustRegister(filterDecisions, publishOutcomes, renderFailures, configReloads)
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler exposes the collectors in the Prometheus text format
func Handler() http.Handler {
	register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Filter decisions
const (
	DecisionAccepted    = "accepted"
	DecisionExcluded    = "excluded"
	DecisionNotIncluded = "not_included"
)

func ObserveFilterDecision(decision string) {
	filterDecisions.WithLabelValues(decision).Inc()
}

func ObservePublish(state string) {
	publishOutcomes.WithLabelValues(state).Inc()
}

func ObserveRenderFailure() {
	renderFailures.Inc()
}

func ObserveConfigReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	configReloads.WithLabelValues(result).Inc()
}
