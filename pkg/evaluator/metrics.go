package evaluator

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sandrolain/goxq/pkg/types"
)

// Metrics counts evaluator activity. A nil *Metrics records nothing.
type Metrics struct {
	functionCalls *prometheus.CounterVec // invocations by function name
	errors        *prometheus.CounterVec // evaluation errors by canonical code
	compilations  *prometheus.CounterVec // compilations by outcome
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		functionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goxq_function_calls_total",
				Help: "Number of function invocations.",
			},
			[]string{"function"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goxq_errors_total",
				Help: "Number of evaluation errors by error code.",
			},
			[]string{"code"},
		),
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goxq_compilations_total",
				Help: "Number of expression compilations.",
			},
			// status: ok or error
			[]string{"status"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goxq_cache_lookups_total",
				Help: "Number of compile cache lookups by result.",
			},
			[]string{"result"},
		),
	}
	for _, c := range []prometheus.Collector{m.functionCalls, m.errors, m.compilations, m.cacheLookups} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "evaluator: register metrics")
		}
	}
	return m, nil
}

func (m *Metrics) functionCalled(name string) {
	if m == nil {
		return
	}
	m.functionCalls.WithLabelValues(name).Inc()
}

func (m *Metrics) errorRaised(err error) {
	if m == nil || err == nil {
		return
	}
	code := string(types.CodeOf(err))
	if code == "" {
		code = "other"
	}
	m.errors.WithLabelValues(code).Inc()
}

func (m *Metrics) compiled(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.compilations.WithLabelValues(status).Inc()
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
