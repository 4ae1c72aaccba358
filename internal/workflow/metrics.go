package workflow

import "github.com/prometheus/client_golang/prometheus"

var (
	stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudlab",
			Subsystem: "workflow",
			Name:      "steps_total",
			Help:      "Total number of workflow steps by resource kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	cleanupActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudlab",
			Subsystem: "workflow",
			Name:      "cleanup_actions_total",
			Help:      "Total number of cleanup actions by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(stepsTotal, cleanupActionsTotal)
}

func recordStep(kind Kind, outcome Outcome) {
	stepsTotal.WithLabelValues(string(kind), string(outcome)).Inc()
}

func recordCleanup(result string) {
	cleanupActionsTotal.WithLabelValues(result).Inc()
}
