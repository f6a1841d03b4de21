package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ruleResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partneredge_rule_resolutions_total",
		Help: "Markup rule resolutions by owner namespace and selected scope.",
	}, []string{"owner", "scope"})

	gateEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partneredge_gate_evaluations_total",
		Help: "Gate evaluations by resulting settlement status.",
	}, []string{"status"})

	gateLookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partneredge_gate_lookup_failures_total",
		Help: "Bounded gate lookups that timed out or failed and were treated as unsatisfied.",
	}, []string{"gate"})

	batchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partneredge_settlement_batch_transitions_total",
		Help: "Settlement batch state transitions.",
	}, []string{"from", "to"})

	creditedProfit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partneredge_credited_profit_total",
		Help: "Partner profit credited through settlement batches.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partneredge_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
)

func IncRuleResolution(owner, scope string) {
	ruleResolutions.WithLabelValues(owner, scope).Inc()
}

func IncGateEvaluation(status string) {
	gateEvaluations.WithLabelValues(status).Inc()
}

func IncGateLookupFailure(gate string) {
	gateLookupFailures.WithLabelValues(gate).Inc()
}

func IncBatchTransition(from, to string) {
	batchTransitions.WithLabelValues(from, to).Inc()
}

func AddCreditedProfit(amount float64) {
	if amount > 0 {
		creditedProfit.Add(amount)
	}
}

func IncHTTPRequest(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}
