// Package metrics exposes Prometheus collectors for the matchmaking core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QueueJoins      prometheus.Counter
	QueueLeaves     prometheus.Counter
	QueueTimeouts   prometheus.Counter
	MatchAttempts   prometheus.Counter
	MatchesTotal    prometheus.Counter
	ClaimConflicts  prometheus.Counter
	ProvisionErrors prometheus.Counter
	ActiveSearches  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueueJoins: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_queue_joins_total",
			Help: "Queue entries upserted.",
		}),
		QueueLeaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_queue_leaves_total",
			Help: "Explicit queue departures (cancel or teardown).",
		}),
		QueueTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_queue_timeouts_total",
			Help: "Searches that expired without a match.",
		}),
		MatchAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_match_attempts_total",
			Help: "Candidate queries run by the matcher.",
		}),
		MatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_matches_total",
			Help: "Successful pairings.",
		}),
		ClaimConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_claim_conflicts_total",
			Help: "Pair claims lost to a concurrent matcher.",
		}),
		ProvisionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripple_provision_errors_total",
			Help: "Conversation provisioning failures after a successful claim.",
		}),
		ActiveSearches: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ripple_active_searches",
			Help: "Users currently in the searching state on this instance.",
		}),
	}
}
