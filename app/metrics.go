package app

import (
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "ballot"

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultInvalid = "invalid"
)

// metrics holds Prometheus metrics for monitoring the ballot.
type metrics struct {
	// txs counts finalized transactions by type and result
	txs *prometheus.CounterVec

	// phase is the ordinal of the committed workflow phase
	phase prometheus.Gauge

	// votes counts committed votes
	votes prometheus.Counter

	// proposals counts committed proposals
	proposals prometheus.Counter

	// finalize is how long FinalizeBlock took
	finalize prometheus.Histogram
}

// newMetrics initialize Prometheus metrics and registers them on reg when
// reg is not nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		txs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "app",
				Name:      "txs_total",
				Help:      "Number of finalized ballot transactions",
			},
			[]string{"type", "result"},
		),
		phase: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "app",
				Name:      "phase",
				Help:      "Ordinal of the committed workflow phase",
			},
		),
		votes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "app",
				Name:      "votes_total",
				Help:      "Number of committed votes",
			},
		),
		proposals: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "app",
				Name:      "proposals_total",
				Help:      "Number of committed proposals",
			},
		),
		finalize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "app",
				Name:      "finalize_block_duration_seconds",
				Help:      "Indicates how much time it took to finalize a block",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.txs, m.phase, m.votes, m.proposals, m.finalize)
	}
	return m
}

func (m *metrics) observeTx(tp tx.BallotTxType, result string) {
	m.txs.WithLabelValues(tp.String(), result).Inc()
	if result != resultOK {
		return
	}
	switch tp {
	case tx.BallotTxTypeVote:
		m.votes.Inc()
	case tx.BallotTxTypeProposal:
		m.proposals.Inc()
	}
}

func (m *metrics) setPhase(w types.WorkflowStatus) {
	m.phase.Set(float64(w))
}
