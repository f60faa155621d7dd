package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase is a step of an anchor write:
//
//	Estimating -> Submitted -> Pending -> Confirmed | TimedOut | Rejected
//
// Estimation failures and node rejections go straight to Rejected. A broadcast
// that fails in transport is TimedOut: the transaction may still be mined.
type Phase string

const (
	PhaseEstimating Phase = "estimating"
	PhaseSubmitted  Phase = "submitted"
	PhasePending    Phase = "pending"
	PhaseConfirmed  Phase = "confirmed"
	PhaseTimedOut   Phase = "timed_out"
	PhaseRejected   Phase = "rejected"
)

var anchorPhases = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keystone_ledger_anchor_phase_total",
	Help: "Anchor writes reaching each phase",
}, []string{"phase"})

func enterPhase(p Phase) {
	anchorPhases.WithLabelValues(string(p)).Inc()
}

// TxStatus is the reconciled state of a submitted anchor transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
	TxUnknown   TxStatus = "unknown"
)

// AnchorStatus answers "did my anchor land" after a settlement timeout.
type AnchorStatus struct {
	TxHash      string
	Status      TxStatus
	BlockNumber uint64
}
