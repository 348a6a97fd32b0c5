// Package payment implements the per-payment state record (Payment) and the
// concurrent state machine (Manager) that drives one payment from its
// sender's initial lock to a terminal success or failure, coordinating
// lock/unlock operations against a shared graph.Graph.
package payment

import (
	"time"

	"github.com/lightningnetwork/lnsim/fn"
	"github.com/lightningnetwork/lnsim/graph"
	"github.com/lightningnetwork/lnsim/routing"
)

// Payment is the per-payment record tracking lock, secret, unlock, and
// expiry status at every hop of its path. All slice fields are aligned to
// Path: index 0 is the sender, the last index is the recipient.
//
// A Payment is created once, by NewPayment, and from then on is owned
// exclusively by the Manager driving it until it reaches a terminal state.
type Payment struct {
	// ID is a monotonically increasing identifier assigned by whatever
	// issues payments.
	ID uint64

	// Path is the ordered node sequence the payment travels, sender
	// first, recipient last.
	Path []graph.NodeID

	// Timelocks holds the cumulative delay from each hop to the
	// recipient, in block-scaled units. Timelocks[len-1] is always 0.
	Timelocks []float64

	// Amounts holds what each hop must forward to the next, strictly
	// non-increasing from sender to recipient.
	Amounts []float64

	// LockStatus reports whether a hop has locked funds on its outgoing
	// edge. The trailing (recipient) entry is never set.
	LockStatus []bool

	// LockTime records when a hop locked, if it has.
	LockTime []fn.Option[time.Time]

	// SecretKeyStatus reports whether a hop knows the payment secret.
	// It only ever transitions false -> true, propagating from the
	// recipient back toward the sender.
	SecretKeyStatus []bool

	// SecretKeyReceivedTime records when a hop learned the secret, if it
	// has.
	SecretKeyReceivedTime []fn.Option[time.Time]

	// UnlockStatus reports whether a hop has completed its unlock sweep.
	UnlockStatus []bool

	// TimelockExpired reports whether a hop's lock reverted because its
	// timelock elapsed before the secret arrived.
	TimelockExpired []bool
}

// NewPayment zero-initializes a Payment record from the path finder's
// output. FromRoute builds on it; every other mutation happens through a
// Manager driving the payment.
func NewPayment(id uint64, path []graph.NodeID, timelocks,
	amounts []float64) *Payment {

	n := len(path)

	return &Payment{
		ID:                    id,
		Path:                  path,
		Timelocks:             timelocks,
		Amounts:               amounts,
		LockStatus:            make([]bool, n),
		LockTime:              make([]fn.Option[time.Time], n),
		SecretKeyStatus:       make([]bool, n),
		SecretKeyReceivedTime: make([]fn.Option[time.Time], n),
		UnlockStatus:          make([]bool, n),
		TimelockExpired:       make([]bool, n),
	}
}

// FromRoute builds a Payment directly from a routing.Result, the shape the
// scheduler actually has on hand after a successful path search.
func FromRoute(id uint64, route *routing.Result) *Payment {
	n := len(route.Hops)

	path := make([]graph.NodeID, n)
	timelocks := make([]float64, n)
	amounts := make([]float64, n)

	for i, hop := range route.Hops {
		path[i] = hop.Node
		timelocks[i] = hop.Timelock
		amounts[i] = hop.Amount
	}

	return NewPayment(id, path, timelocks, amounts)
}
