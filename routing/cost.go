package routing

import "github.com/lightningnetwork/lnsim/graph"

// RiskFactor quantifies the opportunity cost, per unit of value per unit of
// time, that a node assigns to having funds locked in an HTLC. It tunes how
// strongly the path finder trades off a channel's delay against its fees.
type RiskFactor float64

// DefaultRiskFactor is the risk factor used unless a caller overrides it.
const DefaultRiskFactor RiskFactor = 1.5e-9

// forwarderCost is the cost a forwarding node assigns to relaying amt across
// an edge with the given attributes: the forwarder's own time-value-of-money
// risk on the amount it has locked, plus the fee it collects for the favor.
func forwarderCost(rf RiskFactor, attrs graph.EdgeAttrs, amt float64) float64 {
	return amt*float64(attrs.Delay)*float64(rf) +
		attrs.BaseFee + amt*attrs.FeeRate
}

// senderCost is the cost the paying node assigns to its own first hop. The
// sender collects no fee from itself, so only the locked-value risk applies.
func senderCost(rf RiskFactor, attrs graph.EdgeAttrs, amt float64) float64 {
	return amt * float64(attrs.Delay) * float64(rf)
}
