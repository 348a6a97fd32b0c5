package routing

import (
	"testing"

	"github.com/lightningnetwork/lnsim/graph"
	"github.com/stretchr/testify/require"
)

func chainGraph(bcBalance float64) *graph.Graph {
	g := graph.New()

	add := func(u, v graph.NodeID, balance float64) {
		g.AddEdge(u, v, graph.EdgeAttrs{
			BaseFee: 1,
			FeeRate: 0.001,
			Delay:   10,
			Balance: balance,
		})
	}

	add(0, 1, 100000)
	add(1, 0, 100000)
	add(1, 2, bcBalance)
	add(2, 1, 100000)

	return g
}

// TestFindPathChain exercises scenario S1: a three-node chain with ample
// balance on every edge produces the scenario's path and timelocks, and the
// amounts the §4.3 relaxation formula gives for this input.
func TestFindPathChain(t *testing.T) {
	g := chainGraph(100000)

	result, err := FindPath(g, DefaultRiskFactor, 0, 2, 1000)
	require.NoError(t, err)
	require.Len(t, result.Hops, 3)

	require.Equal(t, graph.NodeID(0), result.Hops[0].Node)
	require.Equal(t, graph.NodeID(1), result.Hops[1].Node)
	require.Equal(t, graph.NodeID(2), result.Hops[2].Node)

	// amounts[C] = amt requested. amounts[B] = amounts[C] plus the B->C
	// edge's basefee and feerate-proportional fee. amounts[A] likewise
	// layers the A->B edge's fee on top of amounts[B]. The scenario's
	// worked example lists different amount figures; these are the values
	// the §4.3 formula produces for this input.
	require.Equal(t, 1000.0, result.Hops[2].Amount)
	require.InDelta(t, 1002.0, result.Hops[1].Amount, 1e-9)
	require.InDelta(t, 1004.002, result.Hops[0].Amount, 1e-9)

	require.InDelta(t, 0.02, result.Hops[0].Timelock, 1e-9)
	require.InDelta(t, 0.01, result.Hops[1].Timelock, 1e-9)
	require.Equal(t, 0.0, result.Hops[2].Timelock)
}

// TestFindPathNoRouteOnInsufficientBalance exercises scenario S2: an
// undersized edge balance along the only route makes the amount infeasible
// to forward, so no path exists.
func TestFindPathNoRouteOnInsufficientBalance(t *testing.T) {
	g := chainGraph(500)

	_, err := FindPath(g, DefaultRiskFactor, 0, 2, 1000)
	require.ErrorIs(t, err, ErrNoPath)
}

func TestMonotoneAmountsAndDelays(t *testing.T) {
	g := graph.New()
	attrs := func(delay uint32) graph.EdgeAttrs {
		return graph.EdgeAttrs{BaseFee: 2, FeeRate: 0.002, Delay: delay, Balance: 1_000_000}
	}
	g.AddEdge(0, 1, attrs(40))
	g.AddEdge(1, 0, attrs(40))
	g.AddEdge(1, 2, attrs(20))
	g.AddEdge(2, 1, attrs(20))
	g.AddEdge(2, 3, attrs(10))
	g.AddEdge(3, 2, attrs(10))

	result, err := FindPath(g, DefaultRiskFactor, 0, 3, 5000)
	require.NoError(t, err)
	require.Len(t, result.Hops, 4)

	for i := 0; i < len(result.Hops)-1; i++ {
		require.GreaterOrEqual(t, result.Hops[i].Amount, result.Hops[i+1].Amount)
		require.GreaterOrEqual(t, result.Hops[i].Timelock, result.Hops[i+1].Timelock)
	}
	require.GreaterOrEqual(t, result.Hops[len(result.Hops)-1].Amount, 5000.0)
	require.Equal(t, 0.0, result.Hops[len(result.Hops)-1].Timelock)
}

func TestCostModelSenderPaysNoFee(t *testing.T) {
	attrs := graph.EdgeAttrs{BaseFee: 5, FeeRate: 0.01, Delay: 100}

	fc := forwarderCost(DefaultRiskFactor, attrs, 1000)
	sc := senderCost(DefaultRiskFactor, attrs, 1000)

	require.Greater(t, fc, sc)
	require.InDelta(t, 1000*100*float64(DefaultRiskFactor), sc, 1e-12)
}
