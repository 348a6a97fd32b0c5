package scheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/lightningnetwork/lnsim/graph"
	"github.com/stretchr/testify/require"
)

// ringGraph builds a directed ring of n nodes, each channel carrying ample
// balance in both directions, so that every sampled pair has a route.
func ringGraph(n int) *graph.Graph {
	g := graph.New()

	for i := 0; i < n; i++ {
		u := graph.NodeID(i)
		v := graph.NodeID((i + 1) % n)

		attrs := graph.EdgeAttrs{BaseFee: 1, FeeRate: 0.001, Delay: 10, Balance: 1_000_000}
		g.AddEdge(u, v, attrs)
		g.AddEdge(v, u, attrs)
	}

	return g
}

// TestSchedulerIssuesManyPayments exercises scenario S5: over a short
// simulation window the scheduler keeps sampling and issuing payments,
// consuming more than 20 payment ids before the deadline stops Run.
func TestSchedulerIssuesManyPayments(t *testing.T) {
	g := ringGraph(10)

	sched := New(Config{
		Graph:               g,
		PaymentAmount:       1000,
		MaxJitter:           time.Millisecond,
		ManagerPollInterval: time.Microsecond,
		TimelockCompression: 100,
		MaxInFlight:         64,
		Rand:                rand.New(rand.NewSource(1)),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	sched.Run(ctx)

	require.Greater(t, sched.nextID, uint64(20))
}

// TestSchedulerSkipsDegenerateSamePairButStillConsumesID covers scenario S6:
// a sampled sender == recipient pair never starts a payment manager, but the
// payment id counter still advances past it.
func TestSchedulerSkipsDegenerateSamePairButStillConsumesID(t *testing.T) {
	g := graph.New()
	g.AddNode(0)

	sched := New(Config{
		Graph: g,
		Rand:  rand.New(rand.NewSource(1)),
	})

	sched.issueOne(context.Background())
	sched.issueOne(context.Background())

	require.Equal(t, uint64(2), sched.nextID)
}
