package payment

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnsim/graph"
	"github.com/lightningnetwork/lnsim/routing"
	"github.com/stretchr/testify/require"
)

func chainGraph() *graph.Graph {
	g := graph.New()

	add := func(u, v graph.NodeID) {
		g.AddEdge(u, v, graph.EdgeAttrs{
			BaseFee: 1,
			FeeRate: 0.001,
			Delay:   10,
			Balance: 100000,
		})
	}

	add(0, 1)
	add(1, 0)
	add(1, 2)
	add(2, 1)

	return g
}

// TestManagerSucceedsOnChain exercises scenario S1's manager half: once a
// path is found, driving it to completion unlocks every hop and moves the
// expected balance from B to C.
func TestManagerSucceedsOnChain(t *testing.T) {
	g := chainGraph()

	route, err := routing.FindPath(g, routing.DefaultRiskFactor, 0, 2, 1000)
	require.NoError(t, err)

	p := FromRoute(1, route)

	mgr := New(Config{
		Graph:        g,
		PollInterval: time.Microsecond,
	}, p)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = mgr.Run(ctx)
	require.NoError(t, err)

	for i := range p.Path {
		require.True(t, p.SecretKeyStatus[i])
	}
	for i := 0; i < len(p.Path)-1; i++ {
		require.True(t, p.UnlockStatus[i])
		require.False(t, p.TimelockExpired[i])
	}

	var bcBalance, cbBalance float64
	g.Do(func(tx *graph.Tx) {
		attrs, ok := tx.Edge(1, 2)
		require.True(t, ok)
		bcBalance = attrs.Balance

		attrs, ok = tx.Edge(2, 1)
		require.True(t, ok)
		cbBalance = attrs.Balance
	})

	// B forwards amounts[1] (its hop's fees-inclusive amount) to C: that
	// much leaves the B->C edge and lands credited on C->B.
	fwd := p.Amounts[1]
	require.InDelta(t, 100000-fwd, bcBalance, 1e-9)
	require.InDelta(t, 100000+fwd, cbBalance, 1e-9)
}

// TestManagerTimelockExpiry exercises scenario S3: a secret that never
// arrives at a hop within its timelock window reverts that hop's lock and
// fails the payment.
func TestManagerTimelockExpiry(t *testing.T) {
	g := graph.New()
	g.AddEdge(0, 1, graph.EdgeAttrs{BaseFee: 1, FeeRate: 0, Delay: 1, Balance: 100000})
	g.AddEdge(1, 0, graph.EdgeAttrs{BaseFee: 1, FeeRate: 0, Delay: 1, Balance: 100000})

	// A two-node payment [0, 1] where 1 is the recipient: the penultimate
	// hop is the sender itself, whose lock (lockSender) never runs the
	// penultimate-lock short-circuit, so the secret never arrives and
	// hop 0's lock must expire.
	p := NewPayment(1, []graph.NodeID{0, 1}, []float64{10, 0}, []float64{1000, 1000})

	testClock := clock.NewTestClock(time.Now())

	mgr := New(Config{
		Graph:               g,
		Clock:               testClock,
		PollInterval:        time.Microsecond,
		TimelockCompression: 100,
	}, p)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- mgr.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return p.LockStatus[0]
	}, time.Second, time.Millisecond)

	var balanceAfterLock float64
	g.Do(func(tx *graph.Tx) {
		attrs, _ := tx.Edge(0, 1)
		balanceAfterLock = attrs.Balance
	})
	require.InDelta(t, 100000-1000, balanceAfterLock, 1e-9)

	testClock.SetTime(testClock.Now().Add(time.Second))

	err := <-done
	require.ErrorIs(t, err, ErrTimelockExpiry)
	require.True(t, p.TimelockExpired[0])

	var balanceAfterExpiry float64
	g.Do(func(tx *graph.Tx) {
		attrs, _ := tx.Edge(0, 1)
		balanceAfterExpiry = attrs.Balance
	})
	require.InDelta(t, 100000, balanceAfterExpiry, 1e-9)
}

// TestManagerConservation exercises §8 property 1: on success, every
// non-recipient hop ends up either unlocked or timelock-expired, never both,
// and never neither.
func TestManagerConservation(t *testing.T) {
	g := chainGraph()

	route, err := routing.FindPath(g, routing.DefaultRiskFactor, 0, 2, 1000)
	require.NoError(t, err)

	p := FromRoute(2, route)
	mgr := New(Config{Graph: g, PollInterval: time.Microsecond}, p)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, mgr.Run(ctx))

	for i := 0; i < len(p.Path)-1; i++ {
		unlocked := p.UnlockStatus[i]
		expired := p.TimelockExpired[i]
		require.NotEqual(t, unlocked, expired,
			"hop %d must be exactly one of unlocked or expired", i)
	}
}
