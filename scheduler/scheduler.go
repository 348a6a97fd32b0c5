// Package scheduler implements the simulator's payment issuance loop (C6):
// it repeatedly samples a random (sender, recipient) pair from the shared
// channel graph, finds a cost-minimal path, and detaches an independent
// payment.Manager to drive the resulting payment to completion, never
// awaiting the outcome itself.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnsim/graph"
	"github.com/lightningnetwork/lnsim/payment"
	"github.com/lightningnetwork/lnsim/routing"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// DefaultPaymentAmount is the fixed amount (in simulation units) every
// sampled payment requests, per spec.md §6.
const DefaultPaymentAmount = 1000.0

// DefaultMaxJitter is the upper bound of the uniform 0..max delay a
// Scheduler sleeps between issuing successive payments, per spec.md §6.
const DefaultMaxJitter = 10 * time.Millisecond

// DefaultMaxInFlight bounds the number of payment managers running
// concurrently. spec.md §9 leaves the scheduler's unbounded task spawning as
// an open question for implementers to resolve; this default resolves it
// with a generous but finite cap rather than leaving payments unbounded.
const DefaultMaxInFlight = 256

// Config bundles a Scheduler's dependencies and runtime knobs.
type Config struct {
	// Graph is the shared channel graph payments are routed and settled
	// over.
	Graph *graph.Graph

	// RiskFactor parameterizes the path finder's cost model.
	RiskFactor routing.RiskFactor

	// PaymentAmount is the fixed amount every issued payment requests.
	PaymentAmount float64

	// MaxJitter bounds the uniform delay between successive issuances.
	MaxJitter time.Duration

	// MaxInFlight caps the number of payment managers running at once.
	MaxInFlight int64

	// ManagerPollInterval is forwarded to every payment.Manager this
	// scheduler starts.
	ManagerPollInterval time.Duration

	// TimelockCompression is forwarded to every payment.Manager this
	// scheduler starts.
	TimelockCompression float64

	// Clock supplies "now" to every payment.Manager this scheduler
	// starts, so tests can control timelock-expiry timing.
	Clock clock.Clock

	// Registerer receives the scheduler's prometheus metrics. A nil
	// Registerer disables metrics registration (useful for tests that
	// construct more than one Scheduler in the same process).
	Registerer prometheus.Registerer

	// Rand is the scheduler's source of randomness, for sampling node
	// pairs and jitter. A nil Rand defaults to one seeded from the
	// current time.
	Rand *rand.Rand
}

// Scheduler drives the simulator's payment-issuance loop.
type Scheduler struct {
	cfg     Config
	rng     *rand.Rand
	sem     *semaphore.Weighted
	metrics *metrics

	nextID uint64
}

// New returns a Scheduler ready to Run. Zero values in cfg are filled with
// their documented defaults.
func New(cfg Config) *Scheduler {
	if cfg.PaymentAmount == 0 {
		cfg.PaymentAmount = DefaultPaymentAmount
	}
	if cfg.MaxJitter == 0 {
		cfg.MaxJitter = DefaultMaxJitter
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scheduler{
		cfg:     cfg,
		rng:     cfg.Rand,
		sem:     semaphore.NewWeighted(cfg.MaxInFlight),
		metrics: newMetrics(cfg.Registerer),
	}
}

// Run issues payments until ctx is done. It never returns an error of its
// own; it only stops, leaving any in-flight payment managers to be torn
// down by ctx's cancellation, per spec.md §5's abandon-on-timeout
// cancellation model.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.issueOne(ctx)

		jitter := time.Duration(s.rng.Int63n(int64(s.cfg.MaxJitter) + 1))
		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter):
		}
	}
}

// issueOne samples a single (sender, recipient) pair, finds a path, and — on
// success — detaches a payment manager to drive it. The payment id counter
// advances even when the sampled pair is degenerate (sender == recipient):
// this mirrors the original simulator's id-increment placement ahead of the
// equality check, resolving spec.md §9's open question on the point.
func (s *Scheduler) issueOne(ctx context.Context) {
	id := s.nextID
	s.nextID++

	var sender, recipient graph.NodeID
	s.cfg.Graph.Do(func(tx *graph.Tx) {
		sender, recipient = tx.RandomPair(s.rng)
	})

	if sender == recipient {
		return
	}

	route, err := routing.FindPath(
		s.cfg.Graph, s.cfg.RiskFactor, sender, recipient, s.cfg.PaymentAmount,
	)
	if err != nil {
		log.Debugf("payment %d: no path %v->%v: %v", id, sender, recipient, err)
		s.metrics.noPath.Inc()
		return
	}

	p := payment.FromRoute(id, route)

	log.Infof("payment %d: routed %v->%v over %d hops, amount %v",
		id, sender, recipient, len(p.Path)-1, s.cfg.PaymentAmount)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}

	s.metrics.issued.Inc()
	s.metrics.inFlight.Inc()

	go s.run(ctx, p)
}

// run drives a single payment's manager to completion, updating metrics on
// the way out. It is the goroutine body detached by issueOne; it never
// propagates the payment's result anywhere but the log, per spec.md §7's
// fire-and-forget scheduler contract.
func (s *Scheduler) run(ctx context.Context, p *payment.Payment) {
	defer s.sem.Release(1)
	defer s.metrics.inFlight.Dec()

	mgr := payment.New(payment.Config{
		Graph:               s.cfg.Graph,
		Clock:               s.cfg.Clock,
		PollInterval:        s.cfg.ManagerPollInterval,
		TimelockCompression: s.cfg.TimelockCompression,
	}, p)

	if err := mgr.Run(ctx); err != nil {
		log.Infof("payment %d: failed: %v", p.ID, err)
		s.metrics.failed.Inc()
		return
	}

	log.Infof("payment %d: succeeded", p.ID)
	s.metrics.succeeded.Inc()
}
