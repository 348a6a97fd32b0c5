package payment

import (
	"context"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/lightningnetwork/lnsim/fn"
	"github.com/lightningnetwork/lnsim/graph"
)

// ErrTimelockExpiry is returned by Run when every hop's lock has either
// never been acquired or has reverted on timelock expiry, with no hop left
// that could still propagate the secret.
var ErrTimelockExpiry = errors.New("payment: timelock expired before secret propagated")

// ErrNoPath is returned by Run when the payment's path is too short to
// describe a transfer: at least a sender and a recipient are required.
var ErrNoPath = errors.New("payment: path has fewer than two hops")

// ErrInvalidHopIndex is returned by Run when a payment's per-hop vectors
// (Timelocks, Amounts) aren't aligned to its Path, so no hop index can be
// trusted to address the right element of every vector.
var ErrInvalidHopIndex = errors.New("payment: timelocks/amounts not aligned to path")

// DefaultPollInterval is how often a Manager re-examines its payment's hops
// when no other event drives it forward.
const DefaultPollInterval = time.Millisecond

// DefaultTimelockCompression is the default simulation time-compression
// constant T: blocks of timelock per wall-clock second.
const DefaultTimelockCompression float64 = 100

// Config bundles a Manager's dependencies, all overridable for testing.
type Config struct {
	// Graph is the shared channel graph the manager locks and unlocks
	// funds against.
	Graph *graph.Graph

	// Clock supplies the manager's notion of "now", so tests can control
	// timelock-expiry timing deterministically.
	Clock clock.Clock

	// PollInterval is how often the manager's state machine re-evaluates
	// its payment's hops.
	PollInterval time.Duration

	// TimelockCompression is T: the number of timelock units that elapse
	// per wall-clock second.
	TimelockCompression float64
}

// Manager drives a single Payment's state machine from its initial,
// all-clear state to a terminal success or failure.
type Manager struct {
	cfg Config
	p   *Payment
}

// New returns a Manager that will drive p to completion using cfg. Zero
// values in cfg are filled with their documented defaults.
func New(cfg Config, p *Payment) *Manager {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TimelockCompression == 0 {
		cfg.TimelockCompression = DefaultTimelockCompression
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}

	return &Manager{cfg: cfg, p: p}
}

// Run drives the payment's state machine to completion, polling at
// cfg.PollInterval until every hop holds the secret and every unexpired lock
// has been unlocked (success) or no hop has an active lock left (failure), or
// ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.p.Path) < 2 {
		return ErrNoPath
	}
	if len(m.p.Timelocks) != len(m.p.Path) || len(m.p.Amounts) != len(m.p.Path) {
		return ErrInvalidHopIndex
	}

	m.lockSender()

	poll := ticker.New(m.cfg.PollInterval)
	poll.Resume()
	defer poll.Stop()

	for {
		if done, err := m.evaluate(); done {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.Ticks():
		}
	}
}

// evaluate runs one sweep of every hop's transition rules and reports
// whether the payment has reached a terminal state.
func (m *Manager) evaluate() (bool, error) {
	p := m.p

	// Success also waits until no hop holds a live lock still awaiting
	// its unlock: the secret reaches hop i-1 in the same sweep that
	// unlocks hop i, so the sender's own unlock lands one sweep later.
	settled := allSecretsKnown(p)
	for i := range p.Path {
		if p.LockStatus[i] && !p.UnlockStatus[i] && !p.TimelockExpired[i] {
			settled = false
		}
	}

	if settled {
		log.Infof("payment %d succeeded", p.ID)
		return true, nil
	}

	if noActiveLockRemains(p) {
		log.Infof("payment %d failed: timelock expiry", p.ID)
		log.Debugf("payment %d terminal state: %v", p.ID, spew.Sdump(p))
		return true, ErrTimelockExpiry
	}

	// The sweep never reaches the recipient's trailing index: it has no
	// outgoing edge to lock, and its secret status is only ever set by
	// the penultimate hop's short-circuit in lock, not by checkSecret.
	last := len(p.Path) - 1
	for i := 0; i < last; i++ {
		switch {
		case i > 0 && p.LockStatus[i-1] && !p.LockStatus[i]:
			m.lock(i)

		case p.LockStatus[i] && !p.UnlockStatus[i] && !p.TimelockExpired[i]:
			m.checkSecret(i)
		}
	}

	return false, nil
}

// allSecretsKnown implements the secret half of the global success
// predicate: every hop on the path knows the secret.
func allSecretsKnown(p *Payment) bool {
	for _, known := range p.SecretKeyStatus {
		if !known {
			return false
		}
	}
	return true
}

// noActiveLockRemains implements the global failure predicate: no hop still
// holds a lock that could yet propagate the secret.
func noActiveLockRemains(p *Payment) bool {
	for i := range p.Path {
		if p.LockStatus[i] && !p.TimelockExpired[i] {
			return false
		}
	}
	return true
}

// lockSender performs the sender's initial lock on path[0]->path[1]. The
// path finder already verified the sender's balance covers amounts[0], so
// this debit is assumed to succeed.
func (m *Manager) lockSender() {
	p := m.p
	u, v := p.Path[0], p.Path[1]

	m.cfg.Graph.Do(func(tx *graph.Tx) {
		tx.TryDebit(u, v, p.Amounts[0])
	})

	now := m.cfg.Clock.Now()
	p.LockStatus[0] = true
	p.LockTime[0] = fn.Some(now)

	log.Infof("payment %d hop 0 (sender) locked %v->%v for %v",
		p.ID, u, v, p.Amounts[0])
}

// lock attempts to lock hop i (i >= 1) by debiting path[i]->path[i+1]. A
// failed attempt due to insufficient balance is not an error: the hop is
// retried on the next sweep.
func (m *Manager) lock(i int) {
	p := m.p
	last := len(p.Path) - 1

	u, v := p.Path[i], p.Path[i+1]
	amt := p.Amounts[i]

	var locked bool
	m.cfg.Graph.Do(func(tx *graph.Tx) {
		locked = tx.TryDebit(u, v, amt)
	})

	if !locked {
		log.Debugf("payment %d hop %d: insufficient balance locking %v->%v",
			p.ID, i, u, v)
		return
	}

	now := m.cfg.Clock.Now()
	p.LockStatus[i] = true
	p.LockTime[i] = fn.Some(now)

	log.Infof("payment %d hop %d locked %v->%v for %v", p.ID, i, u, v, amt)

	// The penultimate hop locking funds toward the recipient models the
	// recipient revealing the preimage upon seeing the incoming HTLC.
	if i == last-1 {
		p.SecretKeyStatus[last] = true
		p.SecretKeyReceivedTime[last] = fn.Some(now)
		p.SecretKeyStatus[last-1] = true
		p.SecretKeyReceivedTime[last-1] = fn.Some(now)

		log.Infof("payment %d: recipient revealed secret", p.ID)
	}
}

// checkSecret runs the secret-check transition for hop i: propagate the
// secret backward if known, otherwise revert the lock once its timelock has
// elapsed.
func (m *Manager) checkSecret(i int) {
	p := m.p

	if p.SecretKeyStatus[i] {
		if i > 0 {
			now := m.cfg.Clock.Now()
			p.SecretKeyStatus[i-1] = true
			p.SecretKeyReceivedTime[i-1] = fn.Some(now)
		}

		// Unlocking moves value across the channel: it leaves u's side
		// and lands on v's side, credited on the reverse edge.
		u, v := p.Path[i], p.Path[i+1]
		m.cfg.Graph.Do(func(tx *graph.Tx) {
			tx.Credit(v, u, p.Amounts[i])
		})

		p.UnlockStatus[i] = true

		log.Infof("payment %d hop %d unlocked", p.ID, i)
		return
	}

	if p.LockTime[i].IsNone() {
		return
	}
	lockTime := p.LockTime[i].UnwrapOr(time.Time{})

	deadline := p.Timelocks[i] / m.cfg.TimelockCompression
	if m.cfg.Clock.Now().Sub(lockTime) <= time.Duration(deadline*float64(time.Second)) {
		return
	}

	u, v := p.Path[i], p.Path[i+1]
	m.cfg.Graph.Do(func(tx *graph.Tx) {
		tx.Credit(u, v, p.Amounts[i])
	})

	p.TimelockExpired[i] = true

	log.Warnf("payment %d hop %d timelock expired, reverted %v->%v",
		p.ID, i, u, v)
}
