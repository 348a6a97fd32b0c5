// Package graph implements the in-memory channel graph that the simulator
// routes payments over: a directed multigraph of payment channels, each
// direction carrying its own independent balance, fee, and delay attributes.
//
// The graph is loaded once at startup and afterwards is mutated only through
// Graph.Do, which hands the caller a Tx for the duration of a single,
// non-blocking unit of work. This mirrors the transaction-callback shape
// channeldb/walletdb use elsewhere in the lnd stack, and gives the whole
// package a single, exclusive point of entry for every read or write -
// exactly the discipline the concurrent payment managers need to share one
// mutable graph safely.
package graph

import (
	"math/rand"
	"sync"

	"github.com/go-errors/errors"
)

// NodeID is the opaque identifier for a node in the graph. It is the node's
// 0-based position in the snapshot's "nodes" array, not the JSON "id" field
// carried alongside it (that value is informational only).
type NodeID uint32

// EdgeAttrs holds the per-direction attributes of a channel. Two channel
// endpoints u and v are represented by two independent EdgeAttrs values, one
// for u->v and one for v->u.
type EdgeAttrs struct {
	// BaseFee is the flat fee, in simulation units, charged for
	// forwarding across this edge.
	BaseFee float64

	// FeeRate is the proportional fee charged for forwarding across this
	// edge, expressed as a fraction of the forwarded amount.
	FeeRate float64

	// Balance is the amount available on this edge's source side to send
	// toward the destination.
	Balance float64

	// Delay is the CLTV delta, in blocks, this hop contributes to a
	// payment's timelock.
	Delay uint32

	// Age is informational only; the path finder and payment manager
	// never read it.
	Age int64
}

// ErrUnknownEdge is returned when an operation references a directed edge
// that does not exist in the graph.
var ErrUnknownEdge = errors.New("graph: unknown edge")

// Graph is a directed multigraph of payment channels, safe for concurrent
// use through Do. At most one directed edge is stored per ordered node pair;
// the source snapshot format never needs more than that to express a
// channel's two directions.
type Graph struct {
	mu sync.Mutex

	nodes []NodeID

	// out maps a source node to its outgoing edges, keyed by destination.
	out map[NodeID]map[NodeID]*EdgeAttrs

	// in maps a destination node to the set of nodes holding an edge
	// into it. It is the index the reverse-direction path finder walks.
	in map[NodeID][]NodeID
}

// New returns an empty Graph ready to be populated by AddNode/AddEdge.
func New() *Graph {
	return &Graph{
		out: make(map[NodeID]map[NodeID]*EdgeAttrs),
		in:  make(map[NodeID][]NodeID),
	}
}

// AddNode registers a node with the graph. It is not safe for concurrent use
// with Do and is only meant to be called while the graph is being built at
// startup.
func (g *Graph) AddNode(n NodeID) {
	if _, ok := g.out[n]; ok {
		return
	}

	g.nodes = append(g.nodes, n)
	g.out[n] = make(map[NodeID]*EdgeAttrs)
}

// AddEdge registers a directed edge u->v with the given attributes. Like
// AddNode, this is a build-time operation only.
func (g *Graph) AddEdge(u, v NodeID, attrs EdgeAttrs) {
	if _, ok := g.out[u]; !ok {
		g.AddNode(u)
	}
	if _, ok := g.out[v]; !ok {
		g.AddNode(v)
	}

	a := attrs
	g.out[u][v] = &a
	g.in[v] = append(g.in[v], u)
}

// Tx is the read/write handle a caller receives for the duration of a single
// Graph.Do call. It must not be retained past that call.
type Tx struct {
	g *Graph
}

// NodeCount returns the number of nodes in the graph.
func (tx *Tx) NodeCount() int {
	return len(tx.g.nodes)
}

// RandomPair samples two, not necessarily distinct, node IDs uniformly from
// the graph using the provided source of randomness.
func (tx *Tx) RandomPair(rng *rand.Rand) (NodeID, NodeID) {
	nodes := tx.g.nodes
	a := nodes[rng.Intn(len(nodes))]
	b := nodes[rng.Intn(len(nodes))]
	return a, b
}

// IncomingNeighbors returns every node u for which an edge u->v exists. The
// order is the order edges were added in, which gives the path finder its
// documented first-discovered tie-break.
func (tx *Tx) IncomingNeighbors(v NodeID) []NodeID {
	return tx.g.in[v]
}

// Edge returns a copy of the attributes of edge u->v, and whether it exists.
func (tx *Tx) Edge(u, v NodeID) (EdgeAttrs, bool) {
	dst, ok := tx.g.out[u]
	if !ok {
		return EdgeAttrs{}, false
	}

	attrs, ok := dst[v]
	if !ok {
		return EdgeAttrs{}, false
	}

	return *attrs, true
}

// TryDebit attempts to decrement the balance of edge u->v by amt. It fails
// without mutating the graph if the edge is unknown or its balance is below
// amt; insufficient balance is the caller's responsibility to treat as a
// non-error, retryable condition.
func (tx *Tx) TryDebit(u, v NodeID, amt float64) bool {
	dst, ok := tx.g.out[u]
	if !ok {
		return false
	}

	attrs, ok := dst[v]
	if !ok || attrs.Balance < amt {
		return false
	}

	attrs.Balance -= amt
	return true
}

// Credit increments the balance of edge u->v by amt, returning false if the
// edge does not exist. Unlike TryDebit this never fails on account of the
// current balance; crediting always succeeds once the edge is found.
func (tx *Tx) Credit(u, v NodeID, amt float64) bool {
	dst, ok := tx.g.out[u]
	if !ok {
		return false
	}

	attrs, ok := dst[v]
	if !ok {
		return false
	}

	attrs.Balance += amt
	return true
}

// Do runs fn with exclusive access to the graph. fn must not block or sleep:
// the lock is held for fn's entire duration and must never span a
// suspension point other than the graph operation itself.
func (g *Graph) Do(fn func(tx *Tx)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fn(&Tx{g: g})
}
