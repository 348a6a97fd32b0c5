package routing

import (
	"container/heap"

	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnsim/graph"
)

// ErrNoPath is returned when the reverse Dijkstra search drains its frontier
// without ever reaching the sender.
var ErrNoPath = errors.New("routing: no path found")

// Hop is immutable per-step output of the path finder: how much delay
// remains downstream of this node, and how much it must forward to the next
// hop toward the recipient.
type Hop struct {
	Node     graph.NodeID
	Timelock float64
	Amount   float64
}

// Result is the outcome of a successful path search: an ordered sequence of
// hops from sender (index 0) to recipient (last index).
type Result struct {
	Hops []Hop
}

// pqItem is an entry in the path finder's priority queue. seq records
// insertion order so that equal-cost entries pop in first-discovered order,
// giving the path finder its documented, deterministic tie-break.
type pqItem struct {
	cost float64
	node graph.NodeID
	seq  int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// FindPath runs a reverse Dijkstra search over g, from the recipient back to
// the sender, and returns the cost-minimal path by which sender can forward
// amt to recipient. The search walks backward because the fee a hop charges
// depends on the amount it must forward, which is only known once the
// downstream (hop -> recipient) subpath cost has already been settled.
//
// The entire search runs under a single Graph.Do call: the graph does not
// change shape mid-search, and the search itself never blocks, so holding
// the exclusive lock for its duration costs nothing a shorter hold would
// save.
func FindPath(g *graph.Graph, rf RiskFactor, sender, recipient graph.NodeID,
	amt float64) (*Result, error) {

	var (
		result *Result
		err    error
	)

	g.Do(func(tx *graph.Tx) {
		result, err = findPath(tx, rf, sender, recipient, amt)
	})

	return result, err
}

func findPath(tx *graph.Tx, rf RiskFactor, sender, recipient graph.NodeID,
	amt float64) (*Result, error) {

	dist := map[graph.NodeID]float64{recipient: 0}
	timelock := map[graph.NodeID]float64{recipient: 0}
	amount := map[graph.NodeID]float64{recipient: amt}
	predecessor := map[graph.NodeID]graph.NodeID{}

	pq := &priorityQueue{{cost: 0, node: recipient, seq: 0}}
	heap.Init(pq)
	seq := 1

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)

		best, ok := dist[item.node]
		if ok && item.cost > best {
			continue
		}

		if item.node == sender {
			return reconstruct(sender, recipient, timelock, amount, predecessor), nil
		}

		fwd := amount[item.node]

		for _, v := range tx.IncomingNeighbors(item.node) {
			attrs, ok := tx.Edge(v, item.node)
			if !ok {
				continue
			}

			if attrs.Balance < fwd {
				continue
			}

			var hopCost float64
			if v == sender {
				hopCost = senderCost(rf, attrs, fwd)
			} else {
				hopCost = forwarderCost(rf, attrs, fwd)
			}
			candidate := item.cost + hopCost

			if best, ok := dist[v]; ok && candidate >= best {
				continue
			}

			dist[v] = candidate
			timelock[v] = timelock[item.node] + float64(attrs.Delay)
			amount[v] = fwd + attrs.BaseFee + fwd*attrs.FeeRate
			predecessor[v] = item.node

			heap.Push(pq, &pqItem{cost: candidate, node: v, seq: seq})
			seq++
		}
	}

	return nil, ErrNoPath
}

// reconstruct walks the predecessor chain from sender to recipient, dividing
// each accumulated timelock by 1000 to convert it from the millisatoshi-
// scaled units the cost accumulation uses into a block-scaled figure.
func reconstruct(sender, recipient graph.NodeID, timelock,
	amount map[graph.NodeID]float64,
	predecessor map[graph.NodeID]graph.NodeID) *Result {

	hops := []Hop{{
		Node:     sender,
		Timelock: timelock[sender] / 1000,
		Amount:   amount[sender],
	}}

	current := sender
	for current != recipient {
		next, ok := predecessor[current]
		if !ok {
			break
		}

		hops = append(hops, Hop{
			Node:     next,
			Timelock: timelock[next] / 1000,
			Amount:   amount[next],
		})
		current = next
	}

	return &Result{Hops: hops}
}
