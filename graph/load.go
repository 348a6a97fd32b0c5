package graph

import (
	"encoding/json"
	"os"

	"github.com/go-errors/errors"
)

// snapshot mirrors the JSON document format described for the simulator's
// input graph: a "nodes" array and a "links" array, both keyed by the
// 0-based position of each node in "nodes".
type snapshot struct {
	Nodes []snapshotNode `json:"nodes"`
	Links []snapshotLink `json:"links"`
}

type snapshotNode struct {
	ID int64 `json:"id"`
}

type snapshotLink struct {
	Source  int     `json:"source"`
	Target  int     `json:"target"`
	BaseFee float64 `json:"basefee"`
	FeeRate float64 `json:"feerate"`
	Delay   uint32  `json:"delay"`
	Balance float64 `json:"balance"`
	Age     int64   `json:"age"`
}

// LoadFile reads a channel graph snapshot from the JSON document at path,
// per the format documented in the simulator's external interfaces: a
// "nodes" array of {"id"} objects and a "links" array of directed per-edge
// attribute objects, with "source"/"target" referring to 0-based positions
// in "nodes".
func LoadFile(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading graph snapshot: %v", err)
	}

	return Load(raw)
}

// Load parses a channel graph snapshot from raw JSON bytes.
func Load(raw []byte) (*Graph, error) {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, errors.Errorf("parsing graph snapshot: %v", err)
	}

	g := New()
	for i := range snap.Nodes {
		g.AddNode(NodeID(i))
	}

	for _, link := range snap.Links {
		source := NodeID(link.Source)
		target := NodeID(link.Target)

		if int(source) >= len(snap.Nodes) || int(target) >= len(snap.Nodes) {
			return nil, errors.Errorf(
				"link references out-of-range node: %d -> %d",
				link.Source, link.Target,
			)
		}

		g.AddEdge(source, target, EdgeAttrs{
			BaseFee: link.BaseFee,
			FeeRate: link.FeeRate,
			Balance: link.Balance,
			Delay:   link.Delay,
			Age:     link.Age,
		})
	}

	log.Infof("Loaded graph with %d nodes and %d directed edges",
		len(snap.Nodes), len(snap.Links))

	return g, nil
}
