package state

import "math"

// NodeId uniquely identifies a node in the network.
type NodeId int

// Cost is the latency of a link or the length of a path.
type Cost int64

const (
	// Unreachable is returned as the next hop when no route exists.
	Unreachable NodeId = -1
	// LinkRemoved is the latency carried by an update that deletes a link.
	LinkRemoved Cost = -1
	// Infinity is the cost of a neighbour we have no link to.
	Infinity Cost = math.MaxInt64
)

// Link is an undirected edge between two nodes.
type Link struct {
	A    NodeId `yaml:"a"`
	B    NodeId `yaml:"b"`
	Cost Cost   `yaml:"cost"`
}

// Key returns the endpoints of the link with the lower id first.
func (l Link) Key() Pair[NodeId, NodeId] {
	if l.A > l.B {
		return Pair[NodeId, NodeId]{l.B, l.A}
	}
	return Pair[NodeId, NodeId]{l.A, l.B}
}

// AddCost adds two costs, saturating at Infinity.
func AddCost(a, b Cost) Cost {
	if a == Infinity || b == Infinity || a > Infinity-b {
		return Infinity
	}
	return a + b
}
