package sim

import (
	"github.com/encodeous/nyroute/state"
)

// Distances holds the cost of the cheapest path between every pair of nodes.
type Distances map[state.NodeId]map[state.NodeId]state.Cost

// Get returns the distance from a to b, or state.Infinity if b cannot be
// reached.
func (d Distances) Get(a, b state.NodeId) state.Cost {
	if row, ok := d[a]; ok {
		if c, ok := row[b]; ok {
			return c
		}
	}
	return state.Infinity
}

// AllPairs computes reference distances with Floyd-Warshall. It is
// independent of both routing engines. Links to nodes not listed are ignored.
func AllPairs(nodes []state.NodeId, links []state.Link) Distances {
	d := make(Distances, len(nodes))
	for _, a := range nodes {
		d[a] = map[state.NodeId]state.Cost{a: 0}
	}
	for _, l := range links {
		if l.Cost == state.LinkRemoved || d[l.A] == nil || d[l.B] == nil {
			continue
		}
		if cur := d.Get(l.A, l.B); l.Cost < cur {
			d[l.A][l.B] = l.Cost
			d[l.B][l.A] = l.Cost
		}
	}
	for _, k := range nodes {
		for _, i := range nodes {
			ik := d.Get(i, k)
			if ik == state.Infinity {
				continue
			}
			for _, j := range nodes {
				if through := state.AddCost(ik, d.Get(k, j)); through < d.Get(i, j) {
					d[i][j] = through
				}
			}
		}
	}
	return d
}
