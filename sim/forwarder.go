package sim

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/encodeous/nyroute/state"
	"github.com/gaissmai/bart"
)

var (
	ErrRoutingLoop = errors.New("routing loop")
	ErrUnreachable = errors.New("destination unreachable")
)

// NextHopper answers next hop queries, usually a running Simulator.
type NextHopper interface {
	NextHop(src, dest state.NodeId) (state.NodeId, error)
}

// Forwarder maps destination addresses to the node that originates them and
// follows next hops through the network.
type Forwarder struct {
	table bart.Table[state.NodeId]
	nodes int
}

// NewForwarder builds the prefix table for every node in the scenario.
func NewForwarder(sc *state.Scenario) (*Forwarder, error) {
	f := &Forwarder{}
	for _, id := range sc.NodeIds() {
		prefix, err := sc.GetNode(id).GetPrefix()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		prefix = prefix.Masked()
		if other, ok := f.table.Get(prefix); ok {
			return nil, fmt.Errorf("node %d: prefix %s is already originated by node %d", id, prefix, other)
		}
		f.table.Insert(prefix, id)
		f.nodes++
	}
	return f, nil
}

// Lookup returns the node originating the longest prefix that covers addr.
func (f *Forwarder) Lookup(addr netip.Addr) (state.NodeId, bool) {
	return f.table.Lookup(addr)
}

// Trace forwards a probe for addr starting at src and returns every node it
// visits, src and the destination included.
func (f *Forwarder) Trace(h NextHopper, src state.NodeId, addr netip.Addr) ([]state.NodeId, error) {
	dest, ok := f.Lookup(addr)
	if !ok {
		return []state.NodeId{src}, fmt.Errorf("%w: no node originates %s", ErrUnreachable, addr)
	}
	return Walk(h, src, dest, f.nodes)
}

// Walk follows next hops from src to dest. It gives up after visiting
// maxHops nodes, which only happens if the next hops change mid walk.
func Walk(h NextHopper, src, dest state.NodeId, maxHops int) ([]state.NodeId, error) {
	path := []state.NodeId{src}
	seen := map[state.NodeId]struct{}{src: {}}
	cur := src
	for cur != dest {
		if len(path) > maxHops {
			return path, fmt.Errorf("%w: exceeded %d hops", ErrRoutingLoop, maxHops)
		}
		nh, err := h.NextHop(cur, dest)
		if err != nil {
			return path, err
		}
		if nh == state.Unreachable {
			return path, fmt.Errorf("%w: node %d has no route to %d", ErrUnreachable, cur, dest)
		}
		path = append(path, nh)
		if _, ok := seen[nh]; ok {
			return path, fmt.Errorf("%w: %v", ErrRoutingLoop, path)
		}
		seen[nh] = struct{}{}
		cur = nh
	}
	return path, nil
}
