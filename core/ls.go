package core

import (
	"fmt"
	"maps"

	"github.com/encodeous/nyroute/state"
)

// LinkStateRouter floods individual link updates so that every node holds a
// replica of the whole topology, then runs Dijkstra over it on demand.
// Routes are cached until the database changes.
type LinkStateRouter struct {
	id     state.NodeId
	net    Network
	links  *LinkRegistry
	db     *LinkStateDB
	routes map[state.NodeId]state.NodeId
	stale  bool
}

func NewLinkStateRouter(id state.NodeId, net Network) *LinkStateRouter {
	return &LinkStateRouter{
		id:     id,
		net:    net,
		links:  NewLinkRegistry(),
		db:     NewLinkStateDB(),
		routes: make(map[state.NodeId]state.NodeId),
	}
}

func (r *LinkStateRouter) Id() state.NodeId {
	return r.id
}

func (r *LinkStateRouter) Neighbours() []state.NodeId {
	return r.links.Ids()
}

// Stale is true if the next route query will rebuild the route table.
func (r *LinkStateRouter) Stale() bool {
	return r.stale
}

func (r *LinkStateRouter) send(neigh state.NodeId, m LinkMessage) {
	m.Sender = r.id
	r.net.SendToNeighbour(neigh, EncodeLink(m))
}

// flood sends m to every neighbour except the one it came from.
func (r *LinkStateRouter) flood(m LinkMessage, except state.NodeId) {
	for _, neigh := range r.links.Ids() {
		if neigh == except {
			continue
		}
		r.send(neigh, m)
	}
	r.net.Log(LinkFlooded, "flooded link", "link", m, "except", except)
}

// syncDatabase gives a newly attached neighbour our full view of the topology.
func (r *LinkStateRouter) syncDatabase(neigh state.NodeId) {
	entries := r.db.Entries()
	for _, e := range entries {
		if e.V1.V1 > e.V1.V2 {
			continue // both directions are stored, one update is enough
		}
		r.send(neigh, LinkMessage{
			Src:     e.V1.V1,
			Dest:    e.V1.V2,
			Latency: e.V2.Latency,
			Seq:     e.V2.Seq,
		})
	}
	tombstones := r.db.Tombstones()
	for _, t := range tombstones {
		if t.V1.V1 > t.V1.V2 {
			continue
		}
		r.send(neigh, LinkMessage{
			Src:     t.V1.V1,
			Dest:    t.V1.V2,
			Latency: state.LinkRemoved,
			Seq:     t.V2,
		})
	}
	r.net.Log(DatabaseSynced, "sent database to new neighbour", "neigh", neigh, "links", len(entries), "tombstones", len(tombstones))
}

func (r *LinkStateRouter) LinkHasBeenUpdated(neigh state.NodeId, latency state.Cost) {
	prev, known := r.db.LatestSeq(r.id, neigh)
	seq := int64(0)
	if known {
		seq = prev + 1
	}

	if latency == state.LinkRemoved {
		if !r.links.Remove(neigh) {
			r.net.Log(InconsistentState, "removal of a link that does not exist", "neigh", neigh)
			return
		}
		r.db.Remove(r.id, neigh)
		r.db.SetTombstone(r.id, neigh, seq)
		r.stale = true
		r.flood(LinkMessage{
			Src:     r.id,
			Dest:    neigh,
			Latency: state.LinkRemoved,
			Seq:     seq,
		}, neigh)
		return
	}

	r.db.ClearTombstone(r.id, neigh)
	r.db.Install(r.id, neigh, LinkEntry{Latency: latency, Seq: seq})
	r.stale = true
	if r.links.Set(neigh, latency) {
		// the new neighbour learns about this link through the sync
		r.syncDatabase(neigh)
	}
	r.flood(LinkMessage{
		Src:     r.id,
		Dest:    neigh,
		Latency: latency,
		Seq:     seq,
	}, neigh)
}

func (r *LinkStateRouter) ProcessIncomingRoutingMessage(msg []byte) error {
	m, err := DecodeLink(msg)
	if err != nil {
		r.net.Log(MalformedMessage, "could not decode link update", "err", err)
		return err
	}
	if m.Src == m.Dest {
		r.net.Log(InconsistentState, "link update for a self loop", "link", m)
		return nil
	}

	cur, known := r.db.Get(m.Src, m.Dest)
	if known {
		if cur.Seq > m.Seq {
			// the sender is behind, tell it what we know and stop here
			r.send(m.Sender, LinkMessage{
				Src:     m.Src,
				Dest:    m.Dest,
				Latency: cur.Latency,
				Seq:     cur.Seq,
			})
			r.net.Log(CorrectionSent, "corrected outdated link", "link", m, "seq", cur.Seq)
			return nil
		}
		if cur.Seq == m.Seq {
			r.net.Log(DuplicateDropped, "duplicate link update", "link", m)
			return nil
		}
	}

	if m.Latency == state.LinkRemoved {
		if !known {
			// nothing to remove, but remember the removal in case the add is still in flight
			if t, ok := r.db.Tombstone(m.Src, m.Dest); !ok || t < m.Seq {
				r.db.SetTombstone(m.Src, m.Dest, m.Seq)
			}
			r.net.Log(StaleMessageDropped, "removal of unknown link", "link", m)
			return nil
		}
		r.db.Remove(m.Src, m.Dest)
		r.db.SetTombstone(m.Src, m.Dest, m.Seq)
		r.stale = true
		r.flood(m, m.Sender)
		return nil
	}

	if t, ok := r.db.Tombstone(m.Src, m.Dest); ok && t >= m.Seq {
		r.send(m.Sender, LinkMessage{
			Src:     m.Src,
			Dest:    m.Dest,
			Latency: state.LinkRemoved,
			Seq:     t,
		})
		r.net.Log(TombstoneRejected, "add of a removed link", "link", m, "removed", t)
		return nil
	}

	r.db.ClearTombstone(m.Src, m.Dest)
	r.db.Install(m.Src, m.Dest, LinkEntry{Latency: m.Latency, Seq: m.Seq})
	r.stale = true
	r.flood(m, m.Sender)
	return nil
}

func (r *LinkStateRouter) rebuild() error {
	pred, _, err := ShortestPaths(r.db.Graph(), r.id)
	if err != nil {
		return err
	}
	hops, err := NextHops(pred, r.id)
	if err != nil {
		return err
	}
	r.routes = hops
	r.stale = false
	r.net.Log(RoutesRebuilt, "rebuilt route table", "routes", len(hops))
	return nil
}

// Routes returns a copy of the forwarding table, rebuilding it if needed.
func (r *LinkStateRouter) Routes() (map[state.NodeId]state.NodeId, error) {
	if r.stale {
		if err := r.rebuild(); err != nil {
			return nil, err
		}
	}
	return maps.Clone(r.routes), nil
}

func (r *LinkStateRouter) GetNextHop(dest state.NodeId) (state.NodeId, error) {
	if r.stale {
		if err := r.rebuild(); err != nil {
			r.net.Log(InconsistentState, "route computation failed", "err", err)
			return state.Unreachable, fmt.Errorf("node %d: %w", r.id, err)
		}
	}
	nh, ok := r.routes[dest]
	if !ok {
		return state.Unreachable, nil
	}
	return nh, nil
}

func (r *LinkStateRouter) String() string {
	return fmt.Sprintf("NODE %d:\n%s", r.id, r.db)
}

var _ Router = (*LinkStateRouter)(nil)
