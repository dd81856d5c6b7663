package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/encodeous/nyroute/state"
)

// PathCost is the cost of reaching a destination along with the full path
// from the advertiser to it. The path is only used for loop detection.
type PathCost struct {
	Cost state.Cost
	Path []state.NodeId
}

func (p PathCost) Equal(o PathCost) bool {
	return p.Cost == o.Cost && slices.Equal(p.Path, o.Path)
}

func (p PathCost) String() string {
	return fmt.Sprintf("(cost: %d, path: %v)", p.Cost, p.Path)
}

type DistanceVector map[state.NodeId]PathCost

// Clone returns a deep copy of the vector.
func (dv DistanceVector) Clone() DistanceVector {
	out := make(DistanceVector, len(dv))
	for dest, pc := range dv {
		out[dest] = PathCost{Cost: pc.Cost, Path: slices.Clone(pc.Path)}
	}
	return out
}

func (dv DistanceVector) String() string {
	sb := strings.Builder{}
	for _, dest := range sortedKeys(dv) {
		pc := dv[dest]
		sb.WriteString(fmt.Sprintf("%3d @ %3d : %v\n", dest, pc.Cost, pc.Path))
	}
	return sb.String()
}

// VectorRecord is the last vector received from a neighbour.
type VectorRecord struct {
	Vector DistanceVector
	Seq    int64
}

// candidate is one way of reaching a destination.
type candidate struct {
	cost state.Cost
	nh   state.NodeId
}

func (c candidate) less(o candidate) bool {
	if c.cost != o.cost {
		return c.cost < o.cost
	}
	return c.nh < o.nh
}

// DistanceVectorRouter computes routes with Bellman-Ford over path vectors.
// Neighbours exchange their whole vector whenever it changes.
type DistanceVectorRouter struct {
	id           state.NodeId
	net          Network
	links        *LinkRegistry
	neighbourDVs map[state.NodeId]VectorRecord
	dv           DistanceVector
	routes       map[state.NodeId]state.NodeId
	seq          int64
}

func NewDistanceVectorRouter(id state.NodeId, net Network) *DistanceVectorRouter {
	return &DistanceVectorRouter{
		id:           id,
		net:          net,
		links:        NewLinkRegistry(),
		neighbourDVs: make(map[state.NodeId]VectorRecord),
		dv:           make(DistanceVector),
		routes:       make(map[state.NodeId]state.NodeId),
	}
}

func (r *DistanceVectorRouter) Id() state.NodeId {
	return r.id
}

func (r *DistanceVectorRouter) Neighbours() []state.NodeId {
	return r.links.Ids()
}

// Vector returns a copy of the current distance vector.
func (r *DistanceVectorRouter) Vector() DistanceVector {
	return r.dv.Clone()
}

// Routes returns a copy of the forwarding table.
func (r *DistanceVectorRouter) Routes() map[state.NodeId]state.NodeId {
	return maps.Clone(r.routes)
}

// Seq returns the sequence number of the last broadcast vector.
func (r *DistanceVectorRouter) Seq() int64 {
	return r.seq
}

func (r *DistanceVectorRouter) LinkHasBeenUpdated(neigh state.NodeId, latency state.Cost) {
	attached := false
	if latency == state.LinkRemoved {
		if !r.links.Remove(neigh) {
			r.net.Log(InconsistentState, "removal of a link that does not exist", "neigh", neigh)
			return
		}
		delete(r.neighbourDVs, neigh)
	} else {
		if r.links.Set(neigh, latency) {
			attached = true
			r.neighbourDVs[neigh] = VectorRecord{
				Vector: make(DistanceVector),
				Seq:    -1,
			}
		}
	}
	if !r.recalculate() && attached {
		// our routes did not move, but the new neighbour has never seen them
		r.net.SendToNeighbour(neigh, EncodeVector(VectorMessage{
			Sender: r.id,
			Vector: r.dv,
			Seq:    r.seq,
		}))
	}
}

func (r *DistanceVectorRouter) ProcessIncomingRoutingMessage(msg []byte) error {
	m, err := DecodeVector(msg)
	if err != nil {
		r.net.Log(MalformedMessage, "could not decode vector", "err", err)
		return err
	}

	old, ok := r.neighbourDVs[m.Sender]
	if !ok {
		// a late message over a link that has since been removed
		r.net.Log(StaleMessageDropped, "vector from non-neighbour", "sender", m.Sender, "seq", m.Seq)
		return nil
	}
	if old.Seq > m.Seq {
		r.net.Log(StaleMessageDropped, "out of order vector", "sender", m.Sender, "seq", m.Seq, "have", old.Seq)
		return nil
	}

	r.neighbourDVs[m.Sender] = VectorRecord{
		Vector: m.Vector,
		Seq:    m.Seq,
	}
	r.recalculate()
	return nil
}

func (r *DistanceVectorRouter) GetNextHop(dest state.NodeId) (state.NodeId, error) {
	nh, ok := r.routes[dest]
	if !ok {
		return state.Unreachable, nil
	}
	return nh, nil
}

// destinations returns every node we could possibly route to, sorted.
func (r *DistanceVectorRouter) destinations() []state.NodeId {
	all := make(map[state.NodeId]struct{})
	for v, rec := range r.neighbourDVs {
		all[v] = struct{}{}
		for y := range rec.Vector {
			all[y] = struct{}{}
		}
	}
	// destinations we used to reach must be re-examined so they can be retracted
	for y := range r.dv {
		all[y] = struct{}{}
	}
	delete(all, r.id)
	return sortedKeys(all)
}

// candidates lists every loop-free way of reaching y.
func (r *DistanceVectorRouter) candidates(y state.NodeId) []candidate {
	options := make([]candidate, 0)
	if cost, ok := r.links.Cost(y); ok {
		options = append(options, candidate{cost: cost, nh: y})
	}
	for _, v := range r.links.Ids() {
		adv, ok := r.neighbourDVs[v].Vector[y]
		if !ok {
			continue
		}
		// never use a path that already runs through us
		if slices.Contains(adv.Path, r.id) {
			continue
		}
		cost, _ := r.links.Cost(v)
		options = append(options, candidate{cost: state.AddCost(cost, adv.Cost), nh: v})
	}
	return options
}

// recalculate rebuilds the vector from the neighbour vectors and broadcasts
// it if anything changed.
func (r *DistanceVectorRouter) recalculate() bool {
	changed := false

	for _, y := range r.destinations() {
		options := r.candidates(y)

		if len(options) == 0 {
			if _, ok := r.dv[y]; ok {
				changed = true
				delete(r.dv, y)
				delete(r.routes, y)
				r.net.Log(RouteRetracted, "destination unreachable", "dest", y)
			}
			continue
		}

		best := options[0]
		for _, opt := range options[1:] {
			if opt.less(best) {
				best = opt
			}
		}

		var path []state.NodeId
		if best.nh == y {
			path = []state.NodeId{y}
		} else {
			adv := r.neighbourDVs[best.nh].Vector[y]
			path = make([]state.NodeId, 0, len(adv.Path)+1)
			path = append(path, best.nh)
			path = append(path, adv.Path...)
		}

		next := PathCost{Cost: best.cost, Path: path}
		if old, ok := r.dv[y]; !ok || !old.Equal(next) || r.routes[y] != best.nh {
			changed = true
			r.dv[y] = next
			r.routes[y] = best.nh
			r.net.Log(RouteChanged, "selected route", "dest", y, "nh", best.nh, "route", next)
		}
	}

	if changed {
		r.seq++
		r.net.Log(VectorBroadcast, "broadcasting vector", "seq", r.seq, "size", len(r.dv))
		r.net.SendToNeighbours(EncodeVector(VectorMessage{
			Sender: r.id,
			Vector: r.dv,
			Seq:    r.seq,
		}))
	}
	return changed
}

func (r *DistanceVectorRouter) String() string {
	return fmt.Sprintf("NODE %d (seq %d):\n%s", r.id, r.seq, r.dv)
}

var _ Router = (*DistanceVectorRouter)(nil)
