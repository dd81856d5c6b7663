package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/encodeous/nyroute/core"
	"github.com/encodeous/nyroute/perf"
	"github.com/encodeous/nyroute/state"
)

var (
	ErrNoConvergence = errors.New("network did not converge")
	ErrUnknownNode   = errors.New("unknown node")
)

// Algorithm selects the routing engine every node runs.
type Algorithm string

const (
	DistanceVector Algorithm = "dv"
	LinkState      Algorithm = "ls"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case DistanceVector, LinkState:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown algorithm %q, expected %q or %q", s, DistanceVector, LinkState)
}

func (a Algorithm) newRouter(id state.NodeId, net core.Network) core.Router {
	if a == LinkState {
		return core.NewLinkStateRouter(id, net)
	}
	return core.NewDistanceVectorRouter(id, net)
}

// virtualLink is a link in the simulated physical topology. The epoch is
// bumped every time the link goes down, so messages sent before the outage
// are lost even if the link comes back.
type virtualLink struct {
	Cost  state.Cost
	Up    bool
	Epoch uint64
}

// Stats counts what happened during a simulation.
type Stats struct {
	Events      int64
	LinkChanges int64
	Sent        int64
	Delivered   int64
	Dropped     int64
}

// Simulator runs one router per node and moves routing messages between them
// over virtual links with configurable latency and jitter.
type Simulator struct {
	Scenario  *state.Scenario
	Algorithm Algorithm
	Log       *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc
	nodes  map[state.NodeId]*SimNode
	queue  *EventQueue

	// links and rng are only touched by the simulator goroutine, or by a node
	// goroutine while the simulator is blocked on it
	links map[state.Pair[state.NodeId, state.NodeId]]*virtualLink
	rng   *rand.Rand

	now         atomic.Int64
	events      atomic.Int64
	linkChanges atomic.Int64
	sent        atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
	stopping    atomic.Bool
	wg          sync.WaitGroup
}

// NewSimulator starts a node for every node in the scenario and schedules
// the initial topology at time 0 followed by the scenario events. Defaults
// are filled into sc.
func NewSimulator(sc *state.Scenario, algo Algorithm, log *slog.Logger) (*Simulator, error) {
	state.ExpandScenario(sc)
	if err := state.ScenarioValidator(sc); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Simulator{
		Scenario:  sc,
		Algorithm: algo,
		Log:       log,
		ctx:       ctx,
		cancel:    cancel,
		nodes:     make(map[state.NodeId]*SimNode),
		queue:     NewEventQueue(),
		links:     make(map[state.Pair[state.NodeId, state.NodeId]]*virtualLink),
		rng:       rand.New(rand.NewPCG(sc.Seed, sc.Seed^0x6e79726f757465)),
	}

	for _, id := range sc.NodeIds() {
		node := newSimNode(ctx, id, log.With("node", id))
		node.router = algo.newRouter(id, &nodeNetwork{sim: s, node: node})
		s.nodes[id] = node
	}
	for _, node := range s.nodes {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			node.MainLoop()
		}()
	}

	for _, l := range sc.Links {
		s.queue.Push(LinkEvent{At: 0, Link: l})
	}
	for _, e := range sc.Events {
		s.queue.Push(LinkEvent{At: e.Time, Link: e.Link})
	}
	log.Debug("simulator started", "algorithm", algo, "nodes", len(s.nodes), "events", s.queue.Len())
	return s, nil
}

// Now returns the current simulated time.
func (s *Simulator) Now() int64 {
	return s.now.Load()
}

func (s *Simulator) Stats() Stats {
	return Stats{
		Events:      s.events.Load(),
		LinkChanges: s.linkChanges.Load(),
		Sent:        s.sent.Load(),
		Delivered:   s.delivered.Load(),
		Dropped:     s.dropped.Load(),
	}
}

// NodeIds returns every simulated node, sorted.
func (s *Simulator) NodeIds() []state.NodeId {
	return slices.Sorted(maps.Keys(s.nodes))
}

// ScheduleLink queues a link change at the given time, which must not be in
// the past.
func (s *Simulator) ScheduleLink(at int64, l state.Link) error {
	if at < s.Now() {
		return fmt.Errorf("cannot schedule link change at %d, the time is %d", at, s.Now())
	}
	if err := state.LinkValidator(l); err != nil {
		return err
	}
	for _, id := range []state.NodeId{l.A, l.B} {
		if _, ok := s.nodes[id]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
	}
	s.queue.Push(LinkEvent{At: at, Link: l})
	return nil
}

// Run processes events until none are left or ctx is cancelled. It fails
// with ErrNoConvergence if the scenario's event budget runs out first.
func (s *Simulator) Run(ctx context.Context) error {
	for s.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ctx.Err(); err != nil {
			return context.Cause(s.ctx)
		}
		if s.events.Load() >= int64(s.Scenario.MaxEvents) {
			return fmt.Errorf("%w: %d events processed, %d still pending", ErrNoConvergence, s.Scenario.MaxEvents, s.queue.Len())
		}
		evt := s.queue.Pop()
		s.now.Store(evt.Time())
		s.events.Add(1)

		var err error
		switch e := evt.(type) {
		case LinkEvent:
			err = s.applyLink(e.Link)
		case DeliveryEvent:
			err = s.deliver(e)
		}
		if err != nil {
			return err
		}
	}
	s.Log.Debug("network is quiet", "time", s.Now(), "stats", s.Stats())
	return nil
}

// applyLink updates the physical link and tells both endpoints before any
// message can move.
func (s *Simulator) applyLink(l state.Link) error {
	key := l.Key()
	vl, ok := s.links[key]
	if !ok {
		vl = &virtualLink{}
		s.links[key] = vl
	}
	if l.Cost == state.LinkRemoved {
		if !vl.Up {
			s.Log.Warn("removal of a link that is already down", "a", l.A, "b", l.B, "time", s.Now())
			return nil
		}
		vl.Up = false
		vl.Epoch++
	} else {
		vl.Up = true
		vl.Cost = l.Cost
	}
	s.linkChanges.Add(1)
	perf.LinkChanges.Add(1)
	s.Log.Debug("link changed", "a", l.A, "b", l.B, "cost", l.Cost, "time", s.Now())

	for _, end := range []state.Pair[state.NodeId, state.NodeId]{{V1: l.A, V2: l.B}, {V1: l.B, V2: l.A}} {
		_, err := s.nodes[end.V1].DispatchWait(func(r core.Router) (any, error) {
			r.LinkHasBeenUpdated(end.V2, l.Cost)
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("node %d: %w", end.V1, err)
		}
	}
	return nil
}

func (s *Simulator) deliver(e DeliveryEvent) error {
	vl, ok := s.links[state.Link{A: e.From, B: e.To}.Key()]
	if !ok || !vl.Up || vl.Epoch != e.Epoch {
		s.dropped.Add(1)
		perf.MessagesDropped.Add(1)
		s.Log.Debug("message lost with its link", "from", e.From, "to", e.To, "time", s.Now())
		return nil
	}
	_, err := s.nodes[e.To].DispatchWait(func(r core.Router) (any, error) {
		return nil, r.ProcessIncomingRoutingMessage(e.Msg)
	})
	if err != nil {
		if errors.Is(err, core.ErrMalformedMessage) {
			// the node has already logged it
			return nil
		}
		return fmt.Errorf("node %d: %w", e.To, err)
	}
	s.delivered.Add(1)
	perf.MessagesDelivered.Add(1)
	return nil
}

// send puts a message on the wire. It is called from the sending node's
// goroutine.
func (s *Simulator) send(from, to state.NodeId, msg []byte) {
	s.sent.Add(1)
	perf.MessagesSent.Add(1)
	vl, ok := s.links[state.Link{A: from, B: to}.Key()]
	if !ok || !vl.Up {
		s.dropped.Add(1)
		perf.MessagesDropped.Add(1)
		s.Log.Warn("send over a link that does not exist", "from", from, "to", to)
		return
	}
	delay := s.Scenario.Latency
	if s.Scenario.Jitter > 0 {
		delay += s.rng.Int64N(s.Scenario.Jitter + 1)
	}
	s.queue.Push(DeliveryEvent{
		At:    s.Now() + delay,
		From:  from,
		To:    to,
		Msg:   slices.Clone(msg),
		Epoch: vl.Epoch,
	})
	perf.BytesSent.Add(float64(len(msg)))
	perf.MessageSize.Add(float64(len(msg)))
}

// LinkCost returns the cost of the physical link between a and b, if it is up.
func (s *Simulator) LinkCost(a, b state.NodeId) (state.Cost, bool) {
	vl, ok := s.links[state.Link{A: a, B: b}.Key()]
	if !ok || !vl.Up {
		return state.Infinity, false
	}
	return vl.Cost, true
}

// Links returns the links that are currently up, ordered by endpoints.
func (s *Simulator) Links() []state.Link {
	keys := make([]state.Pair[state.NodeId, state.NodeId], 0, len(s.links))
	for k, vl := range s.links {
		if vl.Up {
			keys = append(keys, k)
		}
	}
	state.SortPairs(keys)
	out := make([]state.Link, 0, len(keys))
	for _, k := range keys {
		out = append(out, state.Link{A: k.V1, B: k.V2, Cost: s.links[k].Cost})
	}
	return out
}

// NextHop asks src's router where it would forward traffic for dest.
func (s *Simulator) NextHop(src, dest state.NodeId) (state.NodeId, error) {
	node, ok := s.nodes[src]
	if !ok {
		return state.Unreachable, fmt.Errorf("%w: %d", ErrUnknownNode, src)
	}
	res, err := node.DispatchWait(func(r core.Router) (any, error) {
		return r.GetNextHop(dest)
	})
	if err != nil {
		return state.Unreachable, err
	}
	return res.(state.NodeId), nil
}

// Route is a single forwarding table entry.
type Route struct {
	Dest    state.NodeId `yaml:"dest"`
	NextHop state.NodeId `yaml:"next_hop"`
}

// RoutingTable returns src's next hop for every other node.
func (s *Simulator) RoutingTable(src state.NodeId) ([]Route, error) {
	routes := make([]Route, 0, len(s.nodes))
	for _, dest := range s.NodeIds() {
		if dest == src {
			continue
		}
		nh, err := s.NextHop(src, dest)
		if err != nil {
			return nil, err
		}
		routes = append(routes, Route{Dest: dest, NextHop: nh})
	}
	return routes, nil
}

// Stop shuts every node down. It is safe to call more than once.
func (s *Simulator) Stop() {
	if s.stopping.Swap(true) {
		return
	}
	s.cancel(context.Canceled)
	for _, node := range s.nodes {
		node.Stop()
	}
	s.wg.Wait()
	s.Log.Debug("simulator stopped", "stats", s.Stats())
}
