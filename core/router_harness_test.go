package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/nyroute/state"
	"github.com/google/go-cmp/cmp"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// decodeAny turns raw routing bytes into a LinkMessage or VectorMessage so
// recorded actions can be compared structurally.
func decodeAny(msg []byte) any {
	if m, err := DecodeLink(msg); err == nil {
		return m
	}
	if m, err := DecodeVector(msg); err == nil {
		return m
	}
	return msg
}

// RouterHarness records everything a router asks of its environment.
type RouterHarness struct {
	actions []HarnessEvent
	Time    int64
}

func (h *RouterHarness) SendToNeighbour(neigh state.NodeId, msg []byte) {
	h.actions = append(h.actions, MakeEvent("SEND", neigh, decodeAny(msg)))
}

func (h *RouterHarness) SendToNeighbours(msg []byte) {
	h.actions = append(h.actions, MakeEvent("BROADCAST", decodeAny(msg)))
}

func (h *RouterHarness) GetTime() int64 {
	return h.Time
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears every recorded action except logs.
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}

	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetLogs returns and clears the router events that were logged, leaving
// other actions in place.
func (h *RouterHarness) GetLogs() []RouterEvent {
	x := make([]RouterEvent, 0)
	rest := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message == "LOG" {
			x = append(x, action.Args[0].(RouterEvent))
		} else {
			rest = append(rest, action)
		}
	}
	h.actions = rest
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func LinkMsg(sender, src, dest state.NodeId, latency state.Cost, seq int64) LinkMessage {
	return LinkMessage{
		Sender:  sender,
		Src:     src,
		Dest:    dest,
		Latency: latency,
		Seq:     seq,
	}
}

func (h *RouterHarness) Deliver(t *testing.T, r Router, m LinkMessage) {
	t.Helper()
	if err := r.ProcessIncomingRoutingMessage(EncodeLink(m)); err != nil {
		t.Fatal(err)
	}
}

func (h *RouterHarness) DeliverVector(t *testing.T, r Router, sender state.NodeId, seq int64, dv DistanceVector) {
	t.Helper()
	msg := EncodeVector(VectorMessage{Sender: sender, Vector: dv, Seq: seq})
	if err := r.ProcessIncomingRoutingMessage(msg); err != nil {
		t.Fatal(err)
	}
}

// Mesh connects a set of routers in memory and delivers their messages in
// FIFO order. Messages sent over a link that no longer exists are dropped.
type Mesh struct {
	Routers   map[state.NodeId]Router
	links     map[state.Pair[state.NodeId, state.NodeId]]state.Cost
	queue     []state.Triple[state.NodeId, state.NodeId, []byte]
	Delivered int
}

type meshNet struct {
	mesh *Mesh
	id   state.NodeId
}

func (n meshNet) SendToNeighbour(neigh state.NodeId, msg []byte) {
	n.mesh.queue = append(n.mesh.queue, state.Triple[state.NodeId, state.NodeId, []byte]{V1: n.id, V2: neigh, V3: msg})
}

func (n meshNet) SendToNeighbours(msg []byte) {
	for _, neigh := range n.mesh.Routers[n.id].Neighbours() {
		n.SendToNeighbour(neigh, msg)
	}
}

func (n meshNet) GetTime() int64 {
	return int64(n.mesh.Delivered)
}

func (n meshNet) Log(event RouterEvent, desc string, args ...any) {
}

func NewMesh(factory func(id state.NodeId, net Network) Router, ids ...state.NodeId) *Mesh {
	m := &Mesh{
		Routers: make(map[state.NodeId]Router),
		links:   make(map[state.Pair[state.NodeId, state.NodeId]]state.Cost),
	}
	for _, id := range ids {
		m.Routers[id] = factory(id, meshNet{mesh: m, id: id})
	}
	return m
}

func DVFactory(id state.NodeId, net Network) Router {
	return NewDistanceVectorRouter(id, net)
}

func LSFactory(id state.NodeId, net Network) Router {
	return NewLinkStateRouter(id, net)
}

// SetLink changes a link on both endpoints before any message moves.
func (m *Mesh) SetLink(a, b state.NodeId, cost state.Cost) {
	key := state.Link{A: a, B: b}.Key()
	if cost == state.LinkRemoved {
		delete(m.links, key)
	} else {
		m.links[key] = cost
	}
	m.Routers[a].LinkHasBeenUpdated(b, cost)
	m.Routers[b].LinkHasBeenUpdated(a, cost)
}

// Run delivers messages until the network is quiet.
func (m *Mesh) Run(t *testing.T) {
	t.Helper()
	for len(m.queue) > 0 {
		if m.Delivered > 100000 {
			t.Fatal("network did not converge")
		}
		next := m.queue[0]
		m.queue = m.queue[1:]
		if _, ok := m.links[state.Link{A: next.V1, B: next.V2}.Key()]; !ok {
			continue
		}
		m.Delivered++
		if err := m.Routers[next.V2].ProcessIncomingRoutingMessage(next.V3); err != nil {
			t.Fatal(err)
		}
	}
}

func (m *Mesh) NextHop(t *testing.T, src, dest state.NodeId) state.NodeId {
	t.Helper()
	nh, err := m.Routers[src].GetNextHop(dest)
	if err != nil {
		t.Fatal(err)
	}
	return nh
}
