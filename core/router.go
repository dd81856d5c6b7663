package core

import (
	"errors"
	"fmt"

	"github.com/encodeous/nyroute/state"
)

type RouterEvent int

// trace events

const (
	RouteChanged RouterEvent = iota
	RouteRetracted
	VectorBroadcast
	StaleMessageDropped
	DuplicateDropped
	CorrectionSent
	TombstoneRejected
	LinkFlooded
	DatabaseSynced
	RoutesRebuilt
)

// warn events

const (
	InconsistentState RouterEvent = iota + 1000
	MalformedMessage
)

var eventNames = map[RouterEvent]string{
	RouteChanged:        "RouteChanged",
	RouteRetracted:      "RouteRetracted",
	VectorBroadcast:     "VectorBroadcast",
	StaleMessageDropped: "StaleMessageDropped",
	DuplicateDropped:    "DuplicateDropped",
	CorrectionSent:      "CorrectionSent",
	TombstoneRejected:   "TombstoneRejected",
	LinkFlooded:         "LinkFlooded",
	DatabaseSynced:      "DatabaseSynced",
	RoutesRebuilt:       "RoutesRebuilt",
	InconsistentState:   "InconsistentState",
	MalformedMessage:    "MalformedMessage",
}

func (e RouterEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

// IsWarning is true for events that indicate something unexpected.
func (e RouterEvent) IsWarning() bool {
	return e >= InconsistentState
}

var (
	ErrMalformedMessage = errors.New("malformed routing message")
	ErrSpfInvariant     = errors.New("shortest path invariant violated")
)

// Network is everything a router needs from its environment. Calls into a
// router are serialised by the environment, and the router calls back into
// Network only from within those calls.
type Network interface {
	// SendToNeighbour is a best-effort unicast to a directly attached node.
	SendToNeighbour(neigh state.NodeId, msg []byte)
	// SendToNeighbours sends msg to every current neighbour of the router.
	SendToNeighbours(msg []byte)
	// GetTime returns a monotonically non-decreasing logical clock.
	GetTime() int64
	Log(event RouterEvent, desc string, args ...any)
}

// Router is the surface shared by the distance-vector and link-state engines.
type Router interface {
	Id() state.NodeId
	// Neighbours returns the currently attached neighbours in attach order.
	Neighbours() []state.NodeId
	// LinkHasBeenUpdated is called when the cost of a local link changes. A
	// latency of state.LinkRemoved means the link is gone.
	LinkHasBeenUpdated(neigh state.NodeId, latency state.Cost)
	// ProcessIncomingRoutingMessage handles a message sent by a neighbour. It
	// only fails if msg cannot be decoded.
	ProcessIncomingRoutingMessage(msg []byte) error
	// GetNextHop returns the neighbour to forward to, or state.Unreachable.
	GetNextHop(dest state.NodeId) (state.NodeId, error)
}
