package sim

import (
	"context"
	"log/slog"

	"github.com/encodeous/nyroute/core"
	"github.com/encodeous/nyroute/state"
)

// nodeNetwork is the view of the simulator handed to a single router.
type nodeNetwork struct {
	sim  *Simulator
	node *SimNode
}

func (n *nodeNetwork) SendToNeighbour(neigh state.NodeId, msg []byte) {
	n.sim.send(n.node.Id, neigh, msg)
}

func (n *nodeNetwork) SendToNeighbours(msg []byte) {
	for _, neigh := range n.node.router.Neighbours() {
		n.sim.send(n.node.Id, neigh, msg)
	}
}

func (n *nodeNetwork) GetTime() int64 {
	return n.sim.Now()
}

func (n *nodeNetwork) Log(event core.RouterEvent, desc string, args ...any) {
	level := slog.LevelDebug
	if event.IsWarning() {
		level = slog.LevelWarn
	}
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs, "event", event.String(), "time", n.GetTime())
	attrs = append(attrs, args...)
	n.node.Log.Log(context.Background(), level, desc, attrs...)
}

var _ core.Network = (*nodeNetwork)(nil)
