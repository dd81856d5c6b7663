package sim

import (
	"net/netip"
	"testing"

	"github.com/encodeous/nyroute/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticHops answers next hop queries from a fixed table keyed by (src, dest).
type staticHops map[state.Pair[state.NodeId, state.NodeId]]state.NodeId

func (h staticHops) NextHop(src, dest state.NodeId) (state.NodeId, error) {
	nh, ok := h[state.Pair[state.NodeId, state.NodeId]{V1: src, V2: dest}]
	if !ok {
		return state.Unreachable, nil
	}
	return nh, nil
}

func forwarderScenario() *state.Scenario {
	return &state.Scenario{
		Nodes: []state.NodeCfg{
			{Id: 1, Prefix: "192.168.0.0/16"},
			{Id: 2, Prefix: "192.168.5.0/24"},
			{Id: 3},
		},
		Links: []state.Link{
			{A: 1, B: 2, Cost: 1},
			{A: 2, B: 3, Cost: 1},
		},
	}
}

func TestForwarderLookup(t *testing.T) {
	f, err := NewForwarder(forwarderScenario())
	require.NoError(t, err)

	for addr, want := range map[string]state.NodeId{
		"192.168.5.7": 2,
		"192.168.9.1": 1,
		"10.0.0.3":    3,
	} {
		got, ok := f.Lookup(netip.MustParseAddr(addr))
		assert.True(t, ok, addr)
		assert.Equal(t, want, got, addr)
	}
	_, ok := f.Lookup(netip.MustParseAddr("8.8.8.8"))
	assert.False(t, ok)
}

func TestForwarderRejectsDuplicatePrefix(t *testing.T) {
	sc := forwarderScenario()
	sc.Nodes[1].Prefix = "192.168.0.0/16"
	_, err := NewForwarder(sc)
	assert.Error(t, err)
}

func TestTrace(t *testing.T) {
	f, err := NewForwarder(forwarderScenario())
	require.NoError(t, err)
	hops := staticHops{
		{V1: 1, V2: 3}: 2,
		{V1: 2, V2: 3}: 3,
	}

	path, err := f.Trace(hops, 1, netip.MustParseAddr("10.0.0.3"))
	require.NoError(t, err)
	assert.Equal(t, []state.NodeId{1, 2, 3}, path)

	path, err = f.Trace(hops, 3, netip.MustParseAddr("10.0.0.3"))
	require.NoError(t, err)
	assert.Equal(t, []state.NodeId{3}, path)
}

func TestTraceUnreachable(t *testing.T) {
	f, err := NewForwarder(forwarderScenario())
	require.NoError(t, err)

	path, err := f.Trace(staticHops{{V1: 1, V2: 3}: 2}, 1, netip.MustParseAddr("10.0.0.3"))
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, []state.NodeId{1, 2}, path)

	_, err = f.Trace(staticHops{}, 1, netip.MustParseAddr("8.8.8.8"))
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestTraceLoop(t *testing.T) {
	f, err := NewForwarder(forwarderScenario())
	require.NoError(t, err)
	hops := staticHops{
		{V1: 1, V2: 3}: 2,
		{V1: 2, V2: 3}: 1,
	}

	path, err := f.Trace(hops, 1, netip.MustParseAddr("10.0.0.3"))
	assert.ErrorIs(t, err, ErrRoutingLoop)
	assert.Equal(t, []state.NodeId{1, 2, 1}, path)
}

func TestTraceOverSimulator(t *testing.T) {
	sc := forwarderScenario()
	f, err := NewForwarder(sc)
	require.NoError(t, err)
	s := start(t, sc, LinkState)
	defer s.Stop()
	require.NoError(t, s.Run(t.Context()))

	path, err := f.Trace(s, 3, netip.MustParseAddr("192.168.200.1"))
	require.NoError(t, err)
	assert.Equal(t, []state.NodeId{3, 2, 1}, path)
}
