package state

import (
	"cmp"
	"fmt"
	"net/netip"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

var ScenarioPath = "scenario.yaml"

// NodeCfg declares a node and the address range it originates.
type NodeCfg struct {
	Id     NodeId `yaml:"id"`
	Prefix string `yaml:"prefix,omitempty"` // defaults to 10.x.y.z/32 derived from the id
}

// EventCfg changes the cost of a link at a point in simulated time. A cost of
// -1 removes the link, a link that does not exist yet is added.
type EventCfg struct {
	Time int64 `yaml:"time"`
	Link `yaml:",inline"`
}

// Scenario describes a network and the topology changes applied to it.
type Scenario struct {
	Nodes     []NodeCfg  `yaml:"nodes,omitempty"`
	Links     []Link     `yaml:"links"`
	Events    []EventCfg `yaml:"events,omitempty"`
	Latency   int64      `yaml:"latency,omitempty"`    // per message delivery delay in ticks
	Jitter    int64      `yaml:"jitter,omitempty"`     // extra random delay in [0, jitter] ticks
	Seed      uint64     `yaml:"seed,omitempty"`       // seeds the jitter generator
	MaxEvents int        `yaml:"max_events,omitempty"` // gives up if the network has not converged
}

// GetPrefix returns the configured prefix or the default host prefix for the node.
func (n NodeCfg) GetPrefix() (netip.Prefix, error) {
	if n.Prefix == "" {
		return DefaultPrefix(n.Id), nil
	}
	return netip.ParsePrefix(n.Prefix)
}

// DefaultPrefix maps a node id into 10.0.0.0/8.
func DefaultPrefix(id NodeId) netip.Prefix {
	v := uint32(id) & 0xffffff
	addr := netip.AddrFrom4([4]byte{10, byte(v >> 16), byte(v >> 8), byte(v)})
	return netip.PrefixFrom(addr, 32)
}

// NodeIds returns every node declared explicitly or referenced by a link or
// event, sorted.
func (s *Scenario) NodeIds() []NodeId {
	seen := make(map[NodeId]struct{})
	for _, n := range s.Nodes {
		seen[n.Id] = struct{}{}
	}
	for _, l := range s.Links {
		seen[l.A] = struct{}{}
		seen[l.B] = struct{}{}
	}
	for _, e := range s.Events {
		seen[e.A] = struct{}{}
		seen[e.B] = struct{}{}
	}
	ids := make([]NodeId, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// GetNode returns the node config for id, synthesising one if the node was
// only referenced by a link.
func (s *Scenario) GetNode(id NodeId) NodeCfg {
	idx := slices.IndexFunc(s.Nodes, func(cfg NodeCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return NodeCfg{Id: id}
	}
	return s.Nodes[idx]
}

// ExpandScenario fills in defaults.
func ExpandScenario(s *Scenario) {
	if s.Latency == 0 {
		s.Latency = DefaultLatency
	}
	if s.MaxEvents == 0 {
		s.MaxEvents = MaxSimEvents
	}
	slices.SortStableFunc(s.Events, func(a, b EventCfg) int {
		return cmp.Compare(a.Time, b.Time)
	})
}

func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	ExpandScenario(&s)
	if err := ScenarioValidator(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func ReadScenario(path string) (*Scenario, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(file)
}
