package sim

import (
	"errors"
	"fmt"

	"github.com/encodeous/nyroute/state"
)

// Mismatch is a pair of nodes whose forwarding path disagrees with the
// reference distance.
type Mismatch struct {
	Src  state.NodeId
	Dest state.NodeId
	Want state.Cost
	Got  state.Cost
	Path []state.NodeId
	Err  error
}

func (m Mismatch) String() string {
	want, got := FormatCost(m.Want), FormatCost(m.Got)
	if m.Err != nil {
		return fmt.Sprintf("%d -> %d: want %s, path %v: %v", m.Src, m.Dest, want, m.Path, m.Err)
	}
	return fmt.Sprintf("%d -> %d: want %s, got %s along %v", m.Src, m.Dest, want, got, m.Path)
}

// FormatCost renders a path cost, spelling out state.Infinity.
func FormatCost(c state.Cost) string {
	if c == state.Infinity {
		return "unreachable"
	}
	return fmt.Sprint(c)
}

// PathCost follows next hops from src to dest and sums the cost of the
// physical links along the way.
func (s *Simulator) PathCost(src, dest state.NodeId) ([]state.NodeId, state.Cost, error) {
	path, err := Walk(s, src, dest, len(s.nodes))
	if err != nil {
		return path, state.Infinity, err
	}
	total := state.Cost(0)
	for i := 1; i < len(path); i++ {
		c, ok := s.LinkCost(path[i-1], path[i])
		if !ok {
			return path, state.Infinity, fmt.Errorf("%w: node %d forwards to %d over a link that is down", ErrUnreachable, path[i-1], path[i])
		}
		total = state.AddCost(total, c)
	}
	return path, total, nil
}

// Verify checks every ordered pair of nodes against Floyd-Warshall over the
// current topology. Paths are compared by cost, since equal cost paths may
// legitimately pick different next hops. Unreachable destinations must be
// reported as such by the source itself.
func Verify(s *Simulator) ([]Mismatch, error) {
	nodes := s.NodeIds()
	ref := AllPairs(nodes, s.Links())
	mismatches := make([]Mismatch, 0)

	for _, src := range nodes {
		for _, dest := range nodes {
			if src == dest {
				continue
			}
			want := ref.Get(src, dest)

			if want == state.Infinity {
				nh, err := s.NextHop(src, dest)
				if err != nil {
					return nil, err
				}
				if nh != state.Unreachable {
					mismatches = append(mismatches, Mismatch{
						Src: src, Dest: dest, Want: want, Got: state.Infinity,
						Path: []state.NodeId{src, nh},
						Err:  fmt.Errorf("next hop %d for an unreachable destination", nh),
					})
				}
				continue
			}

			path, got, err := s.PathCost(src, dest)
			if err != nil {
				if !errors.Is(err, ErrUnreachable) && !errors.Is(err, ErrRoutingLoop) {
					return nil, err
				}
				mismatches = append(mismatches, Mismatch{Src: src, Dest: dest, Want: want, Got: got, Path: path, Err: err})
				continue
			}
			if got != want {
				mismatches = append(mismatches, Mismatch{Src: src, Dest: dest, Want: want, Got: got, Path: path})
			}
		}
	}
	if len(mismatches) > 0 {
		s.Log.Warn("routing disagrees with the reference", "mismatches", len(mismatches))
	}
	return mismatches, nil
}
