package state

import (
	"errors"
	"fmt"
)

var ErrInvalidScenario = errors.New("invalid scenario")

func NodeIdValidator(id NodeId) error {
	if id < 0 {
		return fmt.Errorf("%w: node id %d is negative", ErrInvalidScenario, id)
	}
	return nil
}

func LinkValidator(l Link) error {
	if err := NodeIdValidator(l.A); err != nil {
		return err
	}
	if err := NodeIdValidator(l.B); err != nil {
		return err
	}
	if l.A == l.B {
		return fmt.Errorf("%w: link %d <-> %d connects a node to itself", ErrInvalidScenario, l.A, l.B)
	}
	if l.Cost < LinkRemoved {
		return fmt.Errorf("%w: link %d <-> %d has negative cost %d", ErrInvalidScenario, l.A, l.B, l.Cost)
	}
	return nil
}

func ScenarioValidator(s *Scenario) error {
	declared := make(map[NodeId]struct{})
	for _, n := range s.Nodes {
		if err := NodeIdValidator(n.Id); err != nil {
			return err
		}
		if _, ok := declared[n.Id]; ok {
			return fmt.Errorf("%w: duplicate node %d", ErrInvalidScenario, n.Id)
		}
		declared[n.Id] = struct{}{}
		if _, err := n.GetPrefix(); err != nil {
			return fmt.Errorf("%w: node %d: %w", ErrInvalidScenario, n.Id, err)
		}
	}

	edges := make(map[Pair[NodeId, NodeId]]struct{})
	for _, l := range s.Links {
		if err := LinkValidator(l); err != nil {
			return err
		}
		if l.Cost == LinkRemoved {
			return fmt.Errorf("%w: initial link %d <-> %d cannot be a removal", ErrInvalidScenario, l.A, l.B)
		}
		if _, ok := edges[l.Key()]; ok {
			return fmt.Errorf("%w: duplicate link found: %d, %d", ErrInvalidScenario, l.A, l.B)
		}
		edges[l.Key()] = struct{}{}
	}

	for _, e := range s.Events {
		if e.Time < 0 {
			return fmt.Errorf("%w: event at negative time %d", ErrInvalidScenario, e.Time)
		}
		if err := LinkValidator(e.Link); err != nil {
			return err
		}
	}

	if len(s.Nodes) != 0 {
		for _, id := range s.NodeIds() {
			if _, ok := declared[id]; !ok {
				return fmt.Errorf("%w: node %d not defined", ErrInvalidScenario, id)
			}
		}
	}
	if s.Latency < 0 || s.Jitter < 0 || s.MaxEvents < 0 {
		return fmt.Errorf("%w: latency, jitter and max_events must not be negative", ErrInvalidScenario)
	}
	return nil
}
