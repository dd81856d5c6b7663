package core

import (
	"slices"

	"github.com/encodeous/nyroute/state"
)

// LinkRegistry records the cost of every attached neighbour, preserving the
// order neighbours were attached in.
type LinkRegistry struct {
	order []state.NodeId
	costs map[state.NodeId]state.Cost
}

func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{
		order: make([]state.NodeId, 0),
		costs: make(map[state.NodeId]state.Cost),
	}
}

// Set records the cost of the link to neigh, returning true if neigh was not
// attached before.
func (l *LinkRegistry) Set(neigh state.NodeId, cost state.Cost) bool {
	_, exists := l.costs[neigh]
	if !exists {
		l.order = append(l.order, neigh)
	}
	l.costs[neigh] = cost
	return !exists
}

// Remove detaches neigh, returning false if it was not attached.
func (l *LinkRegistry) Remove(neigh state.NodeId) bool {
	if _, ok := l.costs[neigh]; !ok {
		return false
	}
	delete(l.costs, neigh)
	l.order = slices.DeleteFunc(l.order, func(id state.NodeId) bool {
		return id == neigh
	})
	return true
}

// Cost returns the cost to neigh, or state.Infinity if it is not attached.
func (l *LinkRegistry) Cost(neigh state.NodeId) (state.Cost, bool) {
	c, ok := l.costs[neigh]
	if !ok {
		return state.Infinity, false
	}
	return c, true
}

func (l *LinkRegistry) Has(neigh state.NodeId) bool {
	_, ok := l.costs[neigh]
	return ok
}

// Ids returns a copy of the attached neighbours in attach order.
func (l *LinkRegistry) Ids() []state.NodeId {
	return slices.Clone(l.order)
}

func (l *LinkRegistry) Len() int {
	return len(l.order)
}
