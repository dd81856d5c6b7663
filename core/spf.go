package core

import (
	"fmt"

	"github.com/encodeous/nyroute/state"
)

// Graph is an adjacency map of link costs.
type Graph map[state.NodeId]map[state.NodeId]state.Cost

// ShortestPaths runs Dijkstra's algorithm from source. It returns the
// predecessor of every reachable node (source excluded) and its distance.
// Neighbours are relaxed in ascending id order and only strictly shorter
// paths replace a known one, so among equal cost paths the first discovered
// wins.
func ShortestPaths(g Graph, source state.NodeId) (map[state.NodeId]state.NodeId, map[state.NodeId]state.Cost, error) {
	pred := make(map[state.NodeId]state.NodeId)
	dist := map[state.NodeId]state.Cost{source: 0}
	done := make(map[state.NodeId]struct{})

	limit := max(state.SpfPopLimit, len(g)+1)
	pops := 0

	q := NewPQueue[state.NodeId]()
	q.Push(source, 0)
	for !q.IsEmpty() {
		u, d, _ := q.Pop()
		pops++
		if pops > limit {
			return nil, nil, fmt.Errorf("%w: exceeded %d queue pops", ErrSpfInvariant, limit)
		}
		if _, ok := done[u]; ok {
			return nil, nil, fmt.Errorf("%w: node %d settled twice", ErrSpfInvariant, u)
		}
		done[u] = struct{}{}

		for _, v := range sortedKeys(g[u]) {
			if _, ok := done[v]; ok {
				continue
			}
			w := g[u][v]
			if w < 0 {
				return nil, nil, fmt.Errorf("%w: link %d -> %d has negative cost %d", ErrSpfInvariant, u, v, w)
			}
			nd := state.AddCost(d, w)
			if cur, ok := dist[v]; !ok || nd < cur {
				dist[v] = nd
				pred[v] = u
				q.Push(v, nd)
			}
		}
	}
	return pred, dist, nil
}

// spfTree is the predecessor map inverted into an arena of nodes with child
// lists, rooted at the source.
type spfTree struct {
	ids      []state.NodeId
	index    map[state.NodeId]int
	children [][]int
}

func (t *spfTree) slot(id state.NodeId) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	i := len(t.ids)
	t.ids = append(t.ids, id)
	t.index[id] = i
	t.children = append(t.children, nil)
	return i
}

func newSpfTree(pred map[state.NodeId]state.NodeId, source state.NodeId) *spfTree {
	t := &spfTree{index: make(map[state.NodeId]int)}
	t.slot(source)
	for _, n := range sortedKeys(pred) {
		p := t.slot(pred[n])
		c := t.slot(n)
		t.children[p] = append(t.children[p], c)
	}
	return t
}

// NextHops maps every node reachable in the predecessor tree to the direct
// child of source whose subtree contains it.
func NextHops(pred map[state.NodeId]state.NodeId, source state.NodeId) (map[state.NodeId]state.NodeId, error) {
	t := newSpfTree(pred, source)
	hops := make(map[state.NodeId]state.NodeId, len(pred))
	visited := make([]bool, len(t.ids))
	visited[0] = true

	for _, child := range t.children[0] {
		nh := t.ids[child]
		stack := []int{child}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[cur] {
				return nil, fmt.Errorf("%w: node %d appears twice in the shortest path tree", ErrSpfInvariant, t.ids[cur])
			}
			visited[cur] = true
			hops[t.ids[cur]] = nh
			stack = append(stack, t.children[cur]...)
		}
	}
	return hops, nil
}
