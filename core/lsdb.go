package core

import (
	"fmt"
	"strings"

	"github.com/encodeous/nyroute/state"
)

// LinkEntry is the latest known state of a directed link.
type LinkEntry struct {
	Latency state.Cost
	Seq     int64
}

type linkKey = state.Pair[state.NodeId, state.NodeId]

// LinkStateDB is a node's replica of the network topology. Links are stored
// in both directions with identical latency and sequence number. Removed
// links leave a tombstone so a delayed, older add cannot resurrect them.
type LinkStateDB struct {
	links      map[state.NodeId]map[state.NodeId]LinkEntry
	tombstones map[linkKey]int64
}

func NewLinkStateDB() *LinkStateDB {
	return &LinkStateDB{
		links:      make(map[state.NodeId]map[state.NodeId]LinkEntry),
		tombstones: make(map[linkKey]int64),
	}
}

func (db *LinkStateDB) Get(src, dest state.NodeId) (LinkEntry, bool) {
	e, ok := db.links[src][dest]
	return e, ok
}

func (db *LinkStateDB) set(src, dest state.NodeId, e LinkEntry) {
	m, ok := db.links[src]
	if !ok {
		m = make(map[state.NodeId]LinkEntry)
		db.links[src] = m
	}
	m[dest] = e
}

func (db *LinkStateDB) unset(src, dest state.NodeId) {
	m, ok := db.links[src]
	if !ok {
		return
	}
	delete(m, dest)
	if len(m) == 0 {
		delete(db.links, src)
	}
}

// Install records the link in both directions.
func (db *LinkStateDB) Install(a, b state.NodeId, e LinkEntry) {
	db.set(a, b, e)
	db.set(b, a, e)
}

// Remove deletes both directions of the link, returning the entry that was
// stored for (a, b).
func (db *LinkStateDB) Remove(a, b state.NodeId) (LinkEntry, bool) {
	e, ok := db.Get(a, b)
	db.unset(a, b)
	db.unset(b, a)
	return e, ok
}

// Tombstone returns the sequence number at which (a, b) was last removed.
func (db *LinkStateDB) Tombstone(a, b state.NodeId) (int64, bool) {
	seq, ok := db.tombstones[linkKey{V1: a, V2: b}]
	return seq, ok
}

// SetTombstone marks both directions of the link as removed at seq.
func (db *LinkStateDB) SetTombstone(a, b state.NodeId, seq int64) {
	db.tombstones[linkKey{V1: a, V2: b}] = seq
	db.tombstones[linkKey{V1: b, V2: a}] = seq
}

func (db *LinkStateDB) ClearTombstone(a, b state.NodeId) {
	delete(db.tombstones, linkKey{V1: a, V2: b})
	delete(db.tombstones, linkKey{V1: b, V2: a})
}

// LatestSeq returns the highest sequence number known for the link, whether
// from a live entry or a tombstone, and whether any history exists.
func (db *LinkStateDB) LatestSeq(a, b state.NodeId) (int64, bool) {
	seq, known := int64(0), false
	if e, ok := db.Get(a, b); ok {
		seq, known = e.Seq, true
	}
	if t, ok := db.Tombstone(a, b); ok && (!known || t > seq) {
		seq, known = t, true
	}
	return seq, known
}

// Entries returns every directed link, ordered by (src, dest).
func (db *LinkStateDB) Entries() []state.Pair[linkKey, LinkEntry] {
	out := make([]state.Pair[linkKey, LinkEntry], 0)
	for _, src := range sortedKeys(db.links) {
		for _, dest := range sortedKeys(db.links[src]) {
			out = append(out, state.Pair[linkKey, LinkEntry]{
				V1: linkKey{V1: src, V2: dest},
				V2: db.links[src][dest],
			})
		}
	}
	return out
}

// Tombstones returns every directed tombstone, ordered by (src, dest).
func (db *LinkStateDB) Tombstones() []state.Pair[linkKey, int64] {
	keys := make([]linkKey, 0, len(db.tombstones))
	for k := range db.tombstones {
		keys = append(keys, k)
	}
	state.SortPairs(keys)
	out := make([]state.Pair[linkKey, int64], 0, len(keys))
	for _, k := range keys {
		out = append(out, state.Pair[linkKey, int64]{V1: k, V2: db.tombstones[k]})
	}
	return out
}

// Graph returns the adjacency of the topology as seen by this database.
func (db *LinkStateDB) Graph() Graph {
	g := make(Graph, len(db.links))
	for src, m := range db.links {
		adj := make(map[state.NodeId]state.Cost, len(m))
		for dest, e := range m {
			adj[dest] = e.Latency
		}
		g[src] = adj
	}
	return g
}

func (db *LinkStateDB) String() string {
	sb := strings.Builder{}
	for _, e := range db.Entries() {
		sb.WriteString(fmt.Sprintf("%d -> %d = %d @ %d\n", e.V1.V1, e.V1.V2, e.V2.Latency, e.V2.Seq))
	}
	for _, t := range db.Tombstones() {
		sb.WriteString(fmt.Sprintf("%d -x %d @ %d\n", t.V1.V1, t.V1.V2, t.V2))
	}
	return sb.String()
}
