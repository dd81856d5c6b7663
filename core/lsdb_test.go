package core

import (
	"testing"

	"github.com/encodeous/nyroute/state"
	"github.com/stretchr/testify/assert"
)

func TestLinkStateDBInstallIsSymmetric(t *testing.T) {
	db := NewLinkStateDB()
	db.Install(1, 2, LinkEntry{Latency: 3, Seq: 4})

	a, ok := db.Get(1, 2)
	assert.True(t, ok)
	b, ok := db.Get(2, 1)
	assert.True(t, ok)
	assert.Equal(t, a, b)

	assert.Equal(t, Graph{1: {2: 3}, 2: {1: 3}}, db.Graph())
}

func TestLinkStateDBRemove(t *testing.T) {
	db := NewLinkStateDB()
	db.Install(1, 2, LinkEntry{Latency: 3, Seq: 4})

	e, ok := db.Remove(2, 1)
	assert.True(t, ok)
	assert.Equal(t, LinkEntry{Latency: 3, Seq: 4}, e)
	_, ok = db.Get(1, 2)
	assert.False(t, ok)
	assert.Empty(t, db.Graph())

	_, ok = db.Remove(2, 1)
	assert.False(t, ok)
}

func TestLinkStateDBLatestSeq(t *testing.T) {
	db := NewLinkStateDB()
	_, known := db.LatestSeq(1, 2)
	assert.False(t, known)

	db.Install(1, 2, LinkEntry{Latency: 1, Seq: 2})
	seq, known := db.LatestSeq(2, 1)
	assert.True(t, known)
	assert.Equal(t, int64(2), seq)

	db.Remove(1, 2)
	db.SetTombstone(1, 2, 3)
	seq, _ = db.LatestSeq(1, 2)
	assert.Equal(t, int64(3), seq)

	db.ClearTombstone(2, 1)
	_, known = db.LatestSeq(1, 2)
	assert.False(t, known)
}

func TestLinkStateDBOrdering(t *testing.T) {
	db := NewLinkStateDB()
	db.Install(3, 1, LinkEntry{Latency: 1})
	db.Install(0, 2, LinkEntry{Latency: 2})
	db.SetTombstone(5, 4, 7)

	keys := make([]linkKey, 0)
	for _, e := range db.Entries() {
		keys = append(keys, e.V1)
	}
	assert.Equal(t, []linkKey{{V1: 0, V2: 2}, {V1: 1, V2: 3}, {V1: 2, V2: 0}, {V1: 3, V2: 1}}, keys)
	assert.Equal(t, []state.Pair[linkKey, int64]{
		{V1: linkKey{V1: 4, V2: 5}, V2: 7},
		{V1: linkKey{V1: 5, V2: 4}, V2: 7},
	}, db.Tombstones())
}
