package state

import (
	"reflect"
	"testing"
)

func TestSortPairsInt(t *testing.T) {
	pairs := []Pair[int, int]{
		{V1: 3, V2: 10},
		{V1: 1, V2: 20},
		{V1: 1, V2: 5},
		{V1: 2, V2: 15},
	}
	expected := []Pair[int, int]{
		{V1: 1, V2: 5},
		{V1: 1, V2: 20},
		{V1: 2, V2: 15},
		{V1: 3, V2: 10},
	}
	SortPairs(pairs)
	if !reflect.DeepEqual(pairs, expected) {
		t.Fatalf("expected %v, got %v", expected, pairs)
	}
}

func TestSortPairsNodeId(t *testing.T) {
	pairs := []Pair[NodeId, NodeId]{
		{V1: 2, V2: 1},
		{V1: 0, V2: 2},
		{V1: 0, V2: 1},
		{V1: 1, V2: 0},
	}
	expected := []Pair[NodeId, NodeId]{
		{V1: 0, V2: 1},
		{V1: 0, V2: 2},
		{V1: 1, V2: 0},
		{V1: 2, V2: 1},
	}
	SortPairs(pairs)
	if !reflect.DeepEqual(pairs, expected) {
		t.Fatalf("expected %v, got %v", expected, pairs)
	}
}

func TestPairSwap(t *testing.T) {
	p := Pair[NodeId, string]{V1: 4, V2: "x"}
	if got := p.Swap(); got.V1 != "x" || got.V2 != 4 {
		t.Fatalf("unexpected swap result %v", got)
	}
}
