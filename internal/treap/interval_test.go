// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package treap

import (
	"sort"
	"testing"
)

type tag struct {
	access   int
	consumer int
}

func sortIvs(ivs []Interval[tag]) {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Lo != ivs[j].Lo {
			return ivs[i].Lo < ivs[j].Lo
		}
		return ivs[i].Hi < ivs[j].Hi
	})
}

func TestIntervalInsertFragmentsDifferentTag(t *testing.T) {
	idx := NewIntervalIndex[tag](16, 1)
	if !idx.Insert(0, 100, tag{1, 0}) {
		t.Fatal("Insert(0,100): want true")
	}
	if !idx.Insert(40, 60, tag{2, 1}) {
		t.Fatal("Insert(40,60): want true")
	}
	got := idx.QueryAll(0, 100)
	sortIvs(got)
	want := []Interval[tag]{
		{0, 40, tag{1, 0}},
		{40, 60, tag{2, 1}},
		{60, 100, tag{1, 0}},
	}
	if len(got) != len(want) {
		t.Fatalf("QueryAll: have %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("QueryAll[%d]: have %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestIntervalInsertMergesSameTag(t *testing.T) {
	idx := NewIntervalIndex[tag](16, 1)
	idx.Insert(0, 100, tag{1, 0})
	idx.Insert(40, 60, tag{1, 0})
	got := idx.QueryAll(0, 100)
	if len(got) != 1 || got[0] != (Interval[tag]{0, 100, tag{1, 0}}) {
		t.Fatalf("QueryAll: have %v, want single [0,100)", got)
	}
}

func TestIntervalQueryExcludesTag(t *testing.T) {
	idx := NewIntervalIndex[tag](16, 1)
	idx.Insert(0, 100, tag{1, 0})
	idx.Insert(40, 60, tag{2, 1})
	got := idx.Query(0, 100, tag{2, 1})
	sortIvs(got)
	want := []Interval[tag]{{0, 40, tag{1, 0}}, {60, 100, tag{1, 0}}}
	if len(got) != len(want) {
		t.Fatalf("Query: have %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Query[%d]: have %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestIntervalRemoveOnlyMatchingTag(t *testing.T) {
	idx := NewIntervalIndex[tag](16, 1)
	idx.Insert(0, 100, tag{1, 0})
	idx.Insert(40, 60, tag{2, 1})
	idx.Remove(30, 70, tag{2, 1})
	got := idx.QueryAll(0, 100)
	sortIvs(got)
	want := []Interval[tag]{{0, 40, tag{1, 0}}, {60, 100, tag{1, 0}}}
	if len(got) != len(want) {
		t.Fatalf("QueryAll after Remove: have %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("QueryAll[%d]: have %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestIntervalCapacityExceeded(t *testing.T) {
	idx := NewIntervalIndex[tag](2, 1)
	if !idx.Insert(0, 10, tag{1, 0}) {
		t.Fatal("first insert: want true")
	}
	// Fragmenting into three pieces (left remainder, new span, right
	// remainder) exceeds a 2-node pool.
	if idx.Insert(4, 6, tag{2, 1}) {
		t.Fatal("fragmenting insert beyond capacity: want false")
	}
}

func TestIntervalDeterministic(t *testing.T) {
	build := func() []Interval[tag] {
		idx := NewIntervalIndex[tag](32, 42)
		idx.Insert(0, 100, tag{1, 0})
		idx.Insert(10, 20, tag{2, 1})
		idx.Insert(50, 70, tag{3, 2})
		out := idx.QueryAll(0, 100)
		sortIvs(out)
		return out
	}
	a, b := build(), build()
	if len(a) != len(b) {
		t.Fatalf("non-deterministic result length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic result[%d]: %+v vs %+v", i, a[i], b[i])
		}
	}
}
