// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package treap

import (
	"sort"
	"testing"
)

type rtag struct {
	access int
	layout int
}

func sortRects(rs []Rect[rtag]) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].X1 != rs[j].X1 {
			return rs[i].X1 < rs[j].X1
		}
		return rs[i].Y1 < rs[j].Y1
	})
}

func TestRectInsertFragmentsDifferentTag(t *testing.T) {
	idx := NewRectIndex[rtag](32, 1)
	whole := Rect[rtag]{0, 0, 3, 3, rtag{1, 1}}
	if !idx.Insert(whole) {
		t.Fatal("Insert(whole): want true")
	}
	// Writes mip 0, layer 0 only.
	if !idx.Insert(Rect[rtag]{0, 0, 0, 0, rtag{2, 2}}) {
		t.Fatal("Insert(mip0,layer0): want true")
	}
	got := idx.QueryAll(Rect[rtag]{0, 0, 3, 3, rtag{}})
	total := 0
	for _, r := range got {
		total += (r.X2 - r.X1 + 1) * (r.Y2 - r.Y1 + 1)
	}
	if total != 16 {
		t.Fatalf("fragmented area: have %d, want 16 (4x4 grid)", total)
	}
	var foundNew bool
	for _, r := range got {
		if r == (Rect[rtag]{0, 0, 0, 0, rtag{2, 2}}) {
			foundNew = true
		}
	}
	if !foundNew {
		t.Fatalf("new tagged cell missing from %v", got)
	}
}

func TestRectIndependentSubresourcesNoOverlap(t *testing.T) {
	// Mirrors scenario S3: pass X writes mip0/layer0, pass Y writes
	// mip1/layer0; they must not be seen as overlapping.
	a := Rect[rtag]{0, 0, 0, 0, rtag{1, 1}}
	b := Rect[rtag]{1, 0, 1, 0, rtag{1, 1}}
	if rectOverlaps(a, b) {
		t.Fatal("disjoint mip rectangles reported as overlapping")
	}
}

func TestRectQueryExcludesTag(t *testing.T) {
	idx := NewRectIndex[rtag](32, 1)
	idx.Insert(Rect[rtag]{0, 0, 3, 3, rtag{1, 1}})
	idx.Insert(Rect[rtag]{1, 1, 1, 1, rtag{2, 2}})
	got := idx.Query(Rect[rtag]{0, 0, 3, 3, rtag{}}, rtag{2, 2})
	for _, r := range got {
		if r.Tag == (rtag{2, 2}) {
			t.Fatalf("Query returned excluded tag: %+v", r)
		}
	}
}

func TestRectCapacityExceeded(t *testing.T) {
	idx := NewRectIndex[rtag](2, 1)
	if !idx.Insert(Rect[rtag]{0, 0, 9, 9, rtag{1, 1}}) {
		t.Fatal("first insert: want true")
	}
	if idx.Insert(Rect[rtag]{4, 4, 5, 5, rtag{2, 2}}) {
		t.Fatal("fragmenting insert beyond capacity: want false")
	}
}
