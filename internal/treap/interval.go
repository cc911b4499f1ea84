// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package treap implements the two tagged-range structures used by the
// render graph compiler's Subresource Index: a 1-D interval index for
// buffer byte ranges and a 2-D rectangle index for texture mip×layer
// rectangles. Both are bounded-capacity, arena-indexed treaps keyed by
// a randomized priority, so that no owning pointers exist between
// nodes (spec.md §9, "Pointer graphs → arena+indices").
package treap

import (
	"math/rand"

	"github.com/gviegas/rgraph/internal/bitm"
)

// Interval is a half-open range [Lo, Hi) carrying a caller-defined Tag.
type Interval[Tag comparable] struct {
	Lo, Hi int
	Tag    Tag
}

type intervalNode[Tag comparable] struct {
	lo, hi      int
	tag         Tag
	prio        uint64
	left, right int32
	maxEnd      int
}

// IntervalIndex is the 1-D variant of the Subresource Index (spec.md
// §4.1), used to track access on buffer byte ranges.
type IntervalIndex[Tag comparable] struct {
	nodes []intervalNode[Tag]
	free  bitm.Bitm[uint64]
	root  int32
	cap   int
	rng   *rand.Rand
}

// NewIntervalIndex creates an index bounded to capacity nodes. seed
// fixes the PRNG used for treap priorities; it is stable across the
// life of the index, as required by spec.md §4.1's determinism
// contract, but otherwise implementation-defined.
func NewIntervalIndex[Tag comparable](capacity int, seed int64) *IntervalIndex[Tag] {
	idx := &IntervalIndex[Tag]{
		nodes: make([]intervalNode[Tag], capacity),
		root:  -1,
		cap:   capacity,
		rng:   rand.New(rand.NewSource(seed)),
	}
	idx.free.Grow((capacity + 63) / 64)
	return idx
}

// NewSeededIntervalIndex creates an index holding a single interval
// spanning [lo, hi) tagged with seedTag. This is the Dependency Builder's and
// Barrier Synthesizer's "fresh index with a whole-resource seed
// interval" construction (spec.md §4.5, §4.8).
func NewSeededIntervalIndex[Tag comparable](capacity int, seed int64, lo, hi int, seedTag Tag) *IntervalIndex[Tag] {
	idx := NewIntervalIndex[Tag](capacity, seed)
	idx.Insert(lo, hi, seedTag)
	return idx
}

func (idx *IntervalIndex[Tag]) alloc() (int32, bool) {
	i, ok := idx.free.Search()
	if !ok || i >= idx.cap {
		return -1, false
	}
	idx.free.Set(i)
	return int32(i), true
}

func (idx *IntervalIndex[Tag]) freeNode(i int32) { idx.free.Unset(int(i)) }

func (idx *IntervalIndex[Tag]) updateNode(i int32) {
	n := &idx.nodes[i]
	maxEnd := n.hi
	if n.left != -1 {
		if m := idx.nodes[n.left].maxEnd; m > maxEnd {
			maxEnd = m
		}
	}
	if n.right != -1 {
		if m := idx.nodes[n.right].maxEnd; m > maxEnd {
			maxEnd = m
		}
	}
	n.maxEnd = maxEnd
}

func (idx *IntervalIndex[Tag]) before(i, j int32) bool {
	a, b := &idx.nodes[i], &idx.nodes[j]
	return a.lo < b.lo || (a.lo == b.lo && a.hi < b.hi)
}

func (idx *IntervalIndex[Tag]) rotateRight(i int32) int32 {
	l := idx.nodes[i].left
	idx.nodes[i].left = idx.nodes[l].right
	idx.nodes[l].right = i
	idx.updateNode(i)
	idx.updateNode(l)
	return l
}

func (idx *IntervalIndex[Tag]) rotateLeft(i int32) int32 {
	r := idx.nodes[i].right
	idx.nodes[i].right = idx.nodes[r].left
	idx.nodes[r].left = i
	idx.updateNode(i)
	idx.updateNode(r)
	return r
}

func (idx *IntervalIndex[Tag]) treapInsert(root, n int32) int32 {
	if root == -1 {
		return n
	}
	if idx.before(n, root) {
		idx.nodes[root].left = idx.treapInsert(idx.nodes[root].left, n)
		if idx.nodes[idx.nodes[root].left].prio > idx.nodes[root].prio {
			root = idx.rotateRight(root)
		} else {
			idx.updateNode(root)
		}
	} else {
		idx.nodes[root].right = idx.treapInsert(idx.nodes[root].right, n)
		if idx.nodes[idx.nodes[root].right].prio > idx.nodes[root].prio {
			root = idx.rotateLeft(root)
		} else {
			idx.updateNode(root)
		}
	}
	return root
}

// rawInsert allocates a fresh node and weaves it into the tree without
// performing any fragmentation. Callers must ensure [lo,hi) does not
// already overlap a differently-tagged node.
func (idx *IntervalIndex[Tag]) rawInsert(lo, hi int, tag Tag) bool {
	if lo >= hi {
		return true
	}
	i, ok := idx.alloc()
	if !ok {
		return false
	}
	idx.nodes[i] = intervalNode[Tag]{lo: lo, hi: hi, tag: tag, prio: idx.rng.Uint64(), left: -1, right: -1, maxEnd: hi}
	idx.root = idx.treapInsert(idx.root, i)
	return true
}

func overlaps(lo, hi, nlo, nhi int) bool { return lo < nhi && nlo < hi }

// collectAll returns every interval currently stored, in no particular
// order, and empties the tree.
func (idx *IntervalIndex[Tag]) collectAll() []Interval[Tag] {
	var out []Interval[Tag]
	var walk func(i int32)
	walk = func(i int32) {
		if i == -1 {
			return
		}
		n := &idx.nodes[i]
		walk(n.left)
		out = append(out, Interval[Tag]{n.lo, n.hi, n.tag})
		walk(n.right)
	}
	walk(idx.root)
	idx.root = -1
	idx.free.Clear()
	return out
}

// Insert implements spec.md §4.1's insert(lo, hi, tag): regions whose
// tag differs from tag and overlap [lo, hi) are fragmented into their
// remainder pieces; regions already tagged tag that overlap or abut
// [lo, hi) are merged into it. It reports false if the node pool would
// be exceeded; the index then holds only those resulting intervals
// that fit.
func (idx *IntervalIndex[Tag]) Insert(lo, hi int, tag Tag) bool {
	if lo >= hi {
		return true
	}
	all := idx.collectAll()
	keep := make([]Interval[Tag], 0, len(all)+1)
	for _, iv := range all {
		sameTagAdjacent := iv.Tag == tag && (overlaps(lo, hi, iv.Lo, iv.Hi) || iv.Hi == lo || iv.Lo == hi)
		switch {
		case sameTagAdjacent:
			if iv.Lo < lo {
				lo = iv.Lo
			}
			if iv.Hi > hi {
				hi = iv.Hi
			}
		case overlaps(lo, hi, iv.Lo, iv.Hi) && iv.Tag != tag:
			if iv.Lo < lo {
				keep = append(keep, Interval[Tag]{iv.Lo, lo, iv.Tag})
			}
			if iv.Hi > hi {
				keep = append(keep, Interval[Tag]{hi, iv.Hi, iv.Tag})
			}
		default:
			keep = append(keep, iv)
		}
	}
	keep = append(keep, Interval[Tag]{lo, hi, tag})
	return idx.rebuild(keep)
}

func (idx *IntervalIndex[Tag]) rebuild(ivs []Interval[Tag]) bool {
	if len(ivs) > idx.cap {
		// Restore whatever fit so the index is left usable; report
		// failure so the caller treats this compile as capacity
		// exceeded (spec.md §7).
		for _, iv := range ivs {
			if !idx.rawInsert(iv.Lo, iv.Hi, iv.Tag) {
				break
			}
		}
		return false
	}
	for _, iv := range ivs {
		idx.rawInsert(iv.Lo, iv.Hi, iv.Tag)
	}
	return true
}

// Remove implements spec.md §4.1's remove(lo, hi, tag): only intervals
// tagged tag are removed, fragmenting the unaffected remainder; other
// tags in [lo, hi) are left untouched.
func (idx *IntervalIndex[Tag]) Remove(lo, hi int, tag Tag) {
	if lo >= hi {
		return
	}
	all := idx.collectAll()
	keep := make([]Interval[Tag], 0, len(all)+1)
	for _, iv := range all {
		if iv.Tag == tag && overlaps(lo, hi, iv.Lo, iv.Hi) {
			if iv.Lo < lo {
				keep = append(keep, Interval[Tag]{iv.Lo, lo, iv.Tag})
			}
			if iv.Hi > hi {
				keep = append(keep, Interval[Tag]{hi, iv.Hi, iv.Tag})
			}
			continue
		}
		keep = append(keep, iv)
	}
	idx.rebuild(keep)
}

// Query implements spec.md §4.1's query(lo, hi, exclude_tag, out): it
// returns intervals overlapping [lo, hi) whose tag differs from
// exclude, each clipped to [lo, hi).
func (idx *IntervalIndex[Tag]) Query(lo, hi int, exclude Tag) []Interval[Tag] {
	var out []Interval[Tag]
	idx.visit(idx.root, lo, hi, func(n *intervalNode[Tag]) {
		if n.tag == exclude {
			return
		}
		out = append(out, clip(n.lo, n.hi, lo, hi, n.tag))
	})
	return out
}

// QueryAll implements query_all: same as Query but without tag
// filtering.
func (idx *IntervalIndex[Tag]) QueryAll(lo, hi int) []Interval[Tag] {
	var out []Interval[Tag]
	idx.visit(idx.root, lo, hi, func(n *intervalNode[Tag]) {
		out = append(out, clip(n.lo, n.hi, lo, hi, n.tag))
	})
	return out
}

func clip[Tag comparable](nlo, nhi, lo, hi int, tag Tag) Interval[Tag] {
	if nlo < lo {
		nlo = lo
	}
	if nhi > hi {
		nhi = hi
	}
	return Interval[Tag]{nlo, nhi, tag}
}

func (idx *IntervalIndex[Tag]) visit(i int32, lo, hi int, f func(*intervalNode[Tag])) {
	if i == -1 {
		return
	}
	n := &idx.nodes[i]
	if n.left != -1 && idx.nodes[n.left].maxEnd > lo {
		idx.visit(n.left, lo, hi, f)
	}
	if overlaps(lo, hi, n.lo, n.hi) {
		f(n)
	}
	if n.lo < hi {
		idx.visit(n.right, lo, hi, f)
	}
}
