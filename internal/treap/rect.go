// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package treap

import (
	"math/rand"

	"github.com/gviegas/rgraph/internal/bitm"
)

// Rect is an axis-aligned rectangle over inclusive coordinates
// [X1,Y1]-[X2,Y2], carrying a caller-defined Tag. For textures, X is
// the mip level and Y is the array layer (spec.md §3, "Texture
// footprint").
type Rect[Tag comparable] struct {
	X1, Y1, X2, Y2 int
	Tag            Tag
}

func (r Rect[Tag]) valid() bool { return r.X1 <= r.X2 && r.Y1 <= r.Y2 }

func rectOverlaps[Tag comparable](a, b Rect[Tag]) bool {
	return a.X1 <= b.X2 && b.X1 <= a.X2 && a.Y1 <= b.Y2 && b.Y1 <= a.Y2
}

type rectNode[Tag comparable] struct {
	r                  Rect[Tag]
	prio               uint64
	left, right        int32
	subtreeMaxX2       int
	subtreeMaxY2       int
}

// RectIndex is the 2-D variant of the Subresource Index (spec.md
// §4.1), used to track access on texture mip×layer rectangles.
type RectIndex[Tag comparable] struct {
	nodes []rectNode[Tag]
	free  bitm.Bitm[uint64]
	root  int32
	cap   int
	rng   *rand.Rand
}

// NewRectIndex creates an index bounded to capacity nodes, with a PRNG
// seed stable across the life of the index.
func NewRectIndex[Tag comparable](capacity int, seed int64) *RectIndex[Tag] {
	idx := &RectIndex[Tag]{
		nodes: make([]rectNode[Tag], capacity),
		root:  -1,
		cap:   capacity,
		rng:   rand.New(rand.NewSource(seed)),
	}
	idx.free.Grow((capacity + 63) / 64)
	return idx
}

// NewSeededRectIndex creates an index pre-populated with the single
// rectangle whole (normally spanning the whole resource), which
// carries its own Tag.
func NewSeededRectIndex[Tag comparable](capacity int, seed int64, whole Rect[Tag]) *RectIndex[Tag] {
	idx := NewRectIndex[Tag](capacity, seed)
	idx.Insert(whole)
	return idx
}

func (idx *RectIndex[Tag]) alloc() (int32, bool) {
	i, ok := idx.free.Search()
	if !ok || i >= idx.cap {
		return -1, false
	}
	idx.free.Set(i)
	return int32(i), true
}

func (idx *RectIndex[Tag]) updateNode(i int32) {
	n := &idx.nodes[i]
	maxX2, maxY2 := n.r.X2, n.r.Y2
	if n.left != -1 {
		l := &idx.nodes[n.left]
		if l.subtreeMaxX2 > maxX2 {
			maxX2 = l.subtreeMaxX2
		}
		if l.subtreeMaxY2 > maxY2 {
			maxY2 = l.subtreeMaxY2
		}
	}
	if n.right != -1 {
		r := &idx.nodes[n.right]
		if r.subtreeMaxX2 > maxX2 {
			maxX2 = r.subtreeMaxX2
		}
		if r.subtreeMaxY2 > maxY2 {
			maxY2 = r.subtreeMaxY2
		}
	}
	n.subtreeMaxX2, n.subtreeMaxY2 = maxX2, maxY2
}

func (idx *RectIndex[Tag]) before(i, j int32) bool {
	a, b := idx.nodes[i].r, idx.nodes[j].r
	if a.X1 != b.X1 {
		return a.X1 < b.X1
	}
	if a.Y1 != b.Y1 {
		return a.Y1 < b.Y1
	}
	if a.X2 != b.X2 {
		return a.X2 < b.X2
	}
	return a.Y2 < b.Y2
}

func (idx *RectIndex[Tag]) rotateRight(i int32) int32 {
	l := idx.nodes[i].left
	idx.nodes[i].left = idx.nodes[l].right
	idx.nodes[l].right = i
	idx.updateNode(i)
	idx.updateNode(l)
	return l
}

func (idx *RectIndex[Tag]) rotateLeft(i int32) int32 {
	r := idx.nodes[i].right
	idx.nodes[i].right = idx.nodes[r].left
	idx.nodes[r].left = i
	idx.updateNode(i)
	idx.updateNode(r)
	return r
}

func (idx *RectIndex[Tag]) treapInsert(root, n int32) int32 {
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

func (idx *RectIndex[Tag]) rawInsert(r Rect[Tag]) bool {
	if !r.valid() {
		return true
	}
	i, ok := idx.alloc()
	if !ok {
		return false
	}
	idx.nodes[i] = rectNode[Tag]{r: r, prio: idx.rng.Uint64(), left: -1, right: -1, subtreeMaxX2: r.X2, subtreeMaxY2: r.Y2}
	idx.root = idx.treapInsert(idx.root, i)
	return true
}

func (idx *RectIndex[Tag]) collectAll() []Rect[Tag] {
	var out []Rect[Tag]
	var walk func(i int32)
	walk = func(i int32) {
		if i == -1 {
			return
		}
		n := &idx.nodes[i]
		walk(n.left)
		out = append(out, n.r)
		walk(n.right)
	}
	walk(idx.root)
	idx.root = -1
	idx.free.Clear()
	return out
}

// fragment subtracts cut from victim, returning up to four
// non-overlapping remainder rectangles that retain victim's tag.
func fragment[Tag comparable](victim, cut Rect[Tag]) []Rect[Tag] {
	var out []Rect[Tag]
	if victim.X1 < cut.X1 {
		out = append(out, Rect[Tag]{victim.X1, victim.Y1, cut.X1 - 1, victim.Y2, victim.Tag})
	}
	if victim.X2 > cut.X2 {
		out = append(out, Rect[Tag]{cut.X2 + 1, victim.Y1, victim.X2, victim.Y2, victim.Tag})
	}
	midX1, midX2 := max(victim.X1, cut.X1), min(victim.X2, cut.X2)
	if midX1 > midX2 {
		return out
	}
	if victim.Y1 < cut.Y1 {
		out = append(out, Rect[Tag]{midX1, victim.Y1, midX2, cut.Y1 - 1, victim.Tag})
	}
	if victim.Y2 > cut.Y2 {
		out = append(out, Rect[Tag]{midX1, cut.Y2 + 1, midX2, victim.Y2, victim.Tag})
	}
	return out
}

// Insert implements spec.md §4.1's 2-D insert: regions whose tag
// differs from r.Tag and overlap r are fragmented into up to four
// remainder rectangles each; regions already tagged r.Tag that
// overlap r are merged into its bounding box. It reports false if the
// node pool would be exceeded; the index then holds only those
// resulting rectangles that fit.
func (idx *RectIndex[Tag]) Insert(r Rect[Tag]) bool {
	if !r.valid() {
		return true
	}
	all := idx.collectAll()
	keep := make([]Rect[Tag], 0, len(all)*4+1)
	for _, v := range all {
		switch {
		case v.Tag == r.Tag && rectOverlaps(r, v):
			if v.X1 < r.X1 {
				r.X1 = v.X1
			}
			if v.Y1 < r.Y1 {
				r.Y1 = v.Y1
			}
			if v.X2 > r.X2 {
				r.X2 = v.X2
			}
			if v.Y2 > r.Y2 {
				r.Y2 = v.Y2
			}
		case rectOverlaps(r, v) && v.Tag != r.Tag:
			keep = append(keep, fragment(v, r)...)
		default:
			keep = append(keep, v)
		}
	}
	keep = append(keep, r)
	return idx.rebuild(keep)
}

func (idx *RectIndex[Tag]) rebuild(rs []Rect[Tag]) bool {
	if len(rs) > idx.cap {
		for _, r := range rs {
			if !idx.rawInsert(r) {
				break
			}
		}
		return false
	}
	for _, r := range rs {
		idx.rawInsert(r)
	}
	return true
}

// Remove implements spec.md §4.1's 2-D remove: only rectangles tagged
// tag are removed from r, fragmenting the unaffected remainder.
func (idx *RectIndex[Tag]) Remove(r Rect[Tag], tag Tag) {
	if !r.valid() {
		return
	}
	all := idx.collectAll()
	keep := make([]Rect[Tag], 0, len(all)*4)
	for _, v := range all {
		if v.Tag == tag && rectOverlaps(r, v) {
			keep = append(keep, fragment(v, r)...)
			continue
		}
		keep = append(keep, v)
	}
	idx.rebuild(keep)
}

// Query implements the 2-D query(lo,hi,exclude_tag,out): rectangles
// overlapping r whose tag differs from exclude, each clipped to r.
func (idx *RectIndex[Tag]) Query(r Rect[Tag], exclude Tag) []Rect[Tag] {
	var out []Rect[Tag]
	idx.visit(idx.root, r, func(n *rectNode[Tag]) {
		if n.r.Tag == exclude {
			return
		}
		out = append(out, clipRect(n.r, r))
	})
	return out
}

// QueryAll implements query_all for the 2-D index.
func (idx *RectIndex[Tag]) QueryAll(r Rect[Tag]) []Rect[Tag] {
	var out []Rect[Tag]
	idx.visit(idx.root, r, func(n *rectNode[Tag]) {
		out = append(out, clipRect(n.r, r))
	})
	return out
}

func clipRect[Tag comparable](v, r Rect[Tag]) Rect[Tag] {
	return Rect[Tag]{max(v.X1, r.X1), max(v.Y1, r.Y1), min(v.X2, r.X2), min(v.Y2, r.Y2), v.Tag}
}

func (idx *RectIndex[Tag]) visit(i int32, r Rect[Tag], f func(*rectNode[Tag])) {
	if i == -1 {
		return
	}
	n := &idx.nodes[i]
	if n.left != -1 && idx.nodes[n.left].subtreeMaxX2 >= r.X1 && idx.nodes[n.left].subtreeMaxY2 >= r.Y1 {
		idx.visit(n.left, r, f)
	}
	if rectOverlaps(n.r, r) {
		f(n)
	}
	idx.visit(n.right, r, f)
}
