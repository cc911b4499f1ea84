// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/gviegas/rgraph/internal/treap"
)

// sentinelConsumer marks the implicit state a Subresource Index is
// seeded with before any real node has touched the resource (spec.md
// §4.5). It never equals a real node id (node 0 is the synthetic
// Initialization node; every other node id is positive).
const sentinelConsumer = -1

// defaultIndexCapacity bounds the Subresource Index node pool used
// during dependency and barrier analysis (spec.md §4.1, §4.5, §4.8).
const defaultIndexCapacity = 1024

// bufferEdgeType classifies the hazard between a prior and a next
// access to the same buffer byte range: ResourceDependency if the
// access differs, else ResourceShare (spec.md §3, §4.5.b).
func bufferEdgeType(prior, next AccessPattern) EdgeType {
	if prior != next {
		return EdgeResourceDependency
	}
	return EdgeResourceShare
}

// textureEdgeType is the texture counterpart of bufferEdgeType: the
// layout also counts toward the hazard, since a layout change always
// requires a barrier (spec.md §3, §4.5.b).
func textureEdgeType(prior, next texTag) EdgeType {
	if prior.access != next.access || prior.layout != next.layout {
		return EdgeResourceDependency
	}
	return EdgeResourceShare
}

type bufTag struct {
	consumer int
	access   AccessPattern
}

type texTag struct {
	consumer int
	access   AccessPattern
	layout   ResourceLayout
}

// DependencyBuilder replays, per resource, every registered usage
// ordered by consuming node priority against a fresh Subresource
// Index, emitting one edge per overlap with a differently-consumed
// prior tag (spec.md §4.5).
type DependencyBuilder struct {
	db *ResourceDatabase
}

// NewDependencyBuilder returns a builder bound to db.
func NewDependencyBuilder(db *ResourceDatabase) *DependencyBuilder {
	return &DependencyBuilder{db: db}
}

// Build returns the dependency edges implied by every buffer and
// texture usage recorded against nodes, plus the unconditional
// Initialization edge from the synthetic node 0 to every other node
// (spec.md §4.5 step 4).
func (b *DependencyBuilder) Build(nodes []Node) ([]Edge, error) {
	priority := func(nodeID int) int { return nodes[nodeID].Priority }

	edges := make([]Edge, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, Edge{
			Src:          0,
			Dst:          i,
			ResourceID:   -1,
			ResourceKind: KindInitialization,
			Type:         EdgeInitialization,
		})
	}

	for id, meta := range b.db.buffers {
		es, err := buildBufferEdges(id, meta, priority)
		if err != nil {
			return nil, errors.Wrapf(err, "graph: buffer %q", meta.Name)
		}
		edges = append(edges, es...)
	}
	for id, meta := range b.db.scratch {
		es, err := buildBufferEdges(id, meta, priority)
		if err != nil {
			return nil, errors.Wrapf(err, "graph: scratch buffer %q", meta.Name)
		}
		edges = append(edges, es...)
	}
	for id, meta := range b.db.textures.snapshot() {
		es, err := buildTextureEdges(id, meta, priority)
		if err != nil {
			return nil, errors.Wrapf(err, "graph: texture %q", meta.Name)
		}
		edges = append(edges, es...)
	}
	return edges, nil
}

func buildBufferEdges(id int, meta bufferMetadata, priority func(int) int) ([]Edge, error) {
	usages := append([]BufferUsageEntry(nil), meta.Usages...)
	sort.Slice(usages, func(i, j int) bool {
		return priority(usages[i].ConsumerNodeID) < priority(usages[j].ConsumerNodeID)
	})

	idx := treap.NewSeededIntervalIndex[bufTag](defaultIndexCapacity, int64(id)+1,
		0, int(meta.Info.Size), bufTag{sentinelConsumer, AccessNone})

	var edges []Edge
	for _, u := range usages {
		lo, hi := int(u.View.Offset), int(u.View.Offset+u.View.Size)
		for _, e := range idx.QueryAll(lo, hi) {
			if e.Tag.consumer == u.ConsumerNodeID || e.Tag.consumer == sentinelConsumer {
				continue
			}
			edges = append(edges, Edge{
				Src:          e.Tag.consumer,
				Dst:          u.ConsumerNodeID,
				ResourceID:   id,
				ResourceKind: KindBuffer,
				Type:         bufferEdgeType(e.Tag.access, u.View.Access),
			})
		}
		if !idx.Insert(lo, hi, bufTag{u.ConsumerNodeID, u.View.Access}) {
			return nil, ErrIndexCapacity
		}
	}
	return edges, nil
}

func buildTextureEdges(id int, meta textureMetadata, priority func(int) int) ([]Edge, error) {
	usages := append([]TextureUsageEntry(nil), meta.Usages...)
	sort.Slice(usages, func(i, j int) bool {
		return priority(usages[i].ConsumerNodeID) < priority(usages[j].ConsumerNodeID)
	})

	whole := treap.Rect[texTag]{
		X1: 0, Y1: 0,
		X2: meta.Info.MipLevels - 1,
		Y2: meta.Info.Layers - 1,
		Tag: texTag{sentinelConsumer, AccessNone, LayoutUndefined},
	}
	idx := treap.NewSeededRectIndex[texTag](defaultIndexCapacity, int64(id)+1, whole)

	var edges []Edge
	for _, u := range usages {
		r := treap.Rect[texTag]{
			X1: u.View.BaseMipLevel, Y1: u.View.BaseLayer,
			X2: u.View.BaseMipLevel + u.View.LevelCount - 1,
			Y2: u.View.BaseLayer + u.View.LayerCount - 1,
			Tag: texTag{u.ConsumerNodeID, u.View.Access, u.View.Layout},
		}
		for _, e := range idx.QueryAll(r) {
			if e.Tag.consumer == u.ConsumerNodeID || e.Tag.consumer == sentinelConsumer {
				continue
			}
			edges = append(edges, Edge{
				Src:          e.Tag.consumer,
				Dst:          u.ConsumerNodeID,
				ResourceID:   id,
				ResourceKind: KindTexture,
				Type:         textureEdgeType(e.Tag, texTag{u.ConsumerNodeID, u.View.Access, u.View.Layout}),
			})
		}
		if !idx.Insert(r) {
			return nil, ErrIndexCapacity
		}
	}
	return edges, nil
}
