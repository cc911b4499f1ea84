// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/gviegas/rgraph/internal/treap"
)

// BarrierSynthesizer replays, per resource, every registered usage
// ordered by ascending node level against a fresh Subresource Index
// independent of the one used for dependency analysis, emitting a
// state-transition barrier for every subresource range whose access
// (or, for textures, layout) changes (spec.md §4.8).
type BarrierSynthesizer struct {
	db *ResourceDatabase
}

// NewBarrierSynthesizer returns a synthesizer bound to db.
func NewBarrierSynthesizer(db *ResourceDatabase) *BarrierSynthesizer {
	return &BarrierSynthesizer{db: db}
}

// Synthesize must run after the Scheduler has assigned node levels.
func (s *BarrierSynthesizer) Synthesize(nodes []Node) ([]BufferBarrier, []TextureBarrier, error) {
	var bufBarriers []BufferBarrier
	var texBarriers []TextureBarrier

	for id, meta := range s.db.buffers {
		bs, err := synthesizeBufferBarriers(id, meta, nodes)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "graph: buffer %q", meta.Name)
		}
		bufBarriers = append(bufBarriers, bs...)
	}
	for id, meta := range s.db.scratch {
		bs, err := synthesizeBufferBarriers(id, meta, nodes)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "graph: scratch buffer %q", meta.Name)
		}
		bufBarriers = append(bufBarriers, bs...)
	}
	for id, meta := range s.db.textures.snapshot() {
		ts, err := synthesizeTextureBarriers(id, meta, nodes)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "graph: texture %q", meta.Name)
		}
		texBarriers = append(texBarriers, ts...)
	}
	return bufBarriers, texBarriers, nil
}

func synthesizeBufferBarriers(id int, meta bufferMetadata, nodes []Node) ([]BufferBarrier, error) {
	usages := append([]BufferUsageEntry(nil), meta.Usages...)
	sort.Slice(usages, func(i, j int) bool {
		li, lj := nodes[usages[i].ConsumerNodeID].Level, nodes[usages[j].ConsumerNodeID].Level
		if li != lj {
			return li < lj
		}
		return nodes[usages[i].ConsumerNodeID].Priority < nodes[usages[j].ConsumerNodeID].Priority
	})

	idx := treap.NewSeededIntervalIndex[bufTag](defaultIndexCapacity, int64(id)+1,
		0, int(meta.Info.Size), bufTag{sentinelConsumer, AccessNone})

	var barriers []BufferBarrier
	for _, u := range usages {
		lo, hi := int(u.View.Offset), int(u.View.Offset+u.View.Size)
		for _, old := range idx.QueryAll(lo, hi) {
			if old.Tag.access == u.View.Access {
				continue
			}
			barriers = append(barriers, BufferBarrier{
				Resource:   meta.Name,
				Offset:     int64(old.Lo),
				Size:       int64(old.Hi - old.Lo),
				FromAccess: old.Tag.access,
				ToAccess:   u.View.Access,
				ToLevel:    nodes[u.ConsumerNodeID].Level,
			})
		}
		if !idx.Insert(lo, hi, bufTag{u.ConsumerNodeID, u.View.Access}) {
			return nil, ErrIndexCapacity
		}
	}
	return barriers, nil
}

func synthesizeTextureBarriers(id int, meta textureMetadata, nodes []Node) ([]TextureBarrier, error) {
	usages := append([]TextureUsageEntry(nil), meta.Usages...)
	sort.Slice(usages, func(i, j int) bool {
		li, lj := nodes[usages[i].ConsumerNodeID].Level, nodes[usages[j].ConsumerNodeID].Level
		if li != lj {
			return li < lj
		}
		return nodes[usages[i].ConsumerNodeID].Priority < nodes[usages[j].ConsumerNodeID].Priority
	})

	whole := treap.Rect[texTag]{
		X1: 0, Y1: 0,
		X2: meta.Info.MipLevels - 1,
		Y2: meta.Info.Layers - 1,
		Tag: texTag{sentinelConsumer, AccessNone, LayoutUndefined},
	}
	idx := treap.NewSeededRectIndex[texTag](defaultIndexCapacity, int64(id)+1, whole)

	var barriers []TextureBarrier
	for _, u := range usages {
		r := treap.Rect[texTag]{
			X1: u.View.BaseMipLevel, Y1: u.View.BaseLayer,
			X2: u.View.BaseMipLevel + u.View.LevelCount - 1,
			Y2: u.View.BaseLayer + u.View.LayerCount - 1,
			Tag: texTag{u.ConsumerNodeID, u.View.Access, u.View.Layout},
		}
		for _, old := range idx.QueryAll(r) {
			if old.Tag.access == u.View.Access && old.Tag.layout == u.View.Layout {
				continue
			}
			barriers = append(barriers, TextureBarrier{
				Resource:   meta.Name,
				BaseMip:    old.X1,
				MipCount:   old.X2 - old.X1 + 1,
				BaseLayer:  old.Y1,
				LayerCount: old.Y2 - old.Y1 + 1,
				FromAccess: old.Tag.access,
				ToAccess:   u.View.Access,
				FromLayout: old.Tag.layout,
				ToLayout:   u.View.Layout,
				ToLevel:    nodes[u.ConsumerNodeID].Level,
			})
		}
		if !idx.Insert(r) {
			return nil, ErrIndexCapacity
		}
	}
	return barriers, nil
}
