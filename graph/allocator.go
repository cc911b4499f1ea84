// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import "sort"

// BufferAllocationMap is the Allocator's output: each scratch buffer's
// resolved placement, plus the size each usage-mask backing buffer
// must be created with (spec.md §4.7, "scratch_map").
type BufferAllocationMap struct {
	Allocations  map[string]BufferAllocation
	BackingSizes map[BufferUsage]int64
}

// Allocator resolves scratch buffers to aliased byte ranges within one
// backing buffer per BufferUsage mask, via greedy interval-graph
// coloring over each buffer's [firstUsedAt, lastUsedAt] level span
// (spec.md §4.7).
type Allocator struct {
	db *ResourceDatabase
}

// NewAllocator returns an allocator bound to db.
func NewAllocator(db *ResourceDatabase) *Allocator {
	return &Allocator{db: db}
}

type scratchEntry struct {
	name                       string
	size                       int64
	usage                      BufferUsage
	firstUsedAt, lastUsedAt    int
}

// Allocate must run after the Scheduler has assigned node levels.
func (a *Allocator) Allocate(nodes []Node) BufferAllocationMap {
	groups := make(map[BufferUsage][]scratchEntry)
	for _, meta := range a.db.scratch {
		first, last := 0, 0
		if len(meta.Usages) > 0 {
			first = nodes[meta.Usages[0].ConsumerNodeID].Level
			last = first
			for _, u := range meta.Usages[1:] {
				l := nodes[u.ConsumerNodeID].Level
				if l < first {
					first = l
				}
				if l > last {
					last = l
				}
			}
		}
		e := scratchEntry{
			name:        meta.Name,
			size:        meta.Info.Size,
			usage:       meta.Info.Usage,
			firstUsedAt: first,
			lastUsedAt:  last,
		}
		groups[e.usage] = append(groups[e.usage], e)
	}

	result := BufferAllocationMap{
		Allocations:  make(map[string]BufferAllocation),
		BackingSizes: make(map[BufferUsage]int64),
	}
	for usage, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].firstUsedAt != entries[j].firstUsedAt {
				return entries[i].firstUsedAt < entries[j].firstUsedAt
			}
			return entries[i].size > entries[j].size
		})

		type color struct {
			lastUsedAt int
			maxSize    int64
		}
		var colors []color
		assignment := make([]int, len(entries))
		for i, e := range entries {
			picked := -1
			for ci, c := range colors {
				if e.firstUsedAt > c.lastUsedAt {
					picked = ci
					break
				}
			}
			if picked == -1 {
				colors = append(colors, color{})
				picked = len(colors) - 1
			}
			if e.lastUsedAt > colors[picked].lastUsedAt {
				colors[picked].lastUsedAt = e.lastUsedAt
			}
			if e.size > colors[picked].maxSize {
				colors[picked].maxSize = e.size
			}
			assignment[i] = picked
		}

		colorOffset := make([]int64, len(colors))
		var offset int64
		for ci, c := range colors {
			colorOffset[ci] = offset
			offset += alignUp(c.maxSize, 16)
		}
		result.BackingSizes[usage] = offset

		for i, e := range entries {
			result.Allocations[e.name] = BufferAllocation{
				Usage:  usage,
				Offset: colorOffset[assignment[i]],
				Size:   e.size,
			}
		}
	}
	return result
}

func alignUp(size, align int64) int64 { return (size + align - 1) / align * align }
