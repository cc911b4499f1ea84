// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import "sort"

// SemaphorePlanner inserts one semaphore per distinct cross-queue
// node-to-node dependency, deduplicating the (possibly many) resource
// edges between the same pair of nodes into a single wait/signal pair
// (spec.md §4.9).
type SemaphorePlanner struct{}

// NewSemaphorePlanner returns a planner.
func NewSemaphorePlanner() *SemaphorePlanner { return &SemaphorePlanner{} }

// Plan scans edges for cross-queue dependencies and appends the
// resulting semaphores to the signaling and waiting nodes' lists.
func (p *SemaphorePlanner) Plan(nodes []Node, edges []Edge) []Semaphore {
	type pair struct{ src, dst int }
	seen := make(map[pair]bool)
	var crossings []pair
	for _, e := range edges {
		if e.Type == EdgeInitialization {
			continue
		}
		if e.Src < 0 || e.Src >= len(nodes) || e.Dst < 0 || e.Dst >= len(nodes) {
			continue
		}
		if nodes[e.Src].Queue == nodes[e.Dst].Queue {
			continue
		}
		p := pair{e.Src, e.Dst}
		if seen[p] {
			continue
		}
		seen[p] = true
		crossings = append(crossings, p)
	}

	// Sort for deterministic semaphore indices independent of edge
	// discovery order.
	sort.Slice(crossings, func(i, j int) bool {
		if crossings[i].src != crossings[j].src {
			return crossings[i].src < crossings[j].src
		}
		return crossings[i].dst < crossings[j].dst
	})

	sems := make([]Semaphore, 0, len(crossings))
	for _, c := range crossings {
		idx := len(sems)
		sems = append(sems, Semaphore{
			SignalQueue: nodes[c.src].Queue,
			WaitQueue:   nodes[c.dst].Queue,
			SignalNode:  c.src,
			WaitNode:    c.dst,
		})
		nodes[c.src].SignalSemaphores = append(nodes[c.src].SignalSemaphores, idx)
		nodes[c.dst].WaitSemaphores = append(nodes[c.dst].WaitSemaphores, idx)
	}
	return sems
}
