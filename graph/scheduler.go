// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

// Scheduler orders graph nodes and assigns each a level usable for
// barrier replay and scratch-buffer liveness (spec.md §4.6).
type Scheduler struct{}

// NewScheduler returns a Scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// TopologicalSort returns nodes reordered so every edge points from an
// earlier to a later position, or ErrCyclicDependency if edges form a
// cycle. ResourceShare edges participate in cycle detection the same
// as ResourceDependency edges; only their Δ-level contribution differs
// (see AssignLevels).
func (s *Scheduler) TopologicalSort(nodes []Node, edges []Edge) ([]int, error) {
	adj := make([][]int, len(nodes))
	for _, e := range edges {
		if e.Src < 0 || e.Src >= len(nodes) {
			continue // Skip edges whose source is not in the node set.
		}
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}

	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(nodes))
	order := make([]int, 0, len(nodes))

	var visit func(n int) error
	visit = func(n int) error {
		color[n] = gray
		for _, next := range adj[n] {
			switch color[next] {
			case gray:
				return ErrCyclicDependency
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[n] = black
		order = append(order, n)
		return nil
	}

	for n := range nodes {
		if color[n] == white {
			if err := visit(n); err != nil {
				return nil, err
			}
		}
	}
	// visit appends in postorder; reverse for a valid topological order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// AssignLevels computes each node's level by longest-path relaxation
// over order, the topological order returned by TopologicalSort.
// ResourceDependency and Initialization edges advance the level by 1;
// ResourceShare edges do not (spec.md §4.6).
func (s *Scheduler) AssignLevels(nodes []Node, edges []Edge, order []int) {
	incoming := make(map[int][]Edge, len(nodes))
	for _, e := range edges {
		incoming[e.Dst] = append(incoming[e.Dst], e)
	}
	for _, n := range order {
		level := 0
		for _, e := range incoming[n] {
			if e.Src < 0 {
				continue
			}
			l := nodes[e.Src].Level
			if e.Type != EdgeResourceShare {
				l++
			}
			if l > level {
				level = l
			}
		}
		nodes[n].Level = level
	}
}
