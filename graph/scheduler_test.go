// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import "testing"

func TestTopologicalSortDetectsCycle(t *testing.T) {
	nodes := make([]Node, 3)
	for i := range nodes {
		nodes[i].ID = i
	}
	edges := []Edge{
		{Src: 0, Dst: 1, Type: EdgeResourceDependency},
		{Src: 1, Dst: 2, Type: EdgeResourceDependency},
		{Src: 2, Dst: 0, Type: EdgeResourceDependency},
	}
	s := NewScheduler()
	if _, err := s.TopologicalSort(nodes, edges); err != ErrCyclicDependency {
		t.Fatalf("TopologicalSort over a cycle: have %v, want ErrCyclicDependency", err)
	}
}

func TestAssignLevelsLongestPath(t *testing.T) {
	// 0 -> 1 -> 2, plus a ResourceShare 0 -> 2 that must not shorten
	// node 2's level below the dependency chain's length.
	nodes := make([]Node, 3)
	for i := range nodes {
		nodes[i].ID = i
	}
	edges := []Edge{
		{Src: 0, Dst: 1, Type: EdgeResourceDependency},
		{Src: 1, Dst: 2, Type: EdgeResourceDependency},
		{Src: 0, Dst: 2, Type: EdgeResourceShare},
	}
	s := NewScheduler()
	order, err := s.TopologicalSort(nodes, edges)
	if err != nil {
		t.Fatal(err)
	}
	s.AssignLevels(nodes, edges, order)
	if nodes[0].Level != 0 {
		t.Fatalf("node 0 level: have %d, want 0", nodes[0].Level)
	}
	if nodes[1].Level != 1 {
		t.Fatalf("node 1 level: have %d, want 1", nodes[1].Level)
	}
	if nodes[2].Level != 2 {
		t.Fatalf("node 2 level: have %d, want 2", nodes[2].Level)
	}
}
