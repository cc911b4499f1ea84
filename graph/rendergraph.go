// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gviegas/rgraph/driver"
	"github.com/gviegas/rgraph/internal/logx"
)

// RenderGraph is the entry point described in spec.md §6. It owns a
// Resource Database and a list of passes contributed by the caller,
// and compiles them into a scheduled execution plan on demand. It
// never submits work to rhi itself — the collaborator is referenced
// by name only, for the host to drive command submission with.
type RenderGraph struct {
	rhi driver.GPU
	db  *ResourceDatabase

	mu       sync.Mutex
	passes   []Pass
	firstRun bool
}

// New returns an empty render graph bound to rhi.
func New(rhi driver.GPU) *RenderGraph {
	return &RenderGraph{rhi: rhi, db: NewResourceDatabase(), firstRun: true}
}

// Driver returns the RHI collaborator this graph was constructed with.
func (g *RenderGraph) Driver() driver.GPU { return g.rhi }

// CreateBuffer registers a durable buffer.
func (g *RenderGraph) CreateBuffer(name string, info BufferInfo) error {
	return g.db.CreateBuffer(name, info)
}

// CreateScratchBuffer registers a transient buffer the Allocator will
// resolve to aliased storage during Compile.
func (g *RenderGraph) CreateScratchBuffer(name string, info BufferInfo) error {
	return g.db.CreateScratchBuffer(name, info)
}

// CreateTexture registers a texture.
func (g *RenderGraph) CreateTexture(name string, info TextureInfo) error {
	return g.db.CreateTexture(name, info)
}

// CreateSampler registers a sampler.
func (g *RenderGraph) CreateSampler(name string, info SamplerInfo) error {
	return g.db.CreateSampler(name, info)
}

// CreateBindingsLayout registers a bindings layout.
func (g *RenderGraph) CreateBindingsLayout(name string, info BindingsLayoutInfo) error {
	return g.db.CreateBindingsLayout(name, info)
}

// CreateBindingGroups registers a set of binding groups.
func (g *RenderGraph) CreateBindingGroups(name string, info BindingGroupsInfo) error {
	return g.db.CreateBindingGroups(name, info)
}

// CreateGraphicsPipeline registers a graphics pipeline.
func (g *RenderGraph) CreateGraphicsPipeline(name string, info GraphicsPipelineInfo) error {
	return g.db.CreateGraphicsPipeline(name, info)
}

// CreateComputePipeline registers a compute pipeline.
func (g *RenderGraph) CreateComputePipeline(name string, info ComputePipelineInfo) error {
	return g.db.CreateComputePipeline(name, info)
}

// AddPass registers a pass. record is invoked during Compile whenever
// shouldExecute selects the current run (spec.md §6, add_pass).
func (g *RenderGraph) AddPass(name string, shouldExecute ExecutePredicate, record func(*ResourceDatabase, *CommandRecorder)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.passes = append(g.passes, Pass{Name: name, ShouldExecute: shouldExecute, Record: record})
}

// CompiledGraph is the result of a successful Compile: a scheduled
// node set, the dependency edges between them, resolved scratch-buffer
// placements, minimal state-transition barriers, and the cross-queue
// semaphores needed to honor Order.
type CompiledGraph struct {
	Nodes           []Node
	Order           []int
	Edges           []Edge
	BufferBarriers  []BufferBarrier
	TextureBarriers []TextureBarrier
	Semaphores      []Semaphore
	ScratchMap      BufferAllocationMap
}

// Compile runs the full pipeline — Pass Analyzer, Dependency Builder,
// Scheduler, Allocator, Barrier Synthesizer, Semaphore Planner — over
// every pass added so far (spec.md §4). The caller must ensure no
// resource or pass is created concurrently with Compile (spec.md §5).
// Every call first drops the buffer, scratch buffer and texture usages
// registered by the previous call, since their consumer node ids
// belong to that call's node set. On error, no plan is returned and
// the first-run state is left unchanged.
func (g *RenderGraph) Compile() (*CompiledGraph, error) {
	g.mu.Lock()
	passes := append([]Pass(nil), g.passes...)
	firstRun := g.firstRun
	g.mu.Unlock()

	db := g.db
	db.bufMu.Lock()
	for i := range db.buffers {
		db.buffers[i].Usages = nil
	}
	for i := range db.scratch {
		db.scratch[i].Usages = nil
	}
	db.bufMu.Unlock()
	for id := range db.textures.snapshot() {
		db.textures.update(id, func(m *textureMetadata) { m.Usages = nil })
	}

	logx.Get().Infof("graph: compiling %d passes (first run: %t)", len(passes), firstRun)

	nodes, err := NewPassAnalyzer(g.db).Analyze(passes, firstRun)
	if err != nil {
		return nil, errors.Wrap(err, "graph: pass analysis")
	}

	edges, err := NewDependencyBuilder(g.db).Build(nodes)
	if err != nil {
		return nil, errors.Wrap(err, "graph: dependency analysis")
	}

	sched := NewScheduler()
	order, err := sched.TopologicalSort(nodes, edges)
	if err != nil {
		return nil, errors.Wrap(err, "graph: scheduling")
	}
	sched.AssignLevels(nodes, edges, order)

	scratchMap := NewAllocator(g.db).Allocate(nodes)

	bufBarriers, texBarriers, err := NewBarrierSynthesizer(g.db).Synthesize(nodes)
	if err != nil {
		return nil, errors.Wrap(err, "graph: barrier synthesis")
	}

	sems := NewSemaphorePlanner().Plan(nodes, edges)

	g.mu.Lock()
	g.firstRun = false
	g.mu.Unlock()

	logx.Get().Infof("graph: compiled %d nodes, %d edges, %d buffer barriers, %d texture barriers, %d semaphores",
		len(nodes), len(edges), len(bufBarriers), len(texBarriers), len(sems))

	return &CompiledGraph{
		Nodes:           nodes,
		Order:           order,
		Edges:           edges,
		BufferBarriers:  bufBarriers,
		TextureBarriers: texBarriers,
		Semaphores:      sems,
		ScratchMap:      scratchMap,
	}, nil
}
