// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/rgraph/driver/stub"
)

// TestCompileProducerConsumerChain grounds scenario S1: a pass that
// writes a buffer followed by a pass that reads the same range must
// produce one node per pass, on the queue implied by each pass's
// terminating command, joined by a ResourceDependency edge.
func TestCompileProducerConsumerChain(t *testing.T) {
	rg := New(stub.Open())
	if err := rg.CreateBuffer("data", BufferInfo{Size: 256, Usage: BufferStorage | BufferIndirect}); err != nil {
		t.Fatal(err)
	}

	rg.AddPass("producer", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.CopyBuffer(
			BufferView{Buffer: "data", Offset: 0, Size: 256, Access: AccessTransferWrite},
			BufferView{Buffer: "data", Offset: 0, Size: 256, Access: AccessTransferWrite},
		)
	})
	rg.AddPass("consumer", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.DrawIndexedIndirect(
			BufferView{Buffer: "data", Offset: 0, Size: 256, Access: AccessIndirectCommandRead}, 0, 1, 20)
	})

	cg, err := rg.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// Node 0 is the synthetic Initialization node; the producer and
	// consumer passes land at indices 1 and 2 (spec.md §3).
	if len(cg.Nodes) != 3 {
		t.Fatalf("node count: have %d, want 3", len(cg.Nodes))
	}
	if len(cg.Order) != 3 {
		t.Fatalf("order length: have %d, want 3", len(cg.Order))
	}
	if cg.Nodes[1].Queue != QueueTransfer {
		t.Fatalf("producer queue: have %v, want Transfer", cg.Nodes[1].Queue)
	}
	if cg.Nodes[2].Queue != QueueGraphics {
		t.Fatalf("consumer queue: have %v, want Graphics", cg.Nodes[2].Queue)
	}
	var deps int
	for _, e := range cg.Edges {
		if e.Type == EdgeResourceDependency && e.Src == 1 && e.Dst == 2 {
			deps++
		}
	}
	if deps == 0 {
		t.Fatalf("edges %v: want at least one ResourceDependency 1 -> 2", cg.Edges)
	}
	if len(cg.Semaphores) != 1 {
		t.Fatalf("cross-queue semaphores: have %d, want 1", len(cg.Semaphores))
	}
}

// TestCompileEmptyGraph grounds the boundary behavior of compiling
// with no passes added: only the synthetic node 0 exists, with no
// edges, barriers, or semaphores (spec.md §8).
func TestCompileEmptyGraph(t *testing.T) {
	rg := New(stub.Open())
	cg, err := rg.Compile()
	require.NoError(t, err)
	assert.Len(t, cg.Nodes, 1)
	assert.Equal(t, "Initialization", cg.Nodes[0].Name)
	assert.Empty(t, cg.Edges)
	assert.Empty(t, cg.BufferBarriers)
	assert.Empty(t, cg.TextureBarriers)
	assert.Empty(t, cg.Semaphores)
}

// TestExecuteOnFirstRunSkipsLaterCompiles grounds the
// ExecuteOnFirstRun predicate (spec.md §6).
func TestExecuteOnFirstRunSkipsLaterCompiles(t *testing.T) {
	rg := New(stub.Open())
	if err := rg.CreateBuffer("init", BufferInfo{Size: 64, Usage: BufferStorage}); err != nil {
		t.Fatal(err)
	}
	rg.AddPass("init", ExecuteOnFirstRun, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.CopyBuffer(
			BufferView{Buffer: "init", Offset: 0, Size: 64, Access: AccessTransferWrite},
			BufferView{Buffer: "init", Offset: 0, Size: 64, Access: AccessTransferWrite},
		)
	})

	first, err := rg.Compile()
	if err != nil {
		t.Fatal(err)
	}
	// Node 0 (Initialization) plus the first-run pass.
	if len(first.Nodes) != 2 {
		t.Fatalf("first compile nodes: have %d, want 2", len(first.Nodes))
	}

	second, err := rg.Compile()
	if err != nil {
		t.Fatal(err)
	}
	// Only node 0 remains once the first-run pass is skipped.
	if len(second.Nodes) != 1 {
		t.Fatalf("second compile nodes: have %d, want 1", len(second.Nodes))
	}
}

// TestInvalidCommandSequenceFails grounds the §7 "invalid command
// sequence" error path: a sequence that binds the same idempotent
// setup command twice must fail Compile. (Genuine cyclic dependencies
// are exercised directly against the Scheduler in scheduler_test.go;
// since passes only ever see state recorded by earlier passes, two
// ordinary passes cannot by themselves induce a graph cycle.)
func TestInvalidCommandSequenceFails(t *testing.T) {
	rg := New(stub.Open())
	if err := rg.CreateGraphicsPipeline("gp", GraphicsPipelineInfo{}); err != nil {
		t.Fatal(err)
	}
	rg.AddPass("bad", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.BindGraphicsPipeline("gp")
		rec.BindGraphicsPipeline("gp")
		rec.Draw(3, 1, 0, 0)
	})

	if _, err := rg.Compile(); err == nil {
		t.Fatal("Compile over an invalid sequence: want error")
	}
}

// TestCompileCrossQueueSemaphore grounds scenario S2: a graphics pass
// writing a texture's color attachment followed by a compute pass
// reading the same subresource as a storage texture must produce
// exactly one semaphore, signaled by the graphics node and waited on
// by the compute node.
func TestCompileCrossQueueSemaphore(t *testing.T) {
	rg := New(stub.Open())
	require.NoError(t, rg.CreateTexture("tex", TextureInfo{
		Format: FormatRGBA8Unorm, Width: 64, Height: 64, Depth: 1,
		Layers: 1, MipLevels: 1, Samples: 1,
		Usage: TextureColorAttachment | TextureStorage,
	}))
	require.NoError(t, rg.CreateBindingsLayout("layout", BindingsLayoutInfo{
		Entries: []BindingLayoutEntry{{Binding: 0, Type: BindingStorageTexture, Visibility: VisibilityCompute}},
	}))
	require.NoError(t, rg.CreateBindingGroups("groups", BindingGroupsInfo{
		Layout: "layout",
		Groups: []GroupInfo{{
			StorageTextures: map[int]TextureView{
				0: {Texture: "tex", LevelCount: 1, LayerCount: 1, Access: AccessShaderRead, Layout: LayoutGeneral},
			},
		}},
	}))
	require.NoError(t, rg.CreateComputePipeline("cp", ComputePipelineInfo{Shader: "cs", BindingsLayout: "layout"}))

	rg.AddPass("render", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.BeginRenderPass(RenderPassInfo{
			Color: []ColorAttachmentInfo{{
				View: TextureView{Texture: "tex", LevelCount: 1, LayerCount: 1, Access: AccessColorAttachmentWrite, Layout: LayoutColorAttachment},
				Load: LoadClear,
			}},
			Width: 64, Height: 64,
		})
		rec.EndRenderPass()
		rec.Draw(3, 1, 0, 0)
	})
	rg.AddPass("compute", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.BindComputePipeline("cp")
		rec.BindBindingGroups("groups", nil)
		rec.Dispatch(1, 1, 1)
	})

	cg, err := rg.Compile()
	require.NoError(t, err)
	require.Len(t, cg.Semaphores, 1)
	sem := cg.Semaphores[0]
	assert.Equal(t, QueueGraphics, sem.SignalQueue)
	assert.Equal(t, QueueCompute, sem.WaitQueue)
	assert.Equal(t, 1, sem.SignalNode)
	assert.Equal(t, 2, sem.WaitNode)
}

// TestCompileTextureSubresourceSplit grounds scenario S3: two passes
// writing disjoint mip levels of the same texture must not be joined
// by a resource edge, yet each independently transitions its level
// out of the texture's undefined initial layout, for two barriers.
func TestCompileTextureSubresourceSplit(t *testing.T) {
	rg := New(stub.Open())
	require.NoError(t, rg.CreateTexture("tex", TextureInfo{
		Format: FormatRGBA8Unorm, Width: 64, Height: 64, Depth: 1,
		Layers: 1, MipLevels: 2, Samples: 1,
		Usage: TextureColorAttachment,
	}))

	rg.AddPass("mip0", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.BeginRenderPass(RenderPassInfo{
			Color: []ColorAttachmentInfo{{
				View: TextureView{Texture: "tex", BaseMipLevel: 0, LevelCount: 1, LayerCount: 1, Access: AccessColorAttachmentWrite, Layout: LayoutColorAttachment},
				Load: LoadClear,
			}},
			Width: 64, Height: 64,
		})
		rec.EndRenderPass()
		rec.Draw(3, 1, 0, 0)
	})
	rg.AddPass("mip1", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.BeginRenderPass(RenderPassInfo{
			Color: []ColorAttachmentInfo{{
				View: TextureView{Texture: "tex", BaseMipLevel: 1, LevelCount: 1, LayerCount: 1, Access: AccessColorAttachmentWrite, Layout: LayoutColorAttachment},
				Load: LoadClear,
			}},
			Width: 32, Height: 32,
		})
		rec.EndRenderPass()
		rec.Draw(3, 1, 0, 0)
	})

	cg, err := rg.Compile()
	require.NoError(t, err)
	for _, e := range cg.Edges {
		assert.Equalf(t, EdgeInitialization, e.Type, "unexpected non-Initialization edge for disjoint mip levels: %+v", e)
	}
	assert.Len(t, cg.TextureBarriers, 2)
}

// TestAllocateAliasesNonOverlappingScratchBuffers grounds scenario S4:
// two scratch buffers sharing a usage mask but with non-overlapping
// level lifetimes must alias to the same offset.
func TestAllocateAliasesNonOverlappingScratchBuffers(t *testing.T) {
	db := NewResourceDatabase()
	require.NoError(t, db.CreateScratchBuffer("a", BufferInfo{Size: 256, Usage: BufferStorage}))
	require.NoError(t, db.CreateScratchBuffer("b", BufferInfo{Size: 256, Usage: BufferStorage}))

	nodes := []Node{
		{ID: 0, Level: 0},
		{ID: 1, Level: 1},
		{ID: 2, Level: 3},
	}
	view := BufferView{Offset: 0, Size: 256, Access: AccessShaderWrite}
	require.NoError(t, db.registerBufferConsumer("a", 1, view))
	require.NoError(t, db.registerBufferConsumer("b", 2, view))

	m := NewAllocator(db).Allocate(nodes)
	allocA, ok := m.Allocations["a"]
	require.True(t, ok)
	allocB, ok := m.Allocations["b"]
	require.True(t, ok)
	assert.Equal(t, allocA.Offset, allocB.Offset)
}

// TestCompileIsIdempotentAcrossRepeatedCalls grounds scenario S6:
// compiling the same set of always-executing passes twice in a row
// must produce structurally identical compiled graphs.
func TestCompileIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	rg := New(stub.Open())
	require.NoError(t, rg.CreateBuffer("data", BufferInfo{Size: 256, Usage: BufferStorage}))
	rg.AddPass("pass", ExecuteAlways, func(db *ResourceDatabase, rec *CommandRecorder) {
		rec.CopyBuffer(
			BufferView{Buffer: "data", Offset: 0, Size: 256, Access: AccessTransferWrite},
			BufferView{Buffer: "data", Offset: 0, Size: 256, Access: AccessTransferWrite},
		)
	})

	first, err := rg.Compile()
	require.NoError(t, err)
	second, err := rg.Compile()
	require.NoError(t, err)

	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Edges, second.Edges)
	assert.Equal(t, first.Order, second.Order)
	assert.Equal(t, first.BufferBarriers, second.BufferBarriers)
	assert.Equal(t, first.TextureBarriers, second.TextureBarriers)
	assert.Equal(t, first.Semaphores, second.Semaphores)
}
