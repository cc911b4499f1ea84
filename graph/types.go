// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package graph implements the render graph compiler: the Subresource
// Index, Resource Database, Command Recorder, Pass Analyzer,
// Dependency Builder, Scheduler, Allocator, Barrier Synthesizer, and
// Semaphore Planner described in the specification. It ingests a
// declarative description of GPU passes and their resource usages and
// produces a scheduled execution plan, aliased scratch-buffer
// allocations, a minimal set of state-transition barriers, and
// cross-queue semaphores. The package never submits work, talks to a
// driver, or owns GPU memory — that is the RHI collaborator's job
// (package driver).
package graph

// AccessPattern enumerates the intent of a resource access. It is
// bit-composable so a single usage can combine several intents (e.g.
// a descriptor readable in several stages).
type AccessPattern uint32

// Access patterns (spec.md §3).
const (
	AccessNone AccessPattern = 0
	AccessVertexAttributeRead AccessPattern = 1 << iota
	AccessIndexRead
	AccessUniformRead
	AccessShaderRead
	AccessShaderWrite
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilAttachmentRead
	AccessDepthStencilAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
	AccessIndirectCommandRead
	AccessMemoryRead
	AccessMemoryWrite
)

// ResourceLayout enumerates texture layouts (spec.md §3). It has no
// meaning for buffers.
type ResourceLayout int

const (
	LayoutUndefined ResourceLayout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutDepthStencilReadOnly
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPreinitialized
	LayoutPresentSrc
)

// ResourceKind names the seven resource kinds of the data model, plus
// the synthetic Initialization kind used for node-0 edges.
type ResourceKind int

const (
	KindInitialization ResourceKind = iota
	KindBuffer
	KindTexture
	KindSampler
	KindBindingsLayout
	KindBindingGroups
	KindGraphicsPipeline
	KindComputePipeline
)

func (k ResourceKind) String() string {
	switch k {
	case KindInitialization:
		return "Initialization"
	case KindBuffer:
		return "Buffer"
	case KindTexture:
		return "Texture"
	case KindSampler:
		return "Sampler"
	case KindBindingsLayout:
		return "BindingsLayout"
	case KindBindingGroups:
		return "BindingGroups"
	case KindGraphicsPipeline:
		return "GraphicsPipeline"
	case KindComputePipeline:
		return "ComputePipeline"
	default:
		return "Unknown"
	}
}

// BufferUsage is a mask of intended uses for a buffer, recovered from
// original_source/src/rendering/gpu/Types.hpp. The Allocator groups
// scratch buffers by this mask (spec.md §4.7).
type BufferUsage uint32

const (
	BufferUniform BufferUsage = 1 << iota
	BufferStorage
	BufferPush  // host write-visible ("map write")
	BufferPull  // host read-visible ("map read")
	BufferVertex
	BufferIndirect
	BufferIndex
	BufferCopySrc
	BufferCopyDst
)

// TextureUsage is a mask of intended uses for a texture.
type TextureUsage uint32

const (
	TextureSampled TextureUsage = 1 << iota
	TextureStorage
	TextureColorAttachment
	TextureDepthStencilAttachment
	TextureTransferSrc
	TextureTransferDst
)

// Format is a pixel format. The set below is a short list of common
// color and depth/stencil formats; no command validation in this
// package inspects it.
type Format int

const (
	FormatNone Format = iota
	FormatRGBA8Unorm
	FormatRGBA8sRGB
	FormatBGRA8Unorm
	FormatRG8Unorm
	FormatR8Unorm
	FormatRGBA16Float
	FormatRGBA32Float
	FormatD16Unorm
	FormatD32Float
	FormatS8Uint
	FormatD24UnormS8Uint
	FormatD32FloatS8Uint
)

// Aspect is a mask of the planes a Format exposes.
type Aspect uint32

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

// Aspects returns the aspect mask implied by a pixel format.
func (f Format) Aspects() Aspect {
	switch f {
	case FormatD16Unorm, FormatD32Float:
		return AspectDepth
	case FormatS8Uint:
		return AspectStencil
	case FormatD24UnormS8Uint, FormatD32FloatS8Uint:
		return AspectDepth | AspectStencil
	default:
		return AspectColor
	}
}

// BufferView is a named buffer's byte-range footprint together with
// its intended access (spec.md §3, "Buffer footprint").
type BufferView struct {
	Buffer string
	Offset int64
	Size   int64
	Access AccessPattern
}

// TextureView is a named texture's mip×layer rectangle footprint
// together with its intended access and layout.
type TextureView struct {
	Texture      string
	BaseMipLevel int
	LevelCount   int
	BaseLayer    int
	LayerCount   int
	Access       AccessPattern
	Layout       ResourceLayout
}

// BufferInfo describes a buffer at creation time.
type BufferInfo struct {
	Size  int64
	Usage BufferUsage
}

// TextureInfo describes a texture at creation time.
type TextureInfo struct {
	Format     Format
	Width      int
	Height     int
	Depth      int
	Layers     int
	MipLevels  int
	Samples    int
	Usage      TextureUsage
}

// SamplerInfo describes a sampler at creation time.
type SamplerInfo struct {
	MinFilter, MagFilter, MipFilter int
	AddrU, AddrV, AddrW             int
}

// BindingVisibility is a mask of shader stages that may access a
// binding (recovered from Types.hpp; kept distinct bit values, unlike
// the original's overlapping Compute/Fragment bits).
type BindingVisibility uint32

const (
	VisibilityVertex BindingVisibility = 1 << iota
	VisibilityFragment
	VisibilityCompute
)

// BindingEntryType is the kind of resource a single binding-group slot
// refers to.
type BindingEntryType int

const (
	BindingBuffer BindingEntryType = iota
	BindingUniformBuffer
	BindingTexture
	BindingStorageTexture
	BindingSampler
)

// BindingLayoutEntry describes one binding slot.
type BindingLayoutEntry struct {
	Binding    int
	Type       BindingEntryType
	Visibility BindingVisibility
}

// BindingsLayoutInfo describes a bindings layout at creation time.
type BindingsLayoutInfo struct {
	Entries []BindingLayoutEntry
}

// GroupInfo binds concrete resources to the slots of one group.
type GroupInfo struct {
	Buffers         map[int]BufferView
	Textures        map[int]TextureView
	StorageTextures map[int]TextureView
	Samplers        map[int]string
}

// BindingGroupsInfo describes a set of binding groups conforming to a
// bindings layout.
type BindingGroupsInfo struct {
	Layout string
	Groups []GroupInfo
}

// GraphicsPipelineInfo describes a graphics pipeline at creation time.
// It is intentionally coarse: the compiler only needs enough shape to
// validate BindGraphicsPipeline consumers, not to drive rasterization.
type GraphicsPipelineInfo struct {
	VertexShader   string
	FragmentShader string
	BindingsLayout string
	ColorFormats   []Format
	DepthFormat    Format
}

// ComputePipelineInfo describes a compute pipeline at creation time.
type ComputePipelineInfo struct {
	Shader         string
	BindingsLayout string
}

// ColorAttachmentInfo describes one color attachment of a render pass.
type ColorAttachmentInfo struct {
	View       TextureView
	ClearColor [4]float32
	Load       LoadOp
}

// DepthStencilAttachmentInfo describes the depth/stencil attachment of
// a render pass.
type DepthStencilAttachmentInfo struct {
	View         TextureView
	ClearDepth   float32
	ClearStencil uint32
	Load         LoadOp
}

// LoadOp is an attachment's load operation.
type LoadOp int

const (
	LoadDontCare LoadOp = iota
	LoadClear
	LoadLoad
)

// RenderPassInfo describes the attachments of a render pass.
type RenderPassInfo struct {
	Color      []ColorAttachmentInfo
	DepthStencil *DepthStencilAttachmentInfo
	Width, Height int
}

// Queue names the execution queue a node runs on.
type Queue int

const (
	QueueNone Queue = iota
	QueueGraphics
	QueueCompute
	QueueTransfer
)

func (q Queue) String() string {
	switch q {
	case QueueGraphics:
		return "Graphics"
	case QueueCompute:
		return "Compute"
	case QueueTransfer:
		return "Transfer"
	default:
		return "None"
	}
}

// EdgeType classifies a dependency graph edge (spec.md §3).
type EdgeType int

const (
	EdgeInitialization EdgeType = iota
	EdgeResourceDependency
	EdgeResourceShare
)

// Node is a schedulable dispatch unit: one per non-empty command
// sequence (spec.md §3, "Graph node").
type Node struct {
	ID                int
	Name              string
	Level             int
	Priority          int
	Queue             Queue
	Commands          []Command
	WaitSemaphores    []int
	SignalSemaphores  []int
}

// Edge is a directed dependency between two nodes over one resource.
type Edge struct {
	Src, Dst     int
	ResourceID   int
	ResourceKind ResourceKind
	Type         EdgeType
}

// BufferBarrier is a minimal buffer state-transition record.
type BufferBarrier struct {
	Resource   string
	Offset     int64
	Size       int64
	FromAccess AccessPattern
	ToAccess   AccessPattern
	ToLevel    int
}

// TextureBarrier is a minimal texture state-transition record.
type TextureBarrier struct {
	Resource   string
	BaseMip    int
	MipCount   int
	BaseLayer  int
	LayerCount int
	FromAccess AccessPattern
	ToAccess   AccessPattern
	FromLayout ResourceLayout
	ToLayout   ResourceLayout
	ToLevel    int
}

// Semaphore is a cross-queue ordering record.
type Semaphore struct {
	SignalQueue Queue
	WaitQueue   Queue
	SignalNode  int
	WaitNode    int
}

// BufferAllocation is a scratch buffer's resolved placement within its
// backing buffer.
type BufferAllocation struct {
	Usage  BufferUsage
	Offset int64
	Size   int64
}
