// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the device abstraction consumed by the render graph compiler
// (spec.md §6, "Consumed collaborator: RHI"). The compiler references
// these types by name only — it never calls GPU methods itself; a host
// application uses a GPU to realize the compiled plan.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// NewBuffer creates a new buffer of the given size and usage.
	// If visible is set, the buffer's storage can be read and written
	// directly from the host.
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewTexture creates a new texture.
	NewTexture(pf PixelFmt, size Dim3D, layers, levels, samples int, usg Usage) (Texture, error)

	// NewSampler creates a new sampler.
	NewSampler(spln *Sampling) (Sampler, error)

	// NewBindingsLayout creates a new bindings layout describing the
	// shape of one or more binding groups.
	NewBindingsLayout(entries []BindingLayoutEntry) (BindingsLayout, error)

	// NewBindingGroups creates a concrete set of binding groups
	// conforming to a bindings layout.
	NewBindingGroups(layout BindingsLayout, n int) (BindingGroups, error)

	// NewGraphicsPipeline creates a new graphics pipeline.
	NewGraphicsPipeline(state any) (Pipeline, error)

	// NewComputePipeline creates a new compute pipeline.
	NewComputePipeline(state any) (Pipeline, error)

	// NewCmdBuffer creates a new command buffer into which the RHI
	// backend lowers a compiled plan.
	NewCmdBuffer() (CmdBuffer, error)

	// BufferWrite copies data into a host-visible buffer's storage.
	BufferWrite(buf Buffer, off int64, data []byte) error

	// BufferRead copies data out of a host-visible buffer's storage.
	BufferRead(buf Buffer, off int64, data []byte) error

	// Submit submits a batch of command buffers for execution,
	// sending the result to ch when every command completes.
	Submit(cb []CmdBuffer, ch chan<- error)

	// WaitIdle blocks until the GPU has no outstanding work.
	WaitIdle() error

	// Limits returns the implementation limits. They are immutable
	// for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external memory
// that is not managed by GC, so Destroy must be called explicitly to
// ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// CmdBuffer is the interface of an opaque, RHI-specific command
// buffer. The render graph compiler never records into a CmdBuffer
// directly — it emits its own Command values (see package graph) for
// an RHI backend to lower into calls on this type.
type CmdBuffer interface {
	Destroyer

	// Reset discards all recorded commands.
	Reset() error
}

// Usage is a mask indicating valid uses for a Buffer or Texture.
type Usage int

// Usage flags for Buffer and Texture.
const (
	// UShaderRead allows the resource to be read in shaders.
	UShaderRead Usage = 1 << iota
	// UShaderWrite allows the resource to be written in shaders.
	UShaderWrite
	// UUniform marks a buffer suitable for uniform/constant reads.
	// Valid only for Buffer.
	UUniform
	// UVertex marks a buffer suitable for vertex input.
	// Valid only for Buffer.
	UVertex
	// UIndex marks a buffer suitable for index input.
	// Valid only for Buffer.
	UIndex
	// UIndirect marks a buffer suitable for indirect draw arguments.
	// Valid only for Buffer.
	UIndirect
	// UCopySrc allows the resource to be the source of a copy.
	UCopySrc
	// UCopyDst allows the resource to be the destination of a copy.
	UCopyDst
	// UPush marks host-write-visible storage ("map write").
	// Valid only for Buffer.
	UPush
	// UPull marks host-read-visible storage ("map read").
	// Valid only for Buffer.
	UPull
	// UColorTarget allows the resource to be used as a color
	// attachment. Valid only for Texture.
	UColorTarget
	// UDSTarget allows the resource to be used as a depth/stencil
	// attachment. Valid only for Texture.
	UDSTarget
	// USampled allows the resource to be sampled in shaders.
	// Valid only for Texture.
	USampled
)

// Buffer is the interface that defines a GPU buffer. The size of the
// buffer is fixed; a larger buffer requires creating a new one and
// copying data explicitly.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the underlying
	// data, or nil if the buffer is not host visible.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes, which may be
	// greater than the size requested during creation.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	RGBA8un PixelFmt = iota
	RGBA8sRGB
	BGRA8un
	RG8un
	R8un
	RGBA16f
	RGBA32f
	D16un
	D32f
	S8ui
	D24unS8ui
	D32fS8ui
)

// Dim3D is a three-dimensional size.
type Dim3D struct{ Width, Height, Depth int }

// Off3D is a three-dimensional offset.
type Off3D struct{ X, Y, Z int }

// Texture is the interface that defines a GPU texture. Direct access
// to texture memory is not provided — copying data from the host
// requires a staging buffer.
type Texture interface {
	Destroyer

	// NewView creates a new texture view over a mip×layer rectangle.
	NewView(layer, layers, level, levels int) (TextureView, error)
}

// TextureView is the interface that defines a typed view of a
// Texture resource.
type TextureView interface {
	Destroyer
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// Sampler is the interface that defines an image sampler.
type Sampler interface {
	Destroyer
}

// Sampling describes sampler state.
type Sampling struct {
	Min, Mag, Mipmap Filter
	AddrU, AddrV     AddrMode
	MaxAniso         int
}

// BindingType is the type of a single binding group entry.
type BindingType int

// Binding types.
const (
	BBuffer BindingType = iota
	BUniform
	BTexture
	BStorageTexture
	BSampler
)

// BindingLayoutEntry describes one binding slot within a
// BindingsLayout.
type BindingLayoutEntry struct {
	Type BindingType
	Nr   int
	Len  int
}

// BindingsLayout is the interface that defines the shape of one or
// more binding groups.
type BindingsLayout interface {
	Destroyer
}

// BindingGroups is the interface that defines a concrete set of
// resource bindings conforming to a BindingsLayout.
type BindingGroups interface {
	Destroyer

	// SetBuffer binds a buffer range at the given binding number of
	// the given group.
	SetBuffer(group, nr int, buf Buffer, off, size int64)

	// SetTexture binds a texture view at the given binding number of
	// the given group.
	SetTexture(group, nr int, tv TextureView)

	// SetSampler binds a sampler at the given binding number of the
	// given group.
	SetSampler(group, nr int, splr Sampler)
}

// Pipeline is the interface that defines a GPU pipeline, either
// graphics or compute.
type Pipeline interface {
	Destroyer
}

// Limits describes implementation limits, which may vary across
// drivers and devices.
type Limits struct {
	MaxTexture1D, MaxTexture2D, MaxTextureCube, MaxTexture3D int
	MaxLayers, MaxMipLevels                                  int
	MaxBindingGroups                                         int
	MaxDBuffer, MaxDTexture, MaxDSampler                     int
	MaxDBufferRange                                          int64
	MaxDispatch                                              [3]int
}
