// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package stub provides an in-memory driver.GPU suitable for exercising
// the render graph compiler in tests. It allocates host memory only and
// never talks to a real device (spec.md §8, "a compute-capable device
// stub").
package stub

import (
	"github.com/gviegas/rgraph/driver"
)

// Open returns a ready-to-use stub GPU, bypassing the Driver registry
// (the registry exists for real backends selected by name; the stub is
// always available directly).
func Open() driver.GPU { return &gpu{} }

type drv struct{}

func (drv) Open() (driver.GPU, error) { return Open(), nil }
func (drv) Name() string              { return "stub" }
func (drv) Close()                    {}

func init() { driver.Register(drv{}) }

type gpu struct{}

func (g *gpu) Driver() driver.Driver { return drv{} }

func (g *gpu) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	return &buffer{data: make([]byte, size), visible: visible}, nil
}

func (g *gpu) NewTexture(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Texture, error) {
	return &texture{pf: pf, size: size, layers: layers, levels: levels}, nil
}

func (g *gpu) NewSampler(spln *driver.Sampling) (driver.Sampler, error) { return sampler{}, nil }

func (g *gpu) NewBindingsLayout(entries []driver.BindingLayoutEntry) (driver.BindingsLayout, error) {
	e := make([]driver.BindingLayoutEntry, len(entries))
	copy(e, entries)
	return &bindingsLayout{entries: e}, nil
}

func (g *gpu) NewBindingGroups(layout driver.BindingsLayout, n int) (driver.BindingGroups, error) {
	return &bindingGroups{n: n}, nil
}

func (g *gpu) NewGraphicsPipeline(state any) (driver.Pipeline, error) { return pipeline{}, nil }
func (g *gpu) NewComputePipeline(state any) (driver.Pipeline, error)  { return pipeline{}, nil }
func (g *gpu) NewCmdBuffer() (driver.CmdBuffer, error)                { return &cmdBuffer{}, nil }

func (g *gpu) BufferWrite(buf driver.Buffer, off int64, data []byte) error {
	b := buf.(*buffer)
	copy(b.data[off:], data)
	return nil
}

func (g *gpu) BufferRead(buf driver.Buffer, off int64, data []byte) error {
	b := buf.(*buffer)
	copy(data, b.data[off:])
	return nil
}

func (g *gpu) Submit(cb []driver.CmdBuffer, ch chan<- error) {
	if ch != nil {
		ch <- nil
	}
}

func (g *gpu) WaitIdle() error { return nil }

func (g *gpu) Limits() driver.Limits {
	return driver.Limits{
		MaxTexture1D: 16384, MaxTexture2D: 16384, MaxTextureCube: 16384, MaxTexture3D: 2048,
		MaxLayers: 2048, MaxMipLevels: 16,
		MaxBindingGroups: 8,
		MaxDBuffer:       64, MaxDTexture: 64, MaxDSampler: 64,
		MaxDBufferRange: 1 << 28,
		MaxDispatch:     [3]int{65535, 65535, 65535},
	}
}

type buffer struct {
	data    []byte
	visible bool
}

func (b *buffer) Destroy()        {}
func (b *buffer) Visible() bool   { return b.visible }
func (b *buffer) Cap() int64      { return int64(len(b.data)) }
func (b *buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

type texture struct {
	pf             driver.PixelFmt
	size           driver.Dim3D
	layers, levels int
}

func (t *texture) Destroy() {}

func (t *texture) NewView(layer, layers, level, levels int) (driver.TextureView, error) {
	return textureView{}, nil
}

type textureView struct{}

func (textureView) Destroy() {}

type sampler struct{}

func (sampler) Destroy() {}

type bindingsLayout struct{ entries []driver.BindingLayoutEntry }

func (*bindingsLayout) Destroy() {}

type bindingGroups struct{ n int }

func (*bindingGroups) Destroy()                                                     {}
func (*bindingGroups) SetBuffer(group, nr int, buf driver.Buffer, off, size int64)   {}
func (*bindingGroups) SetTexture(group, nr int, tv driver.TextureView)               {}
func (*bindingGroups) SetSampler(group, nr int, splr driver.Sampler)                 {}

type pipeline struct{}

func (pipeline) Destroy() {}

type cmdBuffer struct{}

func (*cmdBuffer) Destroy()     {}
func (*cmdBuffer) Reset() error { return nil }
