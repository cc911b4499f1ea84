// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// BufferUsageEntry is one registered consumer of a buffer (spec.md
// §4.2, "usages, each usage being {consumer_node_id, view}").
type BufferUsageEntry struct {
	ConsumerNodeID int
	View           BufferView
}

// TextureUsageEntry is one registered consumer of a texture.
type TextureUsageEntry struct {
	ConsumerNodeID int
	View           TextureView
}

// SimpleUsageEntry is one registered consumer of a resource kind with
// no subresource footprint of its own (samplers, layouts, groups,
// pipelines).
type SimpleUsageEntry struct {
	ConsumerNodeID int
	Access         AccessPattern
}

type bufferMetadata struct {
	Name   string
	Info   BufferInfo
	Usages []BufferUsageEntry
}

type textureMetadata struct {
	Name   string
	Info   TextureInfo
	Usages []TextureUsageEntry
}

type samplerMetadata struct {
	Name   string
	Info   SamplerInfo
	Usages []SimpleUsageEntry
}

type bindingsLayoutMetadata struct {
	Name   string
	Info   BindingsLayoutInfo
	Usages []SimpleUsageEntry
}

type bindingGroupsMetadata struct {
	Name   string
	Info   BindingGroupsInfo
	Usages []SimpleUsageEntry
}

type graphicsPipelineMetadata struct {
	Name   string
	Info   GraphicsPipelineInfo
	Usages []SimpleUsageEntry
}

type computePipelineMetadata struct {
	Name   string
	Info   ComputePipelineInfo
	Usages []SimpleUsageEntry
}

// namedStore is a stable symbol table mapping names to ids, paired
// with a parallel metadata vector (spec.md §4.2). Lookups go through a
// sharded concurrent map (github.com/puzpuzpuz/xsync) so creation APIs
// are safe to call from multiple goroutines (spec.md §5); the mutex
// only serializes the rarer append-a-new-id path and in-place usage
// updates.
type namedStore[M any] struct {
	names *xsync.MapOf[string, int]
	mu    sync.Mutex
	items []M
}

func newNamedStore[M any]() *namedStore[M] {
	return &namedStore[M]{names: xsync.NewMapOf[string, int]()}
}

func (s *namedStore[M]) create(name string, item M) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := len(s.items)
	if _, loaded := s.names.LoadOrStore(name, id); loaded {
		return 0, ErrDuplicateName
	}
	s.items = append(s.items, item)
	return id, nil
}

func (s *namedStore[M]) id(name string) (int, bool) { return s.names.Load(name) }

func (s *namedStore[M]) update(id int, fn func(*M)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.items[id])
}

// snapshot returns the metadata vector as it stands. It must only be
// called during compile(), which by precondition never races a
// creation call (spec.md §5).
func (s *namedStore[M]) snapshot() []M { return s.items }

// ResourceDatabase is the stable symbol table mapping resource names
// to metadata, one table per resource kind (spec.md §4.2). Scratch
// buffers share the buffer name namespace but are kept in their own
// metadata list.
type ResourceDatabase struct {
	bufferNames *xsync.MapOf[string, bufferRef]
	bufMu       sync.Mutex
	buffers     []bufferMetadata
	scratch     []bufferMetadata

	textures          *namedStore[textureMetadata]
	samplers          *namedStore[samplerMetadata]
	bindingsLayouts   *namedStore[bindingsLayoutMetadata]
	bindingGroups     *namedStore[bindingGroupsMetadata]
	graphicsPipelines *namedStore[graphicsPipelineMetadata]
	computePipelines  *namedStore[computePipelineMetadata]
}

type bufferRef struct {
	scratch bool
	id      int
}

// NewResourceDatabase returns an empty database.
func NewResourceDatabase() *ResourceDatabase {
	return &ResourceDatabase{
		bufferNames:       xsync.NewMapOf[string, bufferRef](),
		textures:          newNamedStore[textureMetadata](),
		samplers:          newNamedStore[samplerMetadata](),
		bindingsLayouts:   newNamedStore[bindingsLayoutMetadata](),
		bindingGroups:     newNamedStore[bindingGroupsMetadata](),
		graphicsPipelines: newNamedStore[graphicsPipelineMetadata](),
		computePipelines:  newNamedStore[computePipelineMetadata](),
	}
}

func (db *ResourceDatabase) createBuffer(name string, info BufferInfo, scratch bool) error {
	db.bufMu.Lock()
	defer db.bufMu.Unlock()
	var id int
	if scratch {
		id = len(db.scratch)
	} else {
		id = len(db.buffers)
	}
	if _, loaded := db.bufferNames.LoadOrStore(name, bufferRef{scratch, id}); loaded {
		return ErrDuplicateName
	}
	meta := bufferMetadata{Name: name, Info: info}
	if scratch {
		db.scratch = append(db.scratch, meta)
	} else {
		db.buffers = append(db.buffers, meta)
	}
	return nil
}

// CreateBuffer registers a durable buffer (spec.md §6, create_buffer).
func (db *ResourceDatabase) CreateBuffer(name string, info BufferInfo) error {
	return db.createBuffer(name, info, false)
}

// CreateScratchBuffer registers a transient buffer resolved to aliased
// storage by the Allocator (spec.md §6, create_scratch_buffer).
func (db *ResourceDatabase) CreateScratchBuffer(name string, info BufferInfo) error {
	return db.createBuffer(name, info, true)
}

// CreateTexture registers a texture (spec.md §6, create_texture).
func (db *ResourceDatabase) CreateTexture(name string, info TextureInfo) error {
	_, err := db.textures.create(name, textureMetadata{Name: name, Info: info})
	return err
}

// CreateSampler registers a sampler.
func (db *ResourceDatabase) CreateSampler(name string, info SamplerInfo) error {
	_, err := db.samplers.create(name, samplerMetadata{Name: name, Info: info})
	return err
}

// CreateBindingsLayout registers a bindings layout.
func (db *ResourceDatabase) CreateBindingsLayout(name string, info BindingsLayoutInfo) error {
	_, err := db.bindingsLayouts.create(name, bindingsLayoutMetadata{Name: name, Info: info})
	return err
}

// CreateBindingGroups registers a set of binding groups.
func (db *ResourceDatabase) CreateBindingGroups(name string, info BindingGroupsInfo) error {
	_, err := db.bindingGroups.create(name, bindingGroupsMetadata{Name: name, Info: info})
	return err
}

// CreateGraphicsPipeline registers a graphics pipeline.
func (db *ResourceDatabase) CreateGraphicsPipeline(name string, info GraphicsPipelineInfo) error {
	_, err := db.graphicsPipelines.create(name, graphicsPipelineMetadata{Name: name, Info: info})
	return err
}

// CreateComputePipeline registers a compute pipeline.
func (db *ResourceDatabase) CreateComputePipeline(name string, info ComputePipelineInfo) error {
	_, err := db.computePipelines.create(name, computePipelineMetadata{Name: name, Info: info})
	return err
}

// registerBufferConsumer appends a usage entry for a buffer or scratch
// buffer (spec.md §4.2, register_consumer).
func (db *ResourceDatabase) registerBufferConsumer(name string, nodeID int, view BufferView) error {
	ref, ok := db.bufferNames.Load(name)
	if !ok {
		return ErrUnknownName
	}
	db.bufMu.Lock()
	defer db.bufMu.Unlock()
	entry := BufferUsageEntry{ConsumerNodeID: nodeID, View: view}
	if ref.scratch {
		db.scratch[ref.id].Usages = append(db.scratch[ref.id].Usages, entry)
	} else {
		db.buffers[ref.id].Usages = append(db.buffers[ref.id].Usages, entry)
	}
	return nil
}

func (db *ResourceDatabase) registerTextureConsumer(name string, nodeID int, view TextureView) error {
	id, ok := db.textures.id(name)
	if !ok {
		return ErrUnknownName
	}
	db.textures.update(id, func(m *textureMetadata) {
		m.Usages = append(m.Usages, TextureUsageEntry{ConsumerNodeID: nodeID, View: view})
	})
	return nil
}

func registerSimpleConsumer[M any](s *namedStore[M], name string, nodeID int, access AccessPattern, usages func(*M) *[]SimpleUsageEntry) error {
	id, ok := s.id(name)
	if !ok {
		return ErrUnknownName
	}
	s.update(id, func(m *M) {
		p := usages(m)
		*p = append(*p, SimpleUsageEntry{ConsumerNodeID: nodeID, Access: access})
	})
	return nil
}

func (db *ResourceDatabase) registerSamplerConsumer(name string, nodeID int) error {
	return registerSimpleConsumer(db.samplers, name, nodeID, AccessShaderRead, func(m *samplerMetadata) *[]SimpleUsageEntry { return &m.Usages })
}

func (db *ResourceDatabase) registerBindingsLayoutConsumer(name string, nodeID int) error {
	return registerSimpleConsumer(db.bindingsLayouts, name, nodeID, AccessNone, func(m *bindingsLayoutMetadata) *[]SimpleUsageEntry { return &m.Usages })
}

func (db *ResourceDatabase) registerGraphicsPipelineConsumer(name string, nodeID int) error {
	return registerSimpleConsumer(db.graphicsPipelines, name, nodeID, AccessNone, func(m *graphicsPipelineMetadata) *[]SimpleUsageEntry { return &m.Usages })
}

func (db *ResourceDatabase) registerComputePipelineConsumer(name string, nodeID int) error {
	return registerSimpleConsumer(db.computePipelines, name, nodeID, AccessNone, func(m *computePipelineMetadata) *[]SimpleUsageEntry { return &m.Usages })
}

// bindingGroupsInfo returns the creation-time info for a binding
// groups resource, used by the Pass Analyzer to recursively register
// every resource named inside it (spec.md §4.4).
func (db *ResourceDatabase) bindingGroupsInfo(name string) (BindingGroupsInfo, bool) {
	id, ok := db.bindingGroups.id(name)
	if !ok {
		return BindingGroupsInfo{}, false
	}
	return db.bindingGroups.snapshot()[id].Info, true
}
