// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

// ExecutePredicate decides whether a pass contributes a node to this
// compilation (spec.md §6).
type ExecutePredicate func(firstRun bool) bool

// ExecuteAlways always records the pass.
func ExecuteAlways(bool) bool { return true }

// ExecuteOnFirstRun records the pass only on the first compilation of
// the render graph that owns it.
func ExecuteOnFirstRun(firstRun bool) bool { return firstRun }

// Pass is a named unit of recorded commands contributed by the caller
// (spec.md §6, add_pass).
type Pass struct {
	Name          string
	ShouldExecute ExecutePredicate
	Record        func(*ResourceDatabase, *CommandRecorder)
}

// PassAnalyzer turns recorded passes into scheduled-but-unordered
// graph nodes, validating each command sequence and registering every
// resource it touches with the Resource Database (spec.md §4.4).
type PassAnalyzer struct {
	db *ResourceDatabase
}

// NewPassAnalyzer returns an analyzer bound to db.
func NewPassAnalyzer(db *ResourceDatabase) *PassAnalyzer {
	return &PassAnalyzer{db: db}
}

// Analyze runs every pass whose predicate selects firstRun, in
// insertion order, and returns one Node per non-empty command
// sequence produced, preceded by the synthetic node 0
// ("Initialization") every compilation carries regardless of pass
// content (spec.md §3, §4.5 step 4).
func (a *PassAnalyzer) Analyze(passes []Pass, firstRun bool) ([]Node, error) {
	nodes := []Node{{Name: "Initialization", Queue: QueueNone}}
	for _, p := range passes {
		if p.ShouldExecute != nil && !p.ShouldExecute(firstRun) {
			continue
		}
		rec := NewCommandRecorder()
		p.Record(a.db, rec)
		for _, seq := range rec.Sequences {
			if len(seq.Commands) == 0 {
				continue
			}
			if err := validateSequence(seq); err != nil {
				return nil, err
			}
			id := len(nodes)
			node := Node{
				ID:       id,
				Name:     p.Name,
				Priority: id,
				Queue:    inferQueue(seq.Commands[len(seq.Commands)-1]),
				Commands: seq.Commands,
			}
			if err := a.registerConsumers(id, seq); err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// inferQueue assigns the queue affinity of a completed sequence from
// its terminating dispatch-boundary command (spec.md §4.4 step 3).
func inferQueue(last Command) Queue {
	switch last.Kind() {
	case CmdCopyBuffer:
		return QueueTransfer
	case CmdDraw, CmdDrawIndexed, CmdDrawIndexedIndirect:
		return QueueGraphics
	case CmdDispatch:
		return QueueCompute
	default:
		return QueueNone
	}
}

// registerConsumers walks every command in seq and registers the
// node as a consumer of every resource it names (spec.md §4.4 step 4).
func (a *PassAnalyzer) registerConsumers(nodeID int, seq CommandSequence) error {
	for _, c := range seq.Commands {
		switch cmd := c.(type) {
		case BeginRenderPass:
			for _, ca := range cmd.Info.Color {
				if err := a.db.registerTextureConsumer(ca.View.Texture, nodeID, ca.View); err != nil {
					return err
				}
			}
			if cmd.Info.DepthStencil != nil {
				ds := cmd.Info.DepthStencil
				if err := a.db.registerTextureConsumer(ds.View.Texture, nodeID, ds.View); err != nil {
					return err
				}
			}
		case EndRenderPass:
			// No resource reference of its own.
		case CopyBuffer:
			if err := a.db.registerBufferConsumer(cmd.Src.Buffer, nodeID, cmd.Src); err != nil {
				return err
			}
			if err := a.db.registerBufferConsumer(cmd.Dst.Buffer, nodeID, cmd.Dst); err != nil {
				return err
			}
		case BindBindingGroups:
			if err := a.registerBindingGroupsConsumers(nodeID, cmd.Groups); err != nil {
				return err
			}
		case BindGraphicsPipeline:
			if err := a.db.registerGraphicsPipelineConsumer(cmd.Pipeline, nodeID); err != nil {
				return err
			}
		case BindComputePipeline:
			if err := a.db.registerComputePipelineConsumer(cmd.Pipeline, nodeID); err != nil {
				return err
			}
		case BindVertexBuffer:
			if err := a.db.registerBufferConsumer(cmd.View.Buffer, nodeID, cmd.View); err != nil {
				return err
			}
		case BindIndexBuffer:
			if err := a.db.registerBufferConsumer(cmd.View.Buffer, nodeID, cmd.View); err != nil {
				return err
			}
		case Draw, DrawIndexed, Dispatch:
			// Consume only the state already bound by prior commands.
		case DrawIndexedIndirect:
			if err := a.db.registerBufferConsumer(cmd.View.Buffer, nodeID, cmd.View); err != nil {
				return err
			}
		default:
			return ErrUnsupportedCommand
		}
	}
	return nil
}

// registerBindingGroupsConsumers registers the bindings layout and
// every buffer, texture, storage texture, and sampler referenced by
// every group of the named binding groups resource.
func (a *PassAnalyzer) registerBindingGroupsConsumers(nodeID int, groupsName string) error {
	info, ok := a.db.bindingGroupsInfo(groupsName)
	if !ok {
		return ErrUnknownName
	}
	if err := a.db.registerBindingsLayoutConsumer(info.Layout, nodeID); err != nil {
		return err
	}
	for _, g := range info.Groups {
		for _, v := range g.Buffers {
			if err := a.db.registerBufferConsumer(v.Buffer, nodeID, v); err != nil {
				return err
			}
		}
		for _, v := range g.Textures {
			if err := a.db.registerTextureConsumer(v.Texture, nodeID, v); err != nil {
				return err
			}
		}
		for _, v := range g.StorageTextures {
			if err := a.db.registerTextureConsumer(v.Texture, nodeID, v); err != nil {
				return err
			}
		}
		for _, name := range g.Samplers {
			if err := a.db.registerSamplerConsumer(name, nodeID); err != nil {
				return err
			}
		}
	}
	return nil
}
