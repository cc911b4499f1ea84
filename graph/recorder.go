// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

// CommandKind tags a recorded Command's concrete variant (spec.md §9,
// "Polymorphic commands → tagged variant").
type CommandKind int

const (
	CmdBeginRenderPass CommandKind = iota
	CmdEndRenderPass
	CmdCopyBuffer
	CmdBindBindingGroups
	CmdBindGraphicsPipeline
	CmdBindComputePipeline
	CmdBindVertexBuffer
	CmdBindIndexBuffer
	CmdDraw
	CmdDrawIndexed
	CmdDrawIndexedIndirect
	CmdDispatch
)

// Command is implemented by every recordable command variant.
type Command interface {
	Kind() CommandKind
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	Index16 IndexFormat = 16
	Index32 IndexFormat = 32
)

type BeginRenderPass struct{ Info RenderPassInfo }
type EndRenderPass struct{}
type CopyBuffer struct{ Src, Dst BufferView }
type BindBindingGroups struct {
	Groups         string
	DynamicOffsets []int64
}
type BindGraphicsPipeline struct{ Pipeline string }
type BindComputePipeline struct{ Pipeline string }
type BindVertexBuffer struct {
	Slot int
	View BufferView
}
type BindIndexBuffer struct {
	View  BufferView
	Index IndexFormat
}
type Draw struct{ VertexCount, InstanceCount, BaseVertex, BaseInstance int }
type DrawIndexed struct {
	IndexCount, InstanceCount, BaseIndex, VertexOffset, BaseInstance int
}
type DrawIndexedIndirect struct {
	View   BufferView
	Offset int64
	Count  int
	Stride int64
}
type Dispatch struct{ X, Y, Z int }

func (BeginRenderPass) Kind() CommandKind        { return CmdBeginRenderPass }
func (EndRenderPass) Kind() CommandKind          { return CmdEndRenderPass }
func (CopyBuffer) Kind() CommandKind             { return CmdCopyBuffer }
func (BindBindingGroups) Kind() CommandKind      { return CmdBindBindingGroups }
func (BindGraphicsPipeline) Kind() CommandKind   { return CmdBindGraphicsPipeline }
func (BindComputePipeline) Kind() CommandKind    { return CmdBindComputePipeline }
func (BindVertexBuffer) Kind() CommandKind       { return CmdBindVertexBuffer }
func (BindIndexBuffer) Kind() CommandKind        { return CmdBindIndexBuffer }
func (Draw) Kind() CommandKind                   { return CmdDraw }
func (DrawIndexed) Kind() CommandKind            { return CmdDrawIndexed }
func (DrawIndexedIndirect) Kind() CommandKind    { return CmdDrawIndexedIndirect }
func (Dispatch) Kind() CommandKind               { return CmdDispatch }

// dispatchBoundary reports whether kind ends a command sequence
// (spec.md §4.3).
func dispatchBoundary(kind CommandKind) bool {
	switch kind {
	case CmdCopyBuffer, CmdDraw, CmdDrawIndexed, CmdDrawIndexedIndirect, CmdDispatch:
		return true
	default:
		return false
	}
}

// setupKind reports whether kind is one of the idempotent setup
// commands the recorder allows at most once per sequence.
func setupKind(kind CommandKind) bool {
	switch kind {
	case CmdBeginRenderPass, CmdEndRenderPass, CmdBindGraphicsPipeline,
		CmdBindComputePipeline, CmdBindVertexBuffer, CmdBindIndexBuffer,
		CmdBindBindingGroups:
		return true
	default:
		return false
	}
}

// CommandSequence is a contiguous run of commands ending at (or
// continuing to) a dispatch boundary.
type CommandSequence struct {
	Commands []Command
}

// CommandRecorder is handed fresh to a pass's record callback. It
// appends commands to the current command sequence, auto-splitting
// into a new sequence immediately after a dispatch-boundary command.
type CommandRecorder struct {
	Sequences []CommandSequence
}

// NewCommandRecorder returns a recorder with a single empty initial
// sequence.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{Sequences: []CommandSequence{{}}}
}

func (r *CommandRecorder) append(c Command) {
	cur := len(r.Sequences) - 1
	r.Sequences[cur].Commands = append(r.Sequences[cur].Commands, c)
	if dispatchBoundary(c.Kind()) {
		r.Sequences = append(r.Sequences, CommandSequence{})
	}
}

func (r *CommandRecorder) BeginRenderPass(info RenderPassInfo) {
	r.append(BeginRenderPass{info})
}
func (r *CommandRecorder) EndRenderPass() { r.append(EndRenderPass{}) }
func (r *CommandRecorder) CopyBuffer(src, dst BufferView) {
	r.append(CopyBuffer{src, dst})
}
func (r *CommandRecorder) BindBindingGroups(groups string, dynamicOffsets []int64) {
	r.append(BindBindingGroups{groups, dynamicOffsets})
}
func (r *CommandRecorder) BindGraphicsPipeline(pipeline string) {
	r.append(BindGraphicsPipeline{pipeline})
}
func (r *CommandRecorder) BindComputePipeline(pipeline string) {
	r.append(BindComputePipeline{pipeline})
}
func (r *CommandRecorder) BindVertexBuffer(slot int, view BufferView) {
	r.append(BindVertexBuffer{slot, view})
}
func (r *CommandRecorder) BindIndexBuffer(view BufferView, idx IndexFormat) {
	r.append(BindIndexBuffer{view, idx})
}
func (r *CommandRecorder) Draw(vertCount, instCount, baseVert, baseInst int) {
	r.append(Draw{vertCount, instCount, baseVert, baseInst})
}
func (r *CommandRecorder) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	r.append(DrawIndexed{idxCount, instCount, baseIdx, vertOff, baseInst})
}
func (r *CommandRecorder) DrawIndexedIndirect(view BufferView, offset int64, count int, stride int64) {
	r.append(DrawIndexedIndirect{view, offset, count, stride})
}
func (r *CommandRecorder) Dispatch(x, y, z int) { r.append(Dispatch{x, y, z}) }

// validateSequence enforces spec.md §4.3: within one sequence, an
// idempotent setup command may occur at most once.
func validateSequence(seq CommandSequence) error {
	seen := make(map[CommandKind]bool, len(seq.Commands))
	for _, c := range seq.Commands {
		k := c.Kind()
		if !setupKind(k) {
			continue
		}
		if seen[k] {
			return ErrInvalidSequence
		}
		seen[k] = true
	}
	return nil
}
